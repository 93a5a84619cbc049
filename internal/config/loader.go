package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// LookupFunc resolves one variable name. os.LookupEnv is the production source.
type LookupFunc func(name string) (string, bool)

// Load reads configuration from the process environment, applies defaults
// and validates the result.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an explicit variable source. Every unparsable value
// is reported, not just the first.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	b := binder{lookup: lookup}
	b.bind(reflect.ValueOf(cfg).Elem())
	if err := errors.Join(b.errs...); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// binder fills tagged fields of nested config structs.
type binder struct {
	lookup LookupFunc
	errs   []error
}

func (b *binder) bind(v reflect.Value) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			b.bind(fv)
			continue
		}

		name, ok := f.Tag.Lookup("env")
		if !ok {
			continue
		}
		raw := b.value(name, f.Tag.Get("envAlt"), f.Tag.Get("default"))
		if raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			b.errs = append(b.errs, fmt.Errorf("%s=%q: %w", name, raw, err))
		}
	}
}

// value returns the first non-empty of name, alt and the fallback.
func (b *binder) value(name, alt, fallback string) string {
	for _, key := range []string{name, alt} {
		if key == "" {
			continue
		}
		if s, ok := b.lookup(key); ok && s != "" {
			return s
		}
	}
	return fallback
}

// assign parses raw into the field's type.
func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(v)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem())
		}
		fv.Set(reflect.ValueOf(splitList(raw)))
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}

// splitList splits a comma-separated list and drops blank entries.
func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// freecacheEntryRatio is how many times larger than its biggest entry a
// freecache arena must be.
const freecacheEntryRatio = 1024

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Upload validation
	if c.Upload.MaxFileSize <= 0 {
		errs = append(errs, "UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if c.Upload.MaxConcurrent <= 0 {
		errs = append(errs, "UPLOAD_MAX_CONCURRENT must be positive")
	}
	if c.Upload.MaxWaitTime <= 0 {
		errs = append(errs, "UPLOAD_MAX_WAIT_TIME must be positive")
	}
	if c.Upload.ErrorPreview <= 0 {
		errs = append(errs, "UPLOAD_ERROR_PREVIEW must be positive")
	}

	// Cache validation
	switch strings.ToLower(c.Cache.Backend) {
	case "memory", "freecache":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, "CACHE_REDIS_ADDR is required when CACHE_BACKEND is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND (%q) must be one of: memory, redis, freecache", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive")
	}
	if strings.EqualFold(c.Cache.Backend, "freecache") {
		if c.Cache.FreeCacheSize < 512*1024 {
			errs = append(errs, "CACHE_FREECACHE_SIZE must be at least 524288 bytes")
		} else if int64(c.Cache.FreeCacheSize) < freecacheEntryRatio*c.Upload.MaxFileSize {
			errs = append(errs, fmt.Sprintf("CACHE_FREECACHE_SIZE (%d) must be at least %d times UPLOAD_MAX_FILE_SIZE (%d)",
				c.Cache.FreeCacheSize, freecacheEntryRatio, c.Upload.MaxFileSize))
		}
	}

	// Query validation
	if c.Query.MaxPageSize <= 0 {
		errs = append(errs, "QUERY_MAX_PAGE_SIZE must be positive")
	}
	if c.Query.DefaultPageSize <= 0 || c.Query.DefaultPageSize > c.Query.MaxPageSize {
		errs = append(errs, fmt.Sprintf("QUERY_DEFAULT_PAGE_SIZE (%d) must be 1-%d", c.Query.DefaultPageSize, c.Query.MaxPageSize))
	}
	if _, err := language.Parse(c.Query.Language); err != nil {
		errs = append(errs, fmt.Sprintf("QUERY_LANGUAGE (%q) is not a valid language tag", c.Query.Language))
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Rate.Enabled && c.Rate.UploadLimit <= 0 {
		errs = append(errs, "RATE_LIMIT_UPLOAD must be positive when rate limiting is enabled")
	}

	// History validation
	if c.History.Enabled() {
		if c.History.MaxConns <= 0 {
			errs = append(errs, "DB_MAX_CONNS must be positive")
		}
		if c.History.Retention <= 0 {
			errs = append(errs, "HISTORY_RETENTION must be positive")
		}
		if c.History.CheckInterval <= 0 {
			errs = append(errs, "HISTORY_CHECK_INTERVAL must be positive")
		}
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// LanguageTag returns the collation language. Validate rejects unparsable tags,
// so an invalid value only reaches here on an unvalidated Config.
func (c *QueryConfig) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.Und
	}
	return tag
}

// String returns a safe string representation of the config for logging.
// Sensitive values like database URLs and passwords are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Upload: {MaxFileSize: %d, MaxConcurrent: %d, ErrorPreview: %d}, ",
		c.Upload.MaxFileSize, c.Upload.MaxConcurrent, c.Upload.ErrorPreview))
	b.WriteString(fmt.Sprintf("Cache: {Backend: %q, TTL: %s, RedisAddr: %q, RedisPassword: %s}, ",
		c.Cache.Backend, c.Cache.TTL, c.Cache.RedisAddr, mask(c.Cache.RedisPassword)))
	b.WriteString(fmt.Sprintf("Query: {DefaultPageSize: %d, MaxPageSize: %d, Language: %q}, ",
		c.Query.DefaultPageSize, c.Query.MaxPageSize, c.Query.Language))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("History: {DatabaseURL: %s, Retention: %s}, ",
		mask(c.History.DatabaseURL), c.History.Retention))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func mask(secret string) string {
	if secret == "" {
		return "[UNSET]"
	}
	return "[MASKED]"
}
