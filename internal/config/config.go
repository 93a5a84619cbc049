// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Cache    CacheConfig
	Query    QueryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	History  HistoryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0, exports stream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds CSV upload processing settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel parses (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// ErrorPreview is how many row diagnostics an upload response carries (default: 10)
	ErrorPreview int `env:"UPLOAD_ERROR_PREVIEW" default:"10"`
}

// CacheConfig selects and tunes the parsed table cache.
type CacheConfig struct {
	// Backend is one of memory, redis, freecache (default: memory)
	Backend string `env:"CACHE_BACKEND" default:"memory"`

	// TTL is how long an upload stays retrievable (default: 1h)
	TTL time.Duration `env:"CACHE_TTL" default:"1h"`

	// RedisAddr is the Redis endpoint, required for the redis backend
	RedisAddr string `env:"CACHE_REDIS_ADDR" envAlt:"REDIS_ADDR"`

	// RedisPassword authenticates against Redis
	RedisPassword string `env:"CACHE_REDIS_PASSWORD" envAlt:"REDIS_PASSWORD"`

	// RedisDB is the Redis logical database (default: 0)
	RedisDB int `env:"CACHE_REDIS_DB" default:"0"`

	// RedisKeyPrefix namespaces cache keys (default: csvview:)
	RedisKeyPrefix string `env:"CACHE_REDIS_KEY_PREFIX" default:"csvview:"`

	// FreeCacheSize is the freecache arena in bytes (default: 256MB).
	// freecache stores entries up to 1/1024 of it, so with this backend it
	// must be at least 1024 times UPLOAD_MAX_FILE_SIZE.
	FreeCacheSize int `env:"CACHE_FREECACHE_SIZE" default:"268435456"`
}

// QueryConfig holds table query settings.
type QueryConfig struct {
	// DefaultPageSize applies when a request names none (default: 20)
	DefaultPageSize int `env:"QUERY_DEFAULT_PAGE_SIZE" default:"20"`

	// MaxPageSize caps the page size of remote queries (default: 100)
	MaxPageSize int `env:"QUERY_MAX_PAGE_SIZE" default:"100"`

	// Language is the BCP 47 tag used to collate sorted text (default: und)
	Language string `env:"QUERY_LANGUAGE" default:"und"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// HistoryConfig holds the optional upload history database settings.
// History is disabled when DatabaseURL is empty.
type HistoryConfig struct {
	// DatabaseURL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// Retention is how long history entries are kept (default: 720h)
	Retention time.Duration `env:"HISTORY_RETENTION" default:"720h"`

	// CheckInterval is how often the retention job runs (default: 24h)
	CheckInterval time.Duration `env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// Enabled reports whether upload history should be recorded.
func (c *HistoryConfig) Enabled() bool {
	return c.DatabaseURL != ""
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
