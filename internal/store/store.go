// Package store provides TTL key/value stores for parsed tables.
//
// Every backend implements Store and reports missing or expired keys with
// ErrKeyNotFound. The in-memory backend evicts lazily against an injected
// Clock; the Redis and freecache backends delegate expiry to the cache.
package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrConditionFailed = errors.New("condition failed")
	ErrValueTooLarge   = errors.New("value too large for store")
)

// setOptions controls a single Set call.
type setOptions struct {
	Expiration time.Duration
	IfNotExist bool
}

// SetOption tunes a single Set call.
type SetOption func(*setOptions)

// WithExpiration overrides the store's default TTL for one entry.
func WithExpiration(expiration time.Duration) SetOption {
	return func(options *setOptions) {
		options.Expiration = expiration
	}
}

// WithIfNotExist makes Set fail with ErrConditionFailed when a live entry
// already holds the key.
func WithIfNotExist() SetOption {
	return func(options *setOptions) {
		options.IfNotExist = true
	}
}

func applyOptions(defaultTTL time.Duration, opts []SetOption) *setOptions {
	options := &setOptions{Expiration: defaultTTL}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

type Store[V any] interface {
	// Set stores value under key. With WithIfNotExist a live key returns ErrConditionFailed.
	Set(ctx context.Context, key string, value V, opts ...SetOption) error
	// Get returns the value, or ErrKeyNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (V, error)
	Close() error
}

// Clock supplies the current time. Tests inject a ManualClock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the wall clock.
var SystemClock Clock = systemClock{}
