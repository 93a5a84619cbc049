package store

import (
	"context"
	"time"

	"github.com/coocood/freecache"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// FreeCacheStore keeps msgpack-encoded values in a fixed-size freecache ring.
//
// freecache rejects values larger than 1/1024 of the cache size, and it
// evicts the oldest entries when full, so it suits many small tables better
// than a few large ones. Oversized values fail with ErrValueTooLarge.
// Expiry uses whole seconds from the injected clock, rounded up.
type FreeCacheStore[V any] struct {
	cache      *freecache.Cache
	defaultTTL time.Duration
}

// clockTimer adapts a Clock to freecache's Timer.
type clockTimer struct {
	clock Clock
}

func (t clockTimer) Now() uint32 {
	return uint32(t.clock.Now().Unix())
}

// NewFreeCacheStore allocates a cache of size bytes.
// A nil clock uses the wall clock.
func NewFreeCacheStore[V any](size int, defaultTTL time.Duration, clock Clock) *FreeCacheStore[V] {
	if clock == nil {
		clock = SystemClock
	}
	return &FreeCacheStore[V]{
		cache:      freecache.NewCacheCustomTimer(size, clockTimer{clock: clock}),
		defaultTTL: defaultTTL,
	}
}

func (s *FreeCacheStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	options := applyOptions(s.defaultTTL, opts)

	data, err := msgpack.Marshal(value)
	if err != nil {
		return errors.WithMessage(err, "msgpack.Marshal failed")
	}

	expireSeconds := expirySeconds(options.Expiration)

	if options.IfNotExist {
		existing, err := s.cache.GetOrSet([]byte(key), data, expireSeconds)
		if err == freecache.ErrLargeEntry {
			return errors.WithMessagef(ErrValueTooLarge, "%d encoded bytes", len(data))
		}
		if err != nil {
			return errors.WithMessage(err, "freecache.GetOrSet failed")
		}
		if existing != nil {
			return ErrConditionFailed
		}
		return nil
	}

	err = s.cache.Set([]byte(key), data, expireSeconds)
	if err == freecache.ErrLargeEntry {
		return errors.WithMessagef(ErrValueTooLarge, "%d encoded bytes", len(data))
	}
	if err != nil {
		return errors.WithMessage(err, "freecache.Set failed")
	}
	return nil
}

// expirySeconds converts d for freecache, where 0 means no expiry. A
// positive sub-second d still expires.
func expirySeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func (s *FreeCacheStore[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	data, err := s.cache.Get([]byte(key))
	if err == freecache.ErrNotFound {
		return zero, ErrKeyNotFound
	}
	if err != nil {
		return zero, errors.WithMessage(err, "freecache.Get failed")
	}

	var value V
	if err := msgpack.Unmarshal(data, &value); err != nil {
		return zero, errors.WithMessage(err, "msgpack.Unmarshal failed")
	}
	return value, nil
}

// EntryCount returns the number of live entries.
func (s *FreeCacheStore[V]) EntryCount() int64 {
	return s.cache.EntryCount()
}

func (s *FreeCacheStore[V]) Close() error {
	s.cache.Clear()
	return nil
}
