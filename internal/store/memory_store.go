package store

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value     V
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry is past its TTL. An entry stays visible
// while now-createdAt <= ttl; a zero ttl never expires.
func (e memoryEntry[V]) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.createdAt) > e.ttl
}

// MemoryStore is a map guarded by a mutex. Expired entries are removed on
// every Set and on a Get that finds them expired; there is no background sweeper.
type MemoryStore[V any] struct {
	mu         sync.Mutex
	m          map[string]memoryEntry[V]
	clock      Clock
	defaultTTL time.Duration
}

// NewMemoryStore creates a store whose entries live for defaultTTL.
// A nil clock uses the wall clock.
func NewMemoryStore[V any](defaultTTL time.Duration, clock Clock) *MemoryStore[V] {
	if clock == nil {
		clock = SystemClock
	}
	return &MemoryStore[V]{
		m:          make(map[string]memoryEntry[V]),
		clock:      clock,
		defaultTTL: defaultTTL,
	}
}

func (s *MemoryStore[V]) Set(ctx context.Context, key string, value V, opts ...SetOption) error {
	options := applyOptions(s.defaultTTL, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	s.evictLocked(now)

	if options.IfNotExist {
		if _, exists := s.m[key]; exists {
			return ErrConditionFailed
		}
	}

	s.m[key] = memoryEntry[V]{
		value:     value,
		createdAt: now,
		ttl:       options.Expiration,
	}
	return nil
}

func (s *MemoryStore[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.m[key]
	if !exists {
		return zero, ErrKeyNotFound
	}
	if entry.expired(s.clock.Now()) {
		delete(s.m, key)
		return zero, ErrKeyNotFound
	}
	return entry.value, nil
}

// Len returns the number of entries held, including expired ones not yet evicted.
func (s *MemoryStore[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *MemoryStore[V]) Close() error {
	s.mu.Lock()
	s.m = make(map[string]memoryEntry[V])
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore[V]) evictLocked(now time.Time) {
	for key, entry := range s.m {
		if entry.expired(now) {
			delete(s.m, key)
		}
	}
}
