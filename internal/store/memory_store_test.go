package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SetGet(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore[string](time.Hour, clock)

	require.NoError(t, s.Set(ctx, "a", "alpha"))

	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "alpha", v)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore_TTLBoundary(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore[int](time.Hour, clock)

	require.NoError(t, s.Set(ctx, "k", 1))

	clock.Advance(time.Hour)
	v, err := s.Get(ctx, "k")
	require.NoError(t, err, "entry is visible at exactly the TTL")
	assert.Equal(t, 1, v)

	clock.Advance(time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
	assert.Equal(t, 0, s.Len(), "expired get removes the entry")
}

func TestMemoryStore_EvictsOnSet(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore[int](time.Hour, clock)

	require.NoError(t, s.Set(ctx, "old1", 1))
	require.NoError(t, s.Set(ctx, "old2", 2))
	clock.Advance(61 * time.Minute)

	require.NoError(t, s.Set(ctx, "new", 3))
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_IfNotExist(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore[string](time.Hour, clock)

	require.NoError(t, s.Set(ctx, "k", "first", WithIfNotExist()))
	assert.ErrorIs(t, s.Set(ctx, "k", "second", WithIfNotExist()), ErrConditionFailed)

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	clock.Advance(2 * time.Hour)
	assert.NoError(t, s.Set(ctx, "k", "third", WithIfNotExist()), "expired key can be reused")
}

func TestMemoryStore_WithExpiration(t *testing.T) {
	ctx := context.Background()
	clock := NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s := NewMemoryStore[string](time.Hour, clock)

	require.NoError(t, s.Set(ctx, "short", "v", WithExpiration(time.Minute)))
	clock.Advance(2 * time.Minute)

	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore[int](time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			assert.NoError(t, s.Set(ctx, key, i))
			v, err := s.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, i, v)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}
