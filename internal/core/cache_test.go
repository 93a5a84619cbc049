package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/csvview/internal/store"
)

func newTestCache(t *testing.T) (*TableCache, *store.ManualClock) {
	t.Helper()
	clock := store.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewTableCache(store.NewMemoryStore[*Table](DefaultCacheTTL, clock)), clock
}

func TestTableCache_StoreAndGet(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	tbl := &Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}, TotalRows: 1}

	id, err := cache.Store(ctx, tbl)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if !strings.HasPrefix(id, "csv_") || len(id) != len("csv_")+32 {
		t.Errorf("id = %q, want csv_ followed by 32 hex characters", id)
	}

	got, err := cache.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != tbl {
		t.Errorf("Get() returned a different table")
	}
}

func TestTableCache_IDsAreUnique(t *testing.T) {
	cache, _ := newTestCache(t)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		id, err := cache.Store(context.Background(), &Table{})
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestTableCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(t)
	ctx := context.Background()

	id, err := cache.Store(ctx, &Table{Columns: []string{"a"}})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	clock.Advance(DefaultCacheTTL)
	if _, err := cache.Get(ctx, id); err != nil {
		t.Errorf("Get() at exactly the TTL = %v, want nil", err)
	}

	clock.Advance(time.Second)
	if _, err := cache.Get(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after the TTL = %v, want ErrNotFound", err)
	}
}

func TestTableCache_UnknownID(t *testing.T) {
	cache, _ := newTestCache(t)

	_, err := cache.Get(context.Background(), "csv_missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if MapError(err).Code != "DATA001" {
		t.Errorf("MapError code = %q, want DATA001", MapError(err).Code)
	}
}

func TestTableCache_RetriesOnCollision(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	ids := []string{"csv_same", "csv_same", "csv_other"}
	cache.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	first, err := cache.Store(ctx, &Table{Columns: []string{"first"}})
	if err != nil || first != "csv_same" {
		t.Fatalf("Store() = %q, %v", first, err)
	}

	second, err := cache.Store(ctx, &Table{Columns: []string{"second"}})
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if second != "csv_other" {
		t.Errorf("second id = %q, want csv_other", second)
	}

	got, _ := cache.Get(ctx, "csv_same")
	if got.Columns[0] != "first" {
		t.Errorf("colliding Store overwrote the live entry")
	}
}

func TestTableCache_GivesUpAfterRepeatedCollisions(t *testing.T) {
	cache, _ := newTestCache(t)
	cache.newID = func() string { return "csv_fixed" }

	if _, err := cache.Store(context.Background(), &Table{}); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if _, err := cache.Store(context.Background(), &Table{}); err == nil {
		t.Error("Store() with exhausted ids succeeded, want error")
	}
}

type failingStore struct{}

func (failingStore) Set(context.Context, string, *Table, ...store.SetOption) error {
	return errors.New("backend down")
}

func (failingStore) Get(context.Context, string) (*Table, error) {
	return nil, errors.New("backend down")
}

func (failingStore) Close() error { return nil }

func TestTableCache_BackendErrors(t *testing.T) {
	cache := NewTableCache(failingStore{})

	if _, err := cache.Store(context.Background(), &Table{}); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Store() error = %v, want backend error", err)
	}
	if _, err := cache.Get(context.Background(), "csv_x"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want backend error", err)
	}
}
