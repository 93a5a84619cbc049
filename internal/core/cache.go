package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/csvview/internal/store"
	"github.com/google/uuid"
)

// DefaultCacheTTL is how long a parsed table stays retrievable.
const DefaultCacheTTL = time.Hour

// idAttempts bounds how often Store retries after drawing an id that is
// already live. With random UUIDs a retry is practically never needed.
const idAttempts = 5

// TableCache hands out ids for parsed tables and resolves them again.
// Expiry and eviction belong to the underlying store.
type TableCache struct {
	store store.Store[*Table]
	newID func() string
}

// NewTableCache wraps s. Entries are written with the store's default TTL.
func NewTableCache(s store.Store[*Table]) *TableCache {
	return &TableCache{store: s, newID: NewTableID}
}

// NewTableID returns a fresh "csv_" prefixed random identifier.
func NewTableID() string {
	return "csv_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Store inserts t under a new id that does not collide with any live entry.
func (c *TableCache) Store(ctx context.Context, t *Table) (string, error) {
	for i := 0; i < idAttempts; i++ {
		id := c.newID()
		err := c.store.Set(ctx, id, t, store.WithIfNotExist())
		if err == nil {
			return id, nil
		}
		if errors.Is(err, store.ErrValueTooLarge) {
			return "", fmt.Errorf("%w: file too large for the table cache: %v", ErrUnsupportedInput, err)
		}
		if !errors.Is(err, store.ErrConditionFailed) {
			return "", fmt.Errorf("cache store: %w", err)
		}
	}
	return "", fmt.Errorf("cache store: no free id after %d attempts", idAttempts)
}

// Get returns the table stored under id, or ErrNotFound when it is absent
// or expired.
func (c *TableCache) Get(ctx context.Context, id string) (*Table, error) {
	t, err := c.store.Get(ctx, id)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	return t, nil
}

// Close releases the underlying store.
func (c *TableCache) Close() error {
	return c.store.Close()
}
