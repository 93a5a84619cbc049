package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

const redisTimeout = 5 * time.Second

// newTableStore builds the configured cache backend and instruments it.
func newTableStore(ctx context.Context, cfg config.CacheConfig, reg prometheus.Registerer) (store.Store[*core.Table], error) {
	var backend store.Store[*core.Table]

	switch cfg.Backend {
	case "memory":
		backend = store.NewMemoryStore[*core.Table](cfg.TTL, store.SystemClock)
	case "freecache":
		backend = store.NewFreeCacheStore[*core.Table](cfg.FreeCacheSize, cfg.TTL, store.SystemClock)
	case "redis":
		rs, err := store.NewRedisStore[*core.Table](ctx, &store.RedisStoreOptions{
			Endpoint:     cfg.RedisAddr,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDB,
			KeyPrefix:    cfg.RedisKeyPrefix,
			DefaultTTL:   cfg.TTL,
			DialTimeout:  redisTimeout,
			ReadTimeout:  redisTimeout,
			WriteTimeout: redisTimeout,
		})
		if err != nil {
			return nil, err
		}
		backend = rs
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}

	metrics, err := store.NewObservableMetrics("csvview_table_cache", reg)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	slog.Info("table cache ready", "backend", cfg.Backend, "ttl", cfg.TTL.String())
	return store.NewObservableStore[*core.Table](backend, metrics), nil
}
