package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/csvview/internal/config"
	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/JonMunkholm/csvview/internal/logging"
	"github.com/JonMunkholm/csvview/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"cache_backend", cfg.Cache.Backend,
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"history_enabled", cfg.History.Enabled(),
	)
	slog.Debug("effective configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tables, err := newTableStore(ctx, cfg.Cache, registry)
	if err != nil {
		return err
	}

	var (
		history *core.HistoryStore
		pool    *pgxpool.Pool
	)
	if cfg.History.Enabled() {
		pool, err = connectHistory(ctx, cfg.History)
		if err != nil {
			_ = tables.Close()
			return err
		}
		defer pool.Close()

		history = core.NewHistoryStore(pool)
		if err := history.EnsureSchema(ctx); err != nil {
			_ = tables.Close()
			return err
		}
	}

	service := core.NewService(core.NewTableCache(tables), uploadHistory(history), core.ServiceConfig{
		MaxUploadSize:     cfg.Upload.MaxFileSize,
		MaxConcurrent:     cfg.Upload.MaxConcurrent,
		MaxWaitTime:       cfg.Upload.MaxWaitTime,
		ErrorPreviewLimit: cfg.Upload.ErrorPreview,
		MaxPageSize:       cfg.Query.MaxPageSize,
		Language:          cfg.Query.LanguageTag(),
	})
	defer func() {
		if err := service.Close(); err != nil {
			slog.Warn("failed to close table cache", "error", err)
		}
	}()

	opts := web.Options{Config: cfg, Registry: registry}
	if history != nil {
		opts.History = history
	}
	server, err := web.NewServer(service, opts)
	if err != nil {
		return err
	}

	eg, egctx := errgroup.WithContext(ctx)

	if history != nil {
		eg.Go(func() error {
			core.StartRetentionScheduler(egctx, history, core.RetentionConfig{
				Retention:     cfg.History.Retention,
				CheckInterval: cfg.History.CheckInterval,
			})
			return nil
		})
	}

	eg.Go(func() error {
		if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for active uploads to complete (with timeout)
		if status := service.UploadLimiterStatus(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := service.WaitForUploads(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		return server.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// uploadHistory avoids handing the service a typed nil interface.
func uploadHistory(h *core.HistoryStore) core.UploadHistory {
	if h == nil {
		return nil
	}
	return h
}

func connectHistory(ctx context.Context, cfg config.HistoryConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	poolConfig.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("connected to history database", "max_conns", cfg.MaxConns)
	return pool, nil
}
