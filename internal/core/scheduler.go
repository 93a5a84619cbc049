package core

// scheduler.go runs the upload history retention job.
//
// The job runs once on start and then every CheckInterval until the context
// is cancelled. A failed run is logged and retried on the next tick; it never
// stops the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds the history retention settings.
type RetentionConfig struct {
	Retention     time.Duration // Entries older than this are purged
	CheckInterval time.Duration // How often to run
}

// HistoryPurger deletes history entries older than a cutoff.
type HistoryPurger interface {
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StartRetentionScheduler blocks, purging old history until ctx is cancelled.
func StartRetentionScheduler(ctx context.Context, purger HistoryPurger, cfg RetentionConfig) {
	slog.Info("history retention scheduler started",
		"retention", cfg.Retention.String(),
		"interval", cfg.CheckInterval.String(),
	)

	runRetentionJob(ctx, purger, cfg.Retention)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("history retention scheduler stopped")
			return
		case <-ticker.C:
			runRetentionJob(ctx, purger, cfg.Retention)
		}
	}
}

func runRetentionJob(ctx context.Context, purger HistoryPurger, retention time.Duration) {
	start := time.Now()

	purged, err := purger.PurgeOlderThan(ctx, start.Add(-retention))
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}

	slog.Info("purged upload history",
		"entries_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
