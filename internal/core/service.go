package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/text/language"
)

// ServiceConfig holds the tunables of a Service. Zero values fall back to defaults.
type ServiceConfig struct {
	MaxUploadSize     int64
	MaxConcurrent     int
	MaxWaitTime       time.Duration
	ErrorPreviewLimit int
	MaxPageSize       int
	Language          language.Tag
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.MaxUploadSize <= 0 {
		c.MaxUploadSize = DefaultMaxUploadSize
	}
	if c.ErrorPreviewLimit <= 0 {
		c.ErrorPreviewLimit = ErrorPreviewLimit
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = MaxPageSize
	}
	return c
}

// Service ties parsing, the table cache and querying together.
// It is what the HTTP layer and the CLI talk to.
type Service struct {
	cfg       ServiceConfig
	cache     *TableCache
	evaluator *Evaluator
	limiter   *UploadLimiter
	history   UploadHistory
}

// NewService creates a Service over cache. history may be nil.
func NewService(cache *TableCache, history UploadHistory, cfg ServiceConfig) *Service {
	cfg = cfg.withDefaults()
	return &Service{
		cfg:       cfg,
		cache:     cache,
		evaluator: NewEvaluator(cfg.Language, cfg.MaxPageSize),
		limiter:   NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		history:   history,
	}
}

// MaxUploadSize returns the configured upload ceiling in bytes.
func (s *Service) MaxUploadSize() int64 {
	return s.cfg.MaxUploadSize
}

// IngestOptions tunes a single upload.
type IngestOptions struct {
	// PreviewRows includes the first PreviewRows rows in the summary.
	PreviewRows int
}

// Ingest parses r, stores the table and returns its summary.
// The summary carries the first ErrorPreviewLimit row diagnostics only.
func (s *Service) Ingest(ctx context.Context, fileName string, r io.Reader, opts IngestOptions) (UploadSummary, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return UploadSummary{}, err
	}
	defer s.limiter.Release()

	start := time.Now()

	t, err := ParseReader(r, s.cfg.MaxUploadSize)
	if err != nil {
		return UploadSummary{}, err
	}

	id, err := s.cache.Store(ctx, t)
	if err != nil {
		return UploadSummary{}, err
	}

	summary := UploadSummary{
		ID:          id,
		FileName:    fileName,
		Columns:     t.Columns,
		TotalRows:   t.TotalRows,
		InvalidRows: t.InvalidRows,
		Delimiter:   t.Delimiter,
		Errors:      t.ErrorPreview(s.cfg.ErrorPreviewLimit),
	}
	if opts.PreviewRows > 0 {
		summary.Rows = s.evaluator.Evaluate(t, Query{Page: 1, PageSize: opts.PreviewRows}).Rows
	}

	slog.InfoContext(ctx, "upload parsed",
		"id", id,
		"file", fileName,
		"columns", len(t.Columns),
		"rows", t.TotalRows,
		"invalid_rows", t.InvalidRows,
		"delimiter", t.Delimiter,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.history != nil {
		if err := s.history.Record(ctx, summary); err != nil {
			slog.WarnContext(ctx, "failed to record upload history", "id", id, "error", err)
		}
	}

	return summary, nil
}

// Query evaluates q against the table stored under id.
func (s *Service) Query(ctx context.Context, id string, q Query) (Result, error) {
	t, err := s.cache.Get(ctx, id)
	if err != nil {
		return Result{}, err
	}
	return s.evaluator.Evaluate(t, q), nil
}

// Export writes the header and every row matching q, sorted but not paginated,
// using the table's own delimiter.
func (s *Service) Export(ctx context.Context, id string, q Query, w io.Writer) error {
	t, err := s.cache.Get(ctx, id)
	if err != nil {
		return err
	}

	delim := t.DelimiterRune()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintln(bw, JoinLine(t.Columns, delim)); err != nil {
		return err
	}
	for _, row := range s.evaluator.Rows(t, q) {
		if _, err := fmt.Fprintln(bw, JoinLine(row, delim)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// UploadLimiterStatus returns the current state of the upload limiter.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases the table cache.
func (s *Service) Close() error {
	return s.cache.Close()
}
