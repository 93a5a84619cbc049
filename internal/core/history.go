package core

// history.go keeps an optional Postgres log of uploads.
//
// Only upload metadata is written: the id, file name, counters and the
// client that sent it. Row data never leaves the table cache.

import (
	"context"
	"fmt"
	"time"
)

// UploadHistory receives a summary after every successful upload.
type UploadHistory interface {
	Record(ctx context.Context, summary UploadSummary) error
}

// HistoryEntry is one row of the upload log.
type HistoryEntry struct {
	ID          string    `json:"id"`
	FileName    string    `json:"fileName"`
	Columns     int       `json:"columns"`
	TotalRows   int       `json:"totalRows"`
	InvalidRows int       `json:"invalidRows"`
	Delimiter   string    `json:"delimiter"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS csv_upload_history (
	id           TEXT PRIMARY KEY,
	file_name    TEXT NOT NULL DEFAULT '',
	columns      INTEGER NOT NULL,
	total_rows   INTEGER NOT NULL,
	invalid_rows INTEGER NOT NULL,
	delimiter    TEXT NOT NULL,
	ip_address   TEXT NOT NULL DEFAULT '',
	user_agent   TEXT NOT NULL DEFAULT '',
	uploaded_at  TIMESTAMPTZ NOT NULL
)`

// HistoryStore writes and reads the upload log through any DBTX.
type HistoryStore struct {
	db  DBTX
	now func() time.Time
}

func NewHistoryStore(db DBTX) *HistoryStore {
	return &HistoryStore{db: db, now: time.Now}
}

// EnsureSchema creates the history table if it does not exist.
func (h *HistoryStore) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, historySchema); err != nil {
		return fmt.Errorf("create history table: %w", err)
	}
	return nil
}

// Record inserts one upload. The client address and User-Agent come from ctx.
func (h *HistoryStore) Record(ctx context.Context, summary UploadSummary) error {
	client := ClientFromContext(ctx)
	_, err := h.db.Exec(ctx,
		`INSERT INTO csv_upload_history
			(id, file_name, columns, total_rows, invalid_rows, delimiter, ip_address, user_agent, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		summary.ID,
		summary.FileName,
		len(summary.Columns),
		summary.TotalRows,
		summary.InvalidRows,
		summary.Delimiter,
		client.IP,
		client.UserAgent,
		h.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record upload %s: %w", summary.ID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (h *HistoryStore) Recent(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := h.db.Query(ctx,
		`SELECT id, file_name, columns, total_rows, invalid_rows, delimiter, ip_address, user_agent, uploaded_at
		FROM csv_upload_history
		ORDER BY uploaded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.FileName, &e.Columns, &e.TotalRows, &e.InvalidRows,
			&e.Delimiter, &e.IPAddress, &e.UserAgent, &e.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// PurgeOlderThan deletes entries uploaded before cutoff and returns how many went.
func (h *HistoryStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := h.db.Exec(ctx, `DELETE FROM csv_upload_history WHERE uploaded_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	return tag.RowsAffected(), nil
}
