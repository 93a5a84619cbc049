package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// AllColumns is the search column sentinel that matches every cell of a row.
const AllColumns = "all"

// ErrorPreviewLimit is the default number of row diagnostics surfaced to clients.
const ErrorPreviewLimit = 10

// Table is the immutable result of parsing an upload.
// Every row in Rows has exactly len(Columns) cells and
// len(Rows)+InvalidRows == TotalRows.
type Table struct {
	Columns     []string   `json:"columns" msgpack:"columns"`
	Rows        [][]string `json:"rows" msgpack:"rows"`
	TotalRows   int        `json:"totalRows" msgpack:"totalRows"`
	InvalidRows int        `json:"invalidRows" msgpack:"invalidRows"`
	Delimiter   string     `json:"delimiter" msgpack:"delimiter"`
	Errors      []string   `json:"errors" msgpack:"errors"`
}

// ColumnIndex returns the position of the first column named name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// DelimiterRune returns the delimiter the table was parsed with.
func (t *Table) DelimiterRune() rune {
	if t.Delimiter == ";" {
		return ';'
	}
	return ','
}

// ErrorPreview returns at most limit row diagnostics.
func (t *Table) ErrorPreview(limit int) []string {
	if limit <= 0 || len(t.Errors) <= limit {
		return t.Errors
	}
	return t.Errors[:limit]
}

// SortDirection orders sorted rows.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Toggle returns the opposite direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortDesc {
		return SortAsc
	}
	return SortDesc
}

// ParseSortDirection maps anything other than "desc" to ascending.
func ParseSortDirection(s string) SortDirection {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// Query describes one view over a table: filter, then sort, then paginate.
type Query struct {
	Search        string        `json:"search"`
	SearchColumn  string        `json:"searchColumn"`
	SortBy        string        `json:"sortBy"`
	SortDirection SortDirection `json:"sortDirection"`
	Page          int           `json:"page"`
	PageSize      int           `json:"pageSize"`
}

// Result is one page of a query over a table.
type Result struct {
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Page       int        `json:"page"`
	PageSize   int        `json:"pageSize"`
	TotalRows  int        `json:"totalRows"`
	TotalPages int        `json:"totalPages"`
	HasMore    bool       `json:"hasMore"`
}

// UploadSummary is returned after a successful ingest.
// TotalRows, InvalidRows and Errors describe the whole upload, not a page.
type UploadSummary struct {
	ID          string     `json:"id"`
	FileName    string     `json:"fileName,omitempty"`
	Columns     []string   `json:"columns"`
	TotalRows   int        `json:"totalRows"`
	InvalidRows int        `json:"invalidRows"`
	Delimiter   string     `json:"delimiter"`
	Errors      []string   `json:"errors"`
	Rows        [][]string `json:"rows,omitempty"`
}
