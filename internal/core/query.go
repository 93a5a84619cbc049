package core

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Page size bounds used by the HTTP API and the view controller.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalize applies the query floors: page and page size are at least 1, the
// page size is capped at maxPageSize when maxPageSize is positive, the
// direction is asc unless it is exactly desc, and an empty search column
// means every column.
func (q Query) Normalize(maxPageSize int) Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 1
	}
	if maxPageSize > 0 && q.PageSize > maxPageSize {
		q.PageSize = maxPageSize
	}
	q.SortDirection = ParseSortDirection(string(q.SortDirection))
	if q.SearchColumn == "" {
		q.SearchColumn = AllColumns
	}
	return q
}

// Values encodes the query as URL parameters. QueryFromValues is its inverse.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	v.Set("sortDirection", string(ParseSortDirection(string(q.SortDirection))))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.SearchColumn != "" {
		v.Set("searchColumn", q.SearchColumn)
	}
	return v
}

// QueryFromValues decodes URL parameters, applying the API defaults
// (page 1, page size 20, ascending, all columns) for missing or malformed values.
func QueryFromValues(v url.Values) Query {
	q := Query{
		Search:        v.Get("search"),
		SearchColumn:  v.Get("searchColumn"),
		SortBy:        v.Get("sortBy"),
		SortDirection: ParseSortDirection(v.Get("sortDirection")),
		Page:          intValue(v.Get("page"), 1),
		PageSize:      intValue(v.Get("pageSize"), DefaultPageSize),
	}
	if q.SearchColumn == "" {
		q.SearchColumn = AllColumns
	}
	return q
}

func intValue(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return i
}

// Evaluator runs queries against parsed tables.
// It is stateless and safe for concurrent use.
type Evaluator struct {
	lang        language.Tag
	maxPageSize int
}

// NewEvaluator returns an evaluator collating strings for lang.
// A positive maxPageSize caps the page size of every query.
func NewEvaluator(lang language.Tag, maxPageSize int) *Evaluator {
	return &Evaluator{lang: lang, maxPageSize: maxPageSize}
}

var defaultEvaluator = NewEvaluator(language.Und, 0)

// Evaluate runs q over t without a page size ceiling.
func Evaluate(t *Table, q Query) Result {
	return defaultEvaluator.Evaluate(t, q)
}

// Evaluate filters, sorts and paginates, in that order. The table is not modified.
func (e *Evaluator) Evaluate(t *Table, q Query) Result {
	q = q.Normalize(e.maxPageSize)
	rows := e.Rows(t, q)

	total := len(rows)
	start := total
	if q.Page-1 <= total/q.PageSize {
		start = min((q.Page-1)*q.PageSize, total)
	}
	end := total
	if total-start > q.PageSize {
		end = start + q.PageSize
	}

	page := make([][]string, end-start)
	copy(page, rows[start:end])

	return Result{
		Columns:    t.Columns,
		Rows:       page,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalRows:  total,
		TotalPages: pageCount(total, q.PageSize),
		HasMore:    end < total,
	}
}

// Rows returns every row matching q in sorted order, without pagination.
func (e *Evaluator) Rows(t *Table, q Query) [][]string {
	rows := filterRows(t, q.Search, q.SearchColumn)
	e.sortRows(t, rows, q.SortBy, ParseSortDirection(string(q.SortDirection)))
	return rows
}

// filterRows returns a new slice, so later sorting never reorders t.Rows.
func filterRows(t *Table, search, column string) [][]string {
	folder := cases.Fold()
	term := folder.String(strings.TrimSpace(search))

	out := make([][]string, 0, len(t.Rows))
	if term == "" {
		return append(out, t.Rows...)
	}

	idx := -1
	if column != AllColumns {
		idx = t.ColumnIndex(column)
	}

	for _, row := range t.Rows {
		if idx >= 0 {
			if strings.Contains(folder.String(cell(row, idx)), term) {
				out = append(out, row)
			}
			continue
		}
		for _, c := range row {
			if strings.Contains(folder.String(c), term) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func (e *Evaluator) sortRows(t *Table, rows [][]string, sortBy string, dir SortDirection) {
	if sortBy == "" {
		return
	}
	idx := t.ColumnIndex(sortBy)
	if idx < 0 {
		return
	}

	cmp := newCellComparator(e.lang)
	sort.SliceStable(rows, func(i, j int) bool {
		r := cmp.compare(cell(rows[i], idx), cell(rows[j], idx))
		if dir == SortDesc {
			return r > 0
		}
		return r < 0
	})
}

func pageCount(total, size int) int {
	n := total / size
	if total%size != 0 {
		n++
	}
	return n
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
