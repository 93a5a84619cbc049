package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestErrorAlert(t *testing.T) {
	html := render(t, ErrorAlert("Bad <input>", "Try again", "FILE002"))
	assert.Contains(t, html, "Bad &lt;input&gt;")
	assert.Contains(t, html, "Try again")
	assert.Contains(t, html, "Code: FILE002")

	html = render(t, ErrorAlert("Oops", "", ""))
	assert.NotContains(t, html, "alert-action")
	assert.NotContains(t, html, "alert-code")
}

func TestPage(t *testing.T) {
	html := render(t, Page("a & b", UploadForm()))
	assert.Contains(t, html, "<title>a &amp; b</title>")
	assert.Contains(t, html, htmxScript)
	assert.Contains(t, html, `<div id="errors"></div>`)
	assert.Contains(t, html, `name="file"`)
}

func TestDataTable(t *testing.T) {
	res := core.Result{
		Columns:    []string{"name", "age"},
		Rows:       [][]string{{"<script>", "1"}},
		Page:       2,
		PageSize:   1,
		TotalRows:  3,
		TotalPages: 3,
		HasMore:    true,
	}
	q := core.Query{SortBy: "age", SortDirection: core.SortAsc, Page: 2, PageSize: 1, Search: "x\"y"}

	html := render(t, DataTable("csv_1", res, q))

	assert.Contains(t, html, `<section id="data-table" data-id="csv_1">`)
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `value="x&#34;y"`)

	// The active column toggles to desc, other columns start asc on page 1.
	assert.Contains(t, html, "sortBy=age&amp;sortDirection=desc")
	assert.Contains(t, html, "sortBy=name&amp;sortDirection=asc")
	assert.Contains(t, html, "age ▲")

	assert.Contains(t, html, "Page 2 of 3 (3 rows)")
	assert.Contains(t, html, `rel="prev"`)
	assert.Contains(t, html, `rel="next"`)
	assert.Contains(t, html, "/api/export/csv_1?")
}

func TestDataTable_Empty(t *testing.T) {
	res := core.Result{Columns: []string{"a", "b"}, Page: 1, PageSize: 20}

	html := render(t, DataTable("csv_2", res, core.Query{}))

	assert.Contains(t, html, `<td colspan="2" class="empty">No matching rows</td>`)
	assert.Contains(t, html, "Page 1 of 1 (0 rows)")
	assert.NotContains(t, html, `rel="prev"`)
	assert.NotContains(t, html, `rel="next"`)
	assert.Contains(t, html, `<option value="all" selected>All columns</option>`)
}

func TestSortHeader(t *testing.T) {
	q := core.Query{SortBy: "age", SortDirection: core.SortDesc, Page: 3, PageSize: 20, SearchColumn: core.AllColumns}

	html := render(t, sortHeader("csv_1", "age", q))
	assert.Contains(t, html, "age ▼")
	assert.Contains(t, html, "sortDirection=asc")
	assert.Contains(t, html, "page=1")

	html = render(t, sortHeader("csv_1", "name", q))
	assert.Contains(t, html, ">name</a>")
	assert.Contains(t, html, "sortBy=name&amp;sortDirection=asc")
}

func TestDataRow(t *testing.T) {
	html := render(t, dataRow([]string{"a&b", ""}))
	assert.Equal(t, `<tr><td>a&amp;b</td><td></td></tr>`, html)
}
