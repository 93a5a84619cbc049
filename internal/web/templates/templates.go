// Package templates renders the HTML views of the web server.
//
// Components are plain templ.Component values so handlers render them the
// same way whether a full page or an HTMX partial is requested.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/a-h/templ"
)

// htmxScript is loaded by full pages; partials rely on the page having it.
const htmxScript = "https://unpkg.com/htmx.org@1.9.12"

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// Page wraps body in a complete HTML document.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script src="%s"></script>
</head>
<body>
<div id="errors"></div>
<main id="content">
`, templ.EscapeString(title), htmxScript)
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</main>\n</body>\n</html>\n")
		return err
	})
}

// UploadForm renders the file picker. A successful HTMX upload answers with
// HX-Redirect to the table view.
func UploadForm() templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<form id="upload" method="post" action="/api/upload" enctype="multipart/form-data" hx-post="/api/upload" hx-encoding="multipart/form-data">
<input type="file" name="file" accept=".csv,text/csv" required>
<button type="submit">Upload</button>
</form>`)
		return err
	})
}

// DataTable renders one page of a query result with sortable headers,
// a search form and pagination. Every link re-requests /view/{id} with
// the changed query; HTMX swaps the table in place.
func DataTable(id string, res core.Result, q core.Query) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		q = q.Normalize(0)

		if err := writeString(w, fmt.Sprintf(`<section id="data-table" data-id="%s">`, templ.EscapeString(id))); err != nil {
			return err
		}
		if err := searchForm(id, res.Columns, q).Render(ctx, w); err != nil {
			return err
		}

		if err := writeString(w, `<table><thead><tr>`); err != nil {
			return err
		}
		for _, col := range res.Columns {
			if err := sortHeader(id, col, q).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := writeString(w, `</tr></thead><tbody>`); err != nil {
			return err
		}

		if len(res.Rows) == 0 {
			if err := emptyRow(len(res.Columns)).Render(ctx, w); err != nil {
				return err
			}
		}
		for _, row := range res.Rows {
			if err := dataRow(row).Render(ctx, w); err != nil {
				return err
			}
		}
		if err := writeString(w, `</tbody></table>`); err != nil {
			return err
		}

		if err := pagination(id, res, q).Render(ctx, w); err != nil {
			return err
		}
		return writeString(w, `</section>`)
	})
}

// sortHeader links col to an ascending sort, or flips the direction when
// col is already the sort column.
func sortHeader(id, col string, q core.Query) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		next := q
		next.Page = 1
		next.SortBy = col
		next.SortDirection = core.SortAsc
		indicator := ""
		if q.SortBy == col {
			next.SortDirection = q.SortDirection.Toggle()
			indicator = " ▲"
			if q.SortDirection == core.SortDesc {
				indicator = " ▼"
			}
		}
		return writeString(w, fmt.Sprintf(`<th><a %s>%s%s</a></th>`,
			linkAttrs(id, next), templ.EscapeString(col), indicator))
	})
}

func dataRow(cells []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<tr>`)
		for _, c := range cells {
			fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(c))
		}
		b.WriteString(`</tr>`)
		return writeString(w, b.String())
	})
}

func emptyRow(columns int) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeString(w, fmt.Sprintf(`<tr><td colspan="%d" class="empty">No matching rows</td></tr>`, max(1, columns)))
	})
}

func searchForm(id string, columns []string, q core.Query) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		target := "/view/" + templ.EscapeString(id)
		var b strings.Builder
		fmt.Fprintf(&b, `<form method="get" action="%s" hx-get="%s" hx-target="#data-table" hx-swap="outerHTML">`, target, target)
		fmt.Fprintf(&b, `<input type="search" name="search" value="%s" placeholder="Search" hx-trigger="keyup changed delay:300ms" hx-get="%s" hx-target="#data-table" hx-swap="outerHTML" hx-include="closest form">`,
			templ.EscapeString(q.Search), target)
		b.WriteString(`<select name="searchColumn">`)
		if err := writeString(w, b.String()); err != nil {
			return err
		}

		if err := columnOption(core.AllColumns, "All columns", q.SearchColumn == core.AllColumns).Render(ctx, w); err != nil {
			return err
		}
		for _, col := range columns {
			if err := columnOption(col, col, q.SearchColumn == col).Render(ctx, w); err != nil {
				return err
			}
		}

		b.Reset()
		b.WriteString(`</select>`)
		fmt.Fprintf(&b, `<input type="hidden" name="sortBy" value="%s">`, templ.EscapeString(q.SortBy))
		fmt.Fprintf(&b, `<input type="hidden" name="sortDirection" value="%s">`, templ.EscapeString(string(q.SortDirection)))
		fmt.Fprintf(&b, `<input type="hidden" name="pageSize" value="%d">`, q.PageSize)
		b.WriteString(`<button type="submit">Search</button></form>`)
		return writeString(w, b.String())
	})
}

func columnOption(value, label string, selected bool) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		sel := ""
		if selected {
			sel = " selected"
		}
		return writeString(w, fmt.Sprintf(`<option value="%s"%s>%s</option>`,
			templ.EscapeString(value), sel, templ.EscapeString(label)))
	})
}

func pagination(id string, res core.Result, q core.Query) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		pages := max(1, res.TotalPages)
		if err := writeString(w, fmt.Sprintf(`<nav class="pagination"><span>Page %d of %d (%d rows)</span>`, res.Page, pages, res.TotalRows)); err != nil {
			return err
		}
		if res.Page > 1 {
			prev := q
			prev.Page = min(res.Page-1, pages)
			if err := pageLink("prev", "Previous", id, prev).Render(ctx, w); err != nil {
				return err
			}
		}
		if res.HasMore {
			next := q
			next.Page = res.Page + 1
			if err := pageLink("next", "Next", id, next).Render(ctx, w); err != nil {
				return err
			}
		}
		return writeString(w, fmt.Sprintf(` <a href="/api/export/%s?%s" download>Export CSV</a></nav>`,
			templ.EscapeString(id), templ.EscapeString(q.Values().Encode())))
	})
}

func pageLink(rel, label, id string, q core.Query) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return writeString(w, fmt.Sprintf(` <a rel="%s" %s>%s</a>`, rel, linkAttrs(id, q), label))
	})
}

// linkAttrs returns href and hx-get attributes pointing at the view of q.
func linkAttrs(id string, q core.Query) string {
	href := templ.EscapeString("/view/" + id + "?" + q.Values().Encode())
	return fmt.Sprintf(`href="%s" hx-get="%s" hx-target="#data-table" hx-swap="outerHTML" hx-push-url="true"`, href, href)
}

func writeString(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}
