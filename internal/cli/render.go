package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/JonMunkholm/csvview/internal/core"
	"github.com/jedib0t/go-pretty/v6/table"
)

var formats = []string{"table", "json", "csv", "md"}

// renderResult writes one page of rows in the given format. Only the table
// format carries the paging footer; the others are meant for piping.
func renderResult(w io.Writer, upload core.UploadSummary, res core.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "csv":
		newTableWriter(w, res).RenderCSV()
		return nil
	case "md":
		newTableWriter(w, res).RenderMarkdown()
		return nil
	default:
		if len(res.Rows) == 0 {
			_, _ = fmt.Fprintln(w, "(no matching rows)")
		} else {
			t := newTableWriter(w, res)
			t.SetStyle(table.StyleLight)
			t.Render()
		}
		_, err := fmt.Fprintln(w, footer(upload, res))
		return err
	}
}

func newTableWriter(w io.Writer, res core.Result) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(res.Columns))
	for i, col := range res.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, row := range res.Rows {
		r := make(table.Row, len(row))
		for i, c := range row {
			r[i] = c
		}
		t.AppendRow(r)
	}
	return t
}

// footer summarises paging and the upload totals, e.g.
// "Page 1 of 3 (45 matching rows, 46 total, 1 invalid)".
func footer(upload core.UploadSummary, res core.Result) string {
	return fmt.Sprintf("Page %d of %d (%d matching rows, %d total, %d invalid)",
		res.Page, max(1, res.TotalPages), res.TotalRows, upload.TotalRows, upload.InvalidRows)
}

// renderDiagnostics writes the row errors of an upload, if any.
func renderDiagnostics(w io.Writer, upload core.UploadSummary) {
	if upload.InvalidRows == 0 {
		return
	}
	_, _ = fmt.Fprintf(w, "%d invalid rows skipped:\n", upload.InvalidRows)
	for _, e := range upload.Errors {
		_, _ = fmt.Fprintf(w, "  %s\n", e)
	}
	if more := upload.InvalidRows - len(upload.Errors); more > 0 {
		_, _ = fmt.Fprintf(w, "  ... and %d more\n", more)
	}
}
