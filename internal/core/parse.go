package core

import (
	"fmt"
	"strings"
)

// Parse turns decoded text into a Table.
//
// Blank lines are dropped before anything else, so row numbers in the
// diagnostics count non-blank lines with the header as line 1. Rows whose
// cell count differs from the header are excluded and recorded, they never
// abort the parse.
func Parse(text string) (*Table, error) {
	lines := nonBlankLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	delim := DetectDelimiter(lines[0])
	columns := SplitLine(lines[0], delim)
	if !hasNamedColumn(columns) {
		return nil, ErrEmptyHeader
	}

	t := &Table{
		Columns:   columns,
		Rows:      make([][]string, 0, len(lines)-1),
		Delimiter: string(delim),
		Errors:    []string{},
	}

	for i, line := range lines[1:] {
		cells := SplitLine(line, delim)
		if len(cells) != len(columns) {
			t.InvalidRows++
			t.Errors = append(t.Errors, RowError{
				Line:     i + 2,
				Expected: len(columns),
				Found:    len(cells),
			}.String())
			continue
		}
		t.Rows = append(t.Rows, cells)
	}

	t.TotalRows = len(t.Rows) + t.InvalidRows
	return t, nil
}

// RowError describes a data row whose cell count does not match the header.
type RowError struct {
	Line     int
	Expected int
	Found    int
}

func (e RowError) String() string {
	return fmt.Sprintf("Row %d: expected %d columns, found %d", e.Line, e.Expected, e.Found)
}

// nonBlankLines splits on \r\n, \n and lone \r and drops lines that are
// empty after trimming.
func nonBlankLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	raw := strings.Split(text, "\n")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func hasNamedColumn(columns []string) bool {
	for _, c := range columns {
		if c != "" {
			return true
		}
	}
	return false
}
