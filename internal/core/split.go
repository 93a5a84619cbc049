package core

import "strings"

// SplitLine splits one line into trimmed cells.
//
// A double quote toggles quoted mode, and inside quoted mode a doubled quote
// produces a literal quote. The delimiter only separates cells outside quoted
// mode. An unterminated quote runs to the end of the line and is not an error.
func SplitLine(line string, delim rune) []string {
	var (
		cells    []string
		current  strings.Builder
		inQuotes bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if ch == '"' {
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				current.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
			continue
		}

		if ch == delim && !inQuotes {
			cells = append(cells, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}

		current.WriteRune(ch)
	}

	return append(cells, strings.TrimSpace(current.String()))
}

// JoinLine is the inverse of SplitLine for already-trimmed cells.
// Cells containing the delimiter, a quote, or surrounding whitespace are quoted.
func JoinLine(cells []string, delim rune) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteRune(delim)
		}
		if needsQuoting(cell, delim) {
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(cell, `"`, `""`))
			b.WriteByte('"')
			continue
		}
		b.WriteString(cell)
	}
	return b.String()
}

func needsQuoting(cell string, delim rune) bool {
	if cell == "" {
		return false
	}
	if strings.ContainsRune(cell, delim) || strings.ContainsRune(cell, '"') {
		return true
	}
	return strings.TrimSpace(cell) != cell
}

// DetectDelimiter returns ';' when the header line contains one and ',' otherwise.
// Tabs and pipes are not detected.
func DetectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, ';') {
		return ';'
	}
	return ','
}
