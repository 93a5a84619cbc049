package core

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// parseNumber reports whether the whole trimmed value is a float literal.
// Partial parses ("12abc"), locale separators ("1,5") and NaN are rejected.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// cellComparator orders two cell values: numerically when both parse as
// numbers, otherwise by locale collation with a byte-order tiebreak.
//
// A collate.Collator keeps internal buffers, so a comparator belongs to a
// single evaluation and must not be shared between goroutines.
type cellComparator struct {
	collator *collate.Collator
}

func newCellComparator(lang language.Tag) *cellComparator {
	return &cellComparator{collator: collate.New(lang)}
}

func (c *cellComparator) compare(a, b string) int {
	if x, ok := parseNumber(a); ok {
		if y, ok := parseNumber(b); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			default:
				return 0
			}
		}
	}

	if r := c.collator.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
