package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse_SemicolonWithInvalidRow(t *testing.T) {
	text := "name;age\nAnna;30\nBen\nCara;22\n"

	tbl, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if tbl.Delimiter != ";" {
		t.Errorf("Delimiter = %q, want %q", tbl.Delimiter, ";")
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"name", "age"}) {
		t.Errorf("Columns = %q", tbl.Columns)
	}
	wantRows := [][]string{{"Anna", "30"}, {"Cara", "22"}}
	if !reflect.DeepEqual(tbl.Rows, wantRows) {
		t.Errorf("Rows = %q, want %q", tbl.Rows, wantRows)
	}
	if tbl.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", tbl.TotalRows)
	}
	if tbl.InvalidRows != 1 {
		t.Errorf("InvalidRows = %d, want 1", tbl.InvalidRows)
	}
	wantErrs := []string{"Row 3: expected 2 columns, found 1"}
	if !reflect.DeepEqual(tbl.Errors, wantErrs) {
		t.Errorf("Errors = %q, want %q", tbl.Errors, wantErrs)
	}
}

func TestParse_LineEndingsAndBlankLines(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"crlf", "a,b\r\n1,2\r\n\r\n3,4\r\n"},
		{"lone cr", "a,b\r1,2\r\r3,4"},
		{"whitespace lines", "a,b\n   \n1,2\n\t\n3,4\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			want := [][]string{{"1", "2"}, {"3", "4"}}
			if !reflect.DeepEqual(tbl.Rows, want) {
				t.Errorf("Rows = %q, want %q", tbl.Rows, want)
			}
		})
	}
}

func TestParse_RowNumbersCountNonBlankLines(t *testing.T) {
	tbl, err := Parse("a,b\n\n\n1\n1,2\n1,2,3\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := []string{
		"Row 2: expected 2 columns, found 1",
		"Row 4: expected 2 columns, found 3",
	}
	if !reflect.DeepEqual(tbl.Errors, want) {
		t.Errorf("Errors = %q, want %q", tbl.Errors, want)
	}
}

func TestParse_Failures(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"empty", "", ErrEmptyInput},
		{"only blank lines", "\n \r\n\t\n", ErrEmptyInput},
		{"header of empty cells", ";;\n1;2;3\n", ErrEmptyHeader},
		{"quoted empty header", `""` + "\nx\n", ErrEmptyHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	tbl, err := Parse("a,b,c")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tbl.TotalRows != 0 || len(tbl.Rows) != 0 || tbl.InvalidRows != 0 {
		t.Errorf("got %d total, %d rows, %d invalid; want all zero", tbl.TotalRows, len(tbl.Rows), tbl.InvalidRows)
	}
}

func TestParse_Invariants(t *testing.T) {
	inputs := []string{
		"a,b\n1,2\n3\n4,5,6\n7,8\n",
		"x;y;z\n1;2;3\n\"a;b\";c;d\n1;2\n",
		"only\nv1\nv2,extra\n",
		"h1,h2\n\"unterminated,x\n1,2\n",
	}

	for _, in := range inputs {
		tbl, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", in, err)
		}
		if len(tbl.Rows)+tbl.InvalidRows != tbl.TotalRows {
			t.Errorf("Parse(%q): rows %d + invalid %d != total %d", in, len(tbl.Rows), tbl.InvalidRows, tbl.TotalRows)
		}
		if len(tbl.Errors) != tbl.InvalidRows {
			t.Errorf("Parse(%q): %d errors for %d invalid rows", in, len(tbl.Errors), tbl.InvalidRows)
		}
		for i, row := range tbl.Rows {
			if len(row) != len(tbl.Columns) {
				t.Errorf("Parse(%q): row %d has %d cells, want %d", in, i, len(row), len(tbl.Columns))
			}
		}

		again, err := Parse(in)
		if err != nil || !reflect.DeepEqual(tbl, again) {
			t.Errorf("Parse(%q) is not deterministic", in)
		}
	}
}

func TestParse_ManyInvalidRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("a,b\n")
	for i := 0; i < 25; i++ {
		b.WriteString("only-one\n")
	}

	tbl, err := Parse(b.String())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if tbl.InvalidRows != 25 || len(tbl.Errors) != 25 {
		t.Fatalf("InvalidRows = %d, Errors = %d; want 25 each", tbl.InvalidRows, len(tbl.Errors))
	}
	if got := tbl.ErrorPreview(ErrorPreviewLimit); len(got) != 10 {
		t.Errorf("ErrorPreview returned %d, want 10", len(got))
	}
}
