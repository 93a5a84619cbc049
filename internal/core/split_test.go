package core

import (
	"reflect"
	"testing"
)

func TestSplitLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		delim rune
		want  []string
	}{
		{
			name:  "quoted delimiter and trimming",
			line:  `a; "b;c" ; d`,
			delim: ';',
			want:  []string{"a", "b;c", "d"},
		},
		{
			name:  "escaped quote",
			line:  `"he said ""hi""",x`,
			delim: ',',
			want:  []string{`he said "hi"`, "x"},
		},
		{
			name:  "unterminated quote runs to end of line",
			line:  `a,"b,c`,
			delim: ',',
			want:  []string{"a", "b,c"},
		},
		{
			name:  "trailing delimiter yields empty cell",
			line:  "a,b,",
			delim: ',',
			want:  []string{"a", "b", ""},
		},
		{
			name:  "single cell",
			line:  "  lonely  ",
			delim: ',',
			want:  []string{"lonely"},
		},
		{
			name:  "other delimiter is plain text",
			line:  "a,b;c",
			delim: ';',
			want:  []string{"a,b", "c"},
		},
		{
			name:  "multi-byte runes survive",
			line:  "Zoë;Ærø;東京",
			delim: ';',
			want:  []string{"Zoë", "Ærø", "東京"},
		},
		{
			name:  "quotes inside a bare cell toggle quoting",
			line:  `ab"c,d"e,f`,
			delim: ',',
			want:  []string{"abc,de", "f"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitLine(tt.line, tt.delim)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitLine(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestJoinLine_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		delim rune
	}{
		{name: "plain", cells: []string{"a", "b", "c"}, delim: ','},
		{name: "delimiter inside", cells: []string{"a,b", "c"}, delim: ','},
		{name: "semicolon inside", cells: []string{"x;y", "z"}, delim: ';'},
		{name: "quotes inside", cells: []string{`say "yes"`, "ok"}, delim: ','},
		{name: "empty cells", cells: []string{"", "b", ""}, delim: ';'},
		{name: "other delimiter untouched", cells: []string{"1,5", "2"}, delim: ';'},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := JoinLine(tt.cells, tt.delim)
			got := SplitLine(line, tt.delim)
			if !reflect.DeepEqual(got, tt.cells) {
				t.Errorf("SplitLine(JoinLine(%q)) = %q via %q", tt.cells, got, line)
			}
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		line string
		want rune
	}{
		{"a;b;c", ';'},
		{"a,b;c", ';'},
		{"a,b,c", ','},
		{"a\tb\tc", ','},
		{"a|b|c", ','},
		{"single", ','},
	}

	for _, tt := range tests {
		if got := DetectDelimiter(tt.line); got != tt.want {
			t.Errorf("DetectDelimiter(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
