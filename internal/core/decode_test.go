package core

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    string
		wantErr error
	}{
		{
			name:  "utf-8 passes through",
			input: []byte("name;city\nZoë;Århus\n"),
			want:  "name;city\nZoë;Århus\n",
		},
		{
			name:  "latin-1 fallback",
			input: []byte{'Z', 'o', 0xEB, ';', 0xC5, 'r', 'h', 'u', 's'},
			want:  "Zoë;Århus",
		},
		{
			name:    "binary payload rejected",
			input:   []byte{'a', 0x00, 'b'},
			wantErr: ErrUnsupportedInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeText(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DecodeText() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeText() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseReader(t *testing.T) {
	t.Run("strips BOM before header", func(t *testing.T) {
		input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("id,name\n1,a\n")...)
		tbl, err := ParseReader(bytes.NewReader(input), DefaultMaxUploadSize)
		if err != nil {
			t.Fatalf("ParseReader() error = %v", err)
		}
		if tbl.Columns[0] != "id" {
			t.Errorf("first column = %q, want %q", tbl.Columns[0], "id")
		}
	})

	t.Run("rejects oversized payload", func(t *testing.T) {
		input := "a,b\n" + strings.Repeat("1,2\n", 100)
		_, err := ParseReader(strings.NewReader(input), 64)
		if !errors.Is(err, ErrUnsupportedInput) {
			t.Fatalf("ParseReader() error = %v, want ErrUnsupportedInput", err)
		}
		if MapError(err).Code != "FILE001" {
			t.Errorf("MapError code = %q, want FILE001", MapError(err).Code)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		_, err := ParseReader(strings.NewReader(""), DefaultMaxUploadSize)
		if !errors.Is(err, ErrEmptyInput) {
			t.Errorf("ParseReader() error = %v, want ErrEmptyInput", err)
		}
	})
}
