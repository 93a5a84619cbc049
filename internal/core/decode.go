package core

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultMaxUploadSize is the upload ceiling used when none is configured (10 MiB).
const DefaultMaxUploadSize int64 = 10 << 20

// ReadText reads at most limit bytes from r and decodes them.
func ReadText(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(WrapForUpload(r, limit))
	if err != nil {
		return "", err
	}
	return DecodeText(data)
}

// DecodeText decodes an upload payload.
//
// Valid UTF-8 is used as is. Anything else is read as ISO-8859-1, which maps
// every byte to a rune and therefore never fails. Payloads containing NUL
// bytes are binary and rejected.
func DecodeText(data []byte) (string, error) {
	if bytes.IndexByte(data, 0) >= 0 {
		return "", fmt.Errorf("%w: encoding error, payload is not recognizable text", ErrUnsupportedInput)
	}
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("%w: encoding error: %v", ErrUnsupportedInput, err)
	}
	return string(decoded), nil
}

// ParseReader reads, decodes and parses an upload of at most limit bytes.
func ParseReader(r io.Reader, limit int64) (*Table, error) {
	text, err := ReadText(r, limit)
	if err != nil {
		return nil, err
	}
	return Parse(text)
}
