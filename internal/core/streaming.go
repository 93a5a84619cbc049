package core

// streaming.go provides the readers used to pull an upload off the wire.
//
//   - BOMSkippingReader: Removes UTF-8 BOM (0xEF 0xBB 0xBF) from Windows files
//   - SizeLimitReader: Counts bytes and fails once the upload limit is crossed
//
// Use WrapForUpload to apply both in the correct order.

import (
	"fmt"
	"io"
)

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
// The UTF-8 BOM is 0xEF 0xBB 0xBF and is commonly added by Windows programs.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	pending    []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if !r.bomChecked {
		r.bomChecked = true

		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
			r.pending = nil
		} else {
			r.pending = append(r.pending[:0], buf[:n]...)
		}

		if err == io.EOF {
			copied := copy(p, r.pending)
			r.pending = r.pending[copied:]
			if len(r.pending) > 0 {
				return copied, nil
			}
			return copied, io.EOF
		}
	}

	// Return any remaining buffered data first
	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// SizeLimitReader wraps an io.Reader, tracks bytes read, and returns an
// ErrUnsupportedInput error as soon as more than Limit bytes were seen.
type SizeLimitReader struct {
	reader    io.Reader
	BytesRead int64
	Limit     int64
}

// NewSizeLimitReader creates a reader that allows at most limit bytes.
// A non-positive limit disables the check.
func NewSizeLimitReader(r io.Reader, limit int64) *SizeLimitReader {
	return &SizeLimitReader{
		reader: r,
		Limit:  limit,
	}
}

// Read implements io.Reader.
func (r *SizeLimitReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	if r.Limit > 0 && r.BytesRead > r.Limit {
		return n, FileTooLargeError(r.Limit)
	}
	return n, err
}

// WrapForUpload strips a leading BOM and enforces the size limit.
//
// The limit applies to the payload after the BOM is removed.
func WrapForUpload(r io.Reader, limit int64) *SizeLimitReader {
	return NewSizeLimitReader(NewBOMSkippingReader(r), limit)
}

// FileTooLargeError reports an upload that exceeded limit bytes.
func FileTooLargeError(limit int64) error {
	return fmt.Errorf("%w: file too large (limit %d bytes)", ErrUnsupportedInput, limit)
}
