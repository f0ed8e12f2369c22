package core

// streaming.go normalizes uploaded scene bytes on the fly:
//
//   - a UTF-8 BOM is stripped; a UTF-16 BOM switches decoding to UTF-16
//   - invalid UTF-8 bytes become U+FFFD so the record lexer never sees them
//   - raw bytes are counted and capped at the configured scene size
//
// Use WrapForStreaming to apply all of them in the right order.

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrSceneTooLarge is returned once a scene body passes the size limit.
var ErrSceneTooLarge = errors.New("file too large")

// CountingReader counts the raw bytes read from an upload and fails with
// ErrSceneTooLarge when more than limit bytes arrive. A limit of zero or
// less disables the cap.
type CountingReader struct {
	r     io.Reader
	limit int64
	n     atomic.Int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader, limit int64) *CountingReader {
	return &CountingReader{r: r, limit: limit}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	total := c.n.Add(int64(n))
	if c.limit > 0 && total > c.limit {
		return n, fmt.Errorf("%w: more than %d bytes", ErrSceneTooLarge, c.limit)
	}
	return n, err
}

// BytesRead returns the raw byte count so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n.Load()
}

// WrapForStreaming returns a reader of clean UTF-8 text and the counter
// sitting on the raw side of the decoder.
func WrapForStreaming(r io.Reader, limit int64) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r, limit)
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(counter, decoder), counter
}
