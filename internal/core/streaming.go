package core

// streaming.go prepares uploaded bytes for the CSV tokenizer.
//
// Files exported from spreadsheet tools often start with a UTF-8 byte order
// mark and sometimes carry Latin-1 bytes. The import reader strips the BOM
// and replaces ill-formed UTF-8 with U+FFFD while streaming, so memory stays
// bounded by the transformer buffer.

import (
	"context"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NewImportReader wraps r so that a leading BOM is dropped and invalid UTF-8
// sequences are replaced.
func NewImportReader(r io.Reader) io.Reader {
	return transform.NewReader(r, transform.Chain(
		unicode.BOMOverride(unicode.UTF8.NewDecoder()),
		runes.ReplaceIllFormed(),
	))
}

// CountingReader tracks the number of bytes read through it.
type CountingReader struct {
	r io.Reader
	n int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// BytesRead returns the total bytes read so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n
}

// contextReader fails reads once its context is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
