package stream

import (
	"io"
)

// CountingWriter forwards writes and tracks the number of bytes written.
type CountingWriter struct {
	w io.Writer
	n int64
}

func NewCountingWriter(w io.Writer) *CountingWriter { return &CountingWriter{w: w} }

func (c *CountingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Count returns the bytes written so far.
func (c *CountingWriter) Count() int64 { return c.n }

// Discard is a seekable sink that stores nothing. It measures the size a
// sequence of writes and seeks would produce.
type Discard struct {
	pos, size int64
}

func (d *Discard) Write(p []byte) (int, error) {
	d.pos += int64(len(p))
	d.size = max(d.size, d.pos)
	return len(p), nil
}

func (d *Discard) Seek(offset int64, whence int) (int64, error) {
	next, err := seekTarget("discard seek", d.pos, d.size, offset, whence)
	if err != nil {
		return d.pos, err
	}
	d.pos = next
	return next, nil
}

// Size returns the furthest position written.
func (d *Discard) Size() int64 { return d.size }
