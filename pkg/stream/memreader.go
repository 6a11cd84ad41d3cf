package stream

import (
	"bytes"
	"io"

	"github.com/joshuapare/vnkit/internal/buf"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// MemReader is a read-only seekable stream over a byte slice. The slice is
// borrowed, never copied.
type MemReader struct {
	peekOps
	data []byte
	pos  int64
}

// NewMemReader returns a reader over data positioned at 0.
func NewMemReader(data []byte) *MemReader {
	m := &MemReader{data: data}
	m.src = m
	return m
}

func (m *MemReader) runAt(off int64, fn func(r *binio.Reader) error) error {
	if off == atCursor {
		off = m.pos
	}
	return fn(binio.NewReader(bytes.NewReader(m.tail(off))))
}

func (m *MemReader) tail(off int64) []byte {
	if off >= int64(len(m.data)) {
		return nil
	}
	return m.data[off:]
}

func (m *MemReader) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

// ReadByte lets bit readers consume the stream without extra buffering.
func (m *MemReader) ReadByte() (byte, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	c := m.data[m.pos]
	m.pos++
	return c, nil
}

func (m *MemReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, types.RangeErr("mem read at", "negative offset %d", off)
	}
	n := copy(p, m.tail(off))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Seek allows positions past the end; reads there return io.EOF.
func (m *MemReader) Seek(offset int64, whence int) (int64, error) {
	next, err := seekTarget("mem seek", m.pos, int64(len(m.data)), offset, whence)
	if err != nil {
		return m.pos, err
	}
	m.pos = next
	return next, nil
}

// EOF reports whether the cursor is at or past the end of the data.
func (m *MemReader) EOF() bool { return m.pos >= int64(len(m.data)) }

// Pos returns the cursor.
func (m *MemReader) Pos() int64 { return m.pos }

// Len returns the length of the underlying data.
func (m *MemReader) Len() int { return len(m.data) }

// Remaining returns the unread bytes without copying.
func (m *MemReader) Remaining() []byte { return m.tail(m.pos) }

// Bytes returns the whole underlying slice.
func (m *MemReader) Bytes() []byte { return m.data }

// Clone returns a reader over the same data with an independent cursor.
func (m *MemReader) Clone() *MemReader {
	c := NewMemReader(m.data)
	c.pos = m.pos
	return c
}

// Borrow returns data[off:off+n] without copying.
func (m *MemReader) Borrow(off, n int64) ([]byte, error) {
	b, ok := buf.Slice(m.data, off, n)
	if !ok {
		return nil, types.RangeErr("mem borrow", "[%d, %d+%d) outside %d bytes", off, off, n, len(m.data))
	}
	return b, nil
}

// Sub returns a reader over data[off:off+n] with its own cursor at 0.
func (m *MemReader) Sub(off, n int64) (*MemReader, error) {
	b, err := m.Borrow(off, n)
	if err != nil {
		return nil, err
	}
	return NewMemReader(b), nil
}

// seekTarget resolves a Seek request against cur and size. Negative targets
// are range errors; positions past size are allowed.
func seekTarget(op string, cur, size, offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = cur
	case io.SeekEnd:
		base = size
	default:
		return 0, types.UnsupportedErr(op, "whence %d", whence)
	}
	next, ok := buf.AddOverflowSafe(base, offset)
	if !ok || next < 0 {
		return 0, types.RangeErr(op, "position %d%+d out of range", base, offset)
	}
	return next, nil
}
