package stream

import (
	"bytes"
	"io"

	"github.com/joshuapare/vnkit/internal/buf"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// MemWriter is a growable in-memory stream. Writing after a seek past the end
// zero-fills the gap.
type MemWriter struct {
	peekOps
	data []byte
	pos  int64
}

// NewMemWriter returns an empty writer.
func NewMemWriter() *MemWriter { return NewMemWriterFrom(nil) }

// NewMemWriterFrom takes ownership of b as initial contents, cursor at 0.
func NewMemWriterFrom(b []byte) *MemWriter {
	m := &MemWriter{data: b}
	m.src = m
	return m
}

func (m *MemWriter) runAt(off int64, fn func(r *binio.Reader) error) error {
	if off == atCursor {
		off = m.pos
	}
	var tail []byte
	if off < int64(len(m.data)) {
		tail = m.data[off:]
	}
	return fn(binio.NewReader(bytes.NewReader(tail)))
}

func (m *MemWriter) Write(p []byte) (int, error) {
	n, err := m.WriteAt(p, m.pos)
	m.pos += int64(n)
	return n, err
}

// WriteAt writes p at off without moving the cursor.
func (m *MemWriter) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, types.RangeErr("mem write at", "negative offset %d", off)
	}
	end, ok := buf.AddOverflowSafe(off, int64(len(p)))
	if !ok || end > int64(maxInt) {
		return 0, types.RangeErr("mem write at", "end %d+%d too large", off, len(p))
	}
	m.data = buf.Grow(m.data, int(end))
	return copy(m.data[off:end], p), nil
}

func (m *MemWriter) Read(p []byte) (int, error) {
	n, err := m.ReadAt(p, m.pos)
	m.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (m *MemWriter) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, types.RangeErr("mem read at", "negative offset %d", off)
	}
	if off >= int64(len(m.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemWriter) Seek(offset int64, whence int) (int64, error) {
	next, err := seekTarget("mem seek", m.pos, int64(len(m.data)), offset, whence)
	if err != nil {
		return m.pos, err
	}
	m.pos = next
	return next, nil
}

// Bytes returns the current contents. The slice aliases the writer.
func (m *MemWriter) Bytes() []byte { return m.data }

// IntoBytes hands the buffer to the caller and resets the writer.
func (m *MemWriter) IntoBytes() []byte {
	b := m.data
	m.data, m.pos = nil, 0
	return b
}

// Reader returns a MemReader borrowing the current contents.
func (m *MemWriter) Reader() *MemReader { return NewMemReader(m.data) }

// Len returns the number of bytes written so far, including zero-filled gaps.
func (m *MemWriter) Len() int { return len(m.data) }

// Pos returns the cursor.
func (m *MemWriter) Pos() int64 { return m.pos }

// Truncate cuts the contents to n bytes, pulling the cursor back if needed.
func (m *MemWriter) Truncate(n int) error {
	if n < 0 || n > len(m.data) {
		return types.RangeErr("mem truncate", "size %d outside [0, %d]", n, len(m.data))
	}
	m.data = m.data[:n]
	m.pos = min(m.pos, int64(n))
	return nil
}

const maxInt = int(^uint(0) >> 1)
