package stream

import (
	"io"
	"sort"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// MultiReader concatenates seekable streams into one seekable stream. Part
// lengths are measured once at construction.
type MultiReader struct {
	peekOps
	parts  []io.ReadSeeker
	starts []int64 // starts[i] is the absolute offset of parts[i]; len(parts)+1 entries
	pos    int64
}

// NewMultiReader measures every part and returns their concatenation.
func NewMultiReader(parts ...io.ReadSeeker) (*MultiReader, error) {
	m := &MultiReader{parts: parts, starts: make([]int64, len(parts)+1)}
	for i, p := range parts {
		n, err := binio.StreamLength(p)
		if err != nil {
			return nil, err
		}
		m.starts[i+1] = m.starts[i] + n
	}
	m.src = m
	return m, nil
}

// NewPrefixReader returns a stream that yields prefix followed by rs.
func NewPrefixReader(prefix []byte, rs io.ReadSeeker) (*MultiReader, error) {
	return NewMultiReader(NewMemReader(prefix), rs)
}

// Len returns the total length.
func (m *MultiReader) Len() int64 { return m.starts[len(m.parts)] }

func (m *MultiReader) runAt(off int64, fn func(r *binio.Reader) error) error {
	if off == atCursor {
		off = m.pos
	}
	n := max(m.Len()-off, 0)
	return fn(binio.NewReader(io.NewSectionReader(m, off, n)))
}

func (m *MultiReader) Seek(offset int64, whence int) (int64, error) {
	next, err := seekTarget("multi seek", m.pos, m.Len(), offset, whence)
	if err != nil {
		return m.pos, err
	}
	m.pos = next
	return next, nil
}

func (m *MultiReader) Read(p []byte) (int, error) {
	n, err := m.ReadAt(p, m.pos)
	m.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt reads across part boundaries as needed.
func (m *MultiReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, types.RangeErr("multi read at", "negative offset %d", off)
	}
	total := 0
	for total < len(p) && off < m.Len() {
		i := sort.Search(len(m.parts), func(i int) bool { return m.starts[i+1] > off })
		local := off - m.starts[i]
		want := min(int64(len(p)-total), m.starts[i+1]-off)
		part := m.parts[i]
		if _, err := part.Seek(local, io.SeekStart); err != nil {
			return total, types.IOErr("multi seek part", err)
		}
		n, err := io.ReadFull(part, p[total:total+int(want)])
		total += n
		off += int64(n)
		if err != nil {
			return total, types.IOErr("multi read part", err)
		}
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}
