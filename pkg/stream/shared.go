package stream

import (
	"io"
	"sync"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// SharedPeeker guards one stream with a mutex so several call sites can peek
// and read through it. Each operation holds the lock for its whole
// seek-and-read sequence, so no caller observes another's partial read.
type SharedPeeker struct {
	peekOps
	mu sync.Mutex
	rs io.ReadSeeker
}

// NewSharedPeeker wraps rs for shared use.
func NewSharedPeeker(rs io.ReadSeeker) *SharedPeeker {
	s := &SharedPeeker{rs: rs}
	s.src = s
	return s
}

func (s *SharedPeeker) runAt(off int64, fn func(r *binio.Reader) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return runSeekAt(s.rs, off, fn)
}

func (s *SharedPeeker) Read(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rs.Read(b)
}

func (s *SharedPeeker) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rs.Seek(offset, whence)
}

// Lock runs fn with exclusive access to the underlying stream.
func (s *SharedPeeker) Lock(fn func(rs io.ReadSeeker) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.rs)
}

// Cursor returns an independent view with its own position, starting at pos.
// Reads through a Cursor never disturb the shared stream's cursor.
func (s *SharedPeeker) Cursor(pos int64) *Cursor {
	c := &Cursor{shared: s, pos: pos}
	c.src = c
	return c
}

// Cursor is a private position over a SharedPeeker's stream.
type Cursor struct {
	peekOps
	shared *SharedPeeker
	pos    int64
}

func (c *Cursor) runAt(off int64, fn func(r *binio.Reader) error) error {
	if off == atCursor {
		off = c.pos
	}
	return c.shared.runAt(off, fn)
}

// Read reads at the cursor's own position and advances it.
func (c *Cursor) Read(b []byte) (int, error) {
	var n int
	err := c.shared.Lock(func(rs io.ReadSeeker) error {
		cur, err := rs.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if _, err := rs.Seek(c.pos, io.SeekStart); err != nil {
			return err
		}
		var rerr error
		n, rerr = rs.Read(b)
		if _, err := rs.Seek(cur, io.SeekStart); err != nil && rerr == nil {
			rerr = err
		}
		return rerr
	})
	c.pos += int64(n)
	return n, err
}

func (c *Cursor) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = c.pos
	case io.SeekEnd:
		err := c.shared.Lock(func(rs io.ReadSeeker) error {
			var err error
			base, err = binio.StreamLength(rs)
			return err
		})
		if err != nil {
			return c.pos, err
		}
	default:
		return c.pos, types.UnsupportedErr("cursor seek", "whence %d", whence)
	}
	next := base + offset
	if next < 0 {
		return c.pos, types.RangeErr("cursor seek", "negative position %d", next)
	}
	c.pos = next
	return next, nil
}

// Pos returns the cursor's position.
func (c *Cursor) Pos() int64 { return c.pos }
