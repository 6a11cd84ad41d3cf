package stream

import (
	"io"

	"github.com/joshuapare/vnkit/internal/buf"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// Region is a window [start, start+length) over a parent stream. Positions
// are local to the window, seeks outside [0, length] are range errors, and
// no read or write ever touches parent bytes outside the window.
//
// A Region drives the parent's cursor while reading; interleaving use of the
// parent and the region is the caller's responsibility.
type Region struct {
	peekOps
	parent io.ReadSeeker
	start  int64
	length int64
	pos    int64
}

// NewRegion returns a window of length bytes starting at absolute offset start.
func NewRegion(parent io.ReadSeeker, start, length int64) (*Region, error) {
	if start < 0 || length < 0 {
		return nil, types.RangeErr("region", "invalid window start=%d length=%d", start, length)
	}
	if _, ok := buf.AddOverflowSafe(start, length); !ok {
		return nil, types.RangeErr("region", "window start=%d length=%d overflows", start, length)
	}
	r := &Region{parent: parent, start: start, length: length}
	r.src = r
	return r, nil
}

// RegionFromCurrent starts the window at the parent's current position.
func RegionFromCurrent(parent io.ReadSeeker, length int64) (*Region, error) {
	cur, err := binio.Tell(parent)
	if err != nil {
		return nil, err
	}
	return NewRegion(parent, cur, length)
}

// RegionToEnd spans from start to the end of the parent.
func RegionToEnd(parent io.ReadSeeker, start int64) (*Region, error) {
	size, err := binio.StreamLength(parent)
	if err != nil {
		return nil, err
	}
	if start > size {
		return nil, types.RangeErr("region", "start %d past end %d", start, size)
	}
	return NewRegion(parent, start, size-start)
}

// Start returns the absolute offset of the window in the parent.
func (r *Region) Start() int64 { return r.start }

// Len returns the window length.
func (r *Region) Len() int64 { return r.length }

// Pos returns the local cursor.
func (r *Region) Pos() int64 { return r.pos }

func (r *Region) runAt(off int64, fn func(br *binio.Reader) error) error {
	if off == atCursor {
		off = r.pos
	}
	n := max(r.length-off, 0)
	return fn(binio.NewReader(io.NewSectionReader(r, off, n)))
}

func (r *Region) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = r.pos
	case io.SeekEnd:
		base = r.length
	default:
		return r.pos, types.UnsupportedErr("region seek", "whence %d", whence)
	}
	next, ok := buf.AddOverflowSafe(base, offset)
	if !ok || next < 0 || next > r.length {
		return r.pos, types.RangeErr("region seek", "position %d%+d outside [0, %d]", base, offset, r.length)
	}
	r.pos = next
	return next, nil
}

func (r *Region) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.pos)
	r.pos += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAt reads at a local offset. Reads are clipped to the window.
func (r *Region) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, types.RangeErr("region read at", "negative offset %d", off)
	}
	if off >= r.length {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	want := min(int64(len(p)), r.length-off)
	q := p[:want]
	var (
		n   int
		err error
	)
	if ra, ok := r.parent.(io.ReaderAt); ok {
		n, err = ra.ReadAt(q, r.start+off)
	} else {
		if _, err = r.parent.Seek(r.start+off, io.SeekStart); err != nil {
			return 0, types.IOErr("region seek parent", err)
		}
		n, err = io.ReadFull(r.parent, q)
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if err == nil && int64(n) < int64(len(p)) {
		err = io.EOF
	}
	return n, err
}

// Write writes at the local cursor when the parent is writable. Data that
// would cross the window end is cut and reported as io.ErrShortWrite.
func (r *Region) Write(p []byte) (int, error) {
	ws, ok := r.parent.(io.WriteSeeker)
	if !ok {
		return 0, types.UnsupportedErr("region write", "parent %T is not writable", r.parent)
	}
	room := max(r.length-r.pos, 0)
	q := p
	if int64(len(q)) > room {
		q = q[:room]
	}
	if _, err := ws.Seek(r.start+r.pos, io.SeekStart); err != nil {
		return 0, types.IOErr("region seek parent", err)
	}
	n, err := ws.Write(q)
	r.pos += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Bytes reads the whole window into memory without moving the local cursor.
func (r *Region) Bytes() ([]byte, error) {
	b := make([]byte, r.length)
	if err := r.PeekExactAt(0, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Sub returns a nested window relative to this region.
func (r *Region) Sub(start, length int64) (*Region, error) {
	if _, err := buf.CheckWindow(start, length, r.length); err != nil {
		return nil, types.RangeErr("region sub", "%v", err)
	}
	return NewRegion(r.parent, r.start+start, length)
}
