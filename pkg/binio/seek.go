package binio

import (
	"fmt"
	"io"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Tell returns the current position of s.
func Tell(s io.Seeker) (int64, error) {
	pos, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, types.IOErr("tell", err)
	}
	return pos, nil
}

// SeekTo moves s to the absolute offset pos.
func SeekTo(s io.Seeker, pos int64) error {
	if _, err := s.Seek(pos, io.SeekStart); err != nil {
		return types.IOErr(fmt.Sprintf("seek to %d", pos), err)
	}
	return nil
}

// StreamLength returns the total length of s without moving it.
func StreamLength(s io.Seeker) (int64, error) {
	cur, err := Tell(s)
	if err != nil {
		return 0, err
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, types.IOErr("seek end", err)
	}
	if err := SeekTo(s, cur); err != nil {
		return 0, err
	}
	return end, nil
}

// AlignUp rounds pos up to the next multiple of align.
func AlignUp(pos, align int64) int64 {
	if align <= 1 {
		return pos
	}
	if rem := pos % align; rem != 0 {
		return pos + align - rem
	}
	return pos
}

// Align seeks s forward to the next multiple of align and returns the new
// position.
func Align(s io.Seeker, align int64) (int64, error) {
	pos, err := Tell(s)
	if err != nil {
		return 0, err
	}
	next := AlignUp(pos, align)
	if next != pos {
		if err := SeekTo(s, next); err != nil {
			return 0, err
		}
	}
	return next, nil
}

// PadTo writes zeros to w until its position reaches a multiple of align.
func PadTo(w io.WriteSeeker, align int64) error {
	pos, err := Tell(w)
	if err != nil {
		return err
	}
	return NewWriter(w).WriteZeros(int(AlignUp(pos, align) - pos))
}

// CopyN copies exactly n bytes from src to dst.
func CopyN(dst io.Writer, src io.Reader, n int64) error {
	copied, err := io.CopyN(dst, src, n)
	if err != nil {
		return types.IOErr(fmt.Sprintf("copy %d bytes (copied %d)", n, copied), err)
	}
	return nil
}

// WriteAt writes b at offset off of w and restores the previous position.
func WriteAt(w io.WriteSeeker, off int64, b []byte) error {
	cur, err := Tell(w)
	if err != nil {
		return err
	}
	if err := SeekTo(w, off); err != nil {
		return err
	}
	if err := NewWriter(w).WriteBytes(b); err != nil {
		return err
	}
	return SeekTo(w, cur)
}

// PutUintAt overwrites width bytes at off with v.
func PutUintAt(w io.WriteSeeker, off int64, v uint64, width int, o Order) error {
	if !FitsUint(v, width) {
		return types.RangeErr("put uint", "value %#x does not fit in %d bytes", v, width)
	}
	var b [8]byte
	if err := o.PutUint(b[:], width, v); err != nil {
		return types.UnsupportedErr("put uint", "%v", err)
	}
	return WriteAt(w, off, b[:width])
}

func PutU32At(w io.WriteSeeker, off int64, v uint32) error {
	return PutUintAt(w, off, uint64(v), 4, LittleEndian)
}

func PutU32BEAt(w io.WriteSeeker, off int64, v uint32) error {
	return PutUintAt(w, off, uint64(v), 4, BigEndian)
}
