// Package stream provides in-memory streams, bounded regions over a parent
// stream, and non-destructive lookahead (peeking) over any io.ReadSeeker.
//
// Every peek restores the cursor to its pre-call position, including when
// the read fails. Exact peeks that run past the end of the stream fail with
// a types.KindIO error instead of returning truncated data.
package stream

import (
	"bytes"
	"io"
	"math"
	"sync/atomic"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/schema"
	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

// atCursor asks a peek source to start at the current cursor.
const atCursor int64 = -1

// peekSource positions a reader at off (or at the cursor for atCursor),
// runs fn, and leaves the cursor where it was.
type peekSource interface {
	runAt(off int64, fn func(r *binio.Reader) error) error
}

// peekOps holds the typed peek surface shared by every peekable stream.
type peekOps struct {
	src      peekSource
	replaced atomic.Bool
}

// Replaced reports whether any string peek substituted a replacement rune.
func (p *peekOps) Replaced() bool { return p.replaced.Load() }

func (p *peekOps) at(op string, off int64, fn func(r *binio.Reader) error) error {
	if off < 0 {
		return types.RangeErr(op, "negative offset %d", off)
	}
	return p.src.runAt(off, fn)
}

func peekValue[T any](p *peekOps, off int64, read func(*binio.Reader) (T, error)) (T, error) {
	var v T
	err := p.src.runAt(off, func(r *binio.Reader) error {
		var err error
		v, err = read(r)
		if r.Replaced() {
			p.replaced.Store(true)
		}
		return err
	})
	return v, err
}

func peekValueAt[T any](p *peekOps, off int64, read func(*binio.Reader) (T, error)) (T, error) {
	if off < 0 {
		var zero T
		return zero, types.RangeErr("peek", "negative offset %d", off)
	}
	return peekValue(p, off, read)
}

// PeekBytes reads up to len(buf) bytes at the cursor. A short count at end
// of stream is not an error.
func (p *peekOps) PeekBytes(buf []byte) (int, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (int, error) { return r.ReadMost(buf) })
}

// PeekExact fills buf from the cursor or fails with an IO error.
func (p *peekOps) PeekExact(buf []byte) error {
	return p.src.runAt(atCursor, func(r *binio.Reader) error { return r.ReadFull(buf) })
}

// PeekAt reads up to len(buf) bytes at absolute offset off.
func (p *peekOps) PeekAt(off int64, buf []byte) (int, error) {
	return peekValueAt(p, off, func(r *binio.Reader) (int, error) { return r.ReadMost(buf) })
}

// PeekExactAt fills buf from absolute offset off.
func (p *peekOps) PeekExactAt(off int64, buf []byte) error {
	return p.at("peek", off, func(r *binio.Reader) error { return r.ReadFull(buf) })
}

// PeekVec returns the next n bytes without consuming them.
func (p *peekOps) PeekVec(n int) ([]byte, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) ([]byte, error) { return r.ReadExactVec(n) })
}

// PeekUint peeks an unsigned integer of width bytes at the cursor.
func (p *peekOps) PeekUint(width int, o binio.Order) (uint64, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (uint64, error) { return r.ReadUint(width, o) })
}

// PeekUintAt peeks an unsigned integer of width bytes at off.
func (p *peekOps) PeekUintAt(off int64, width int, o binio.Order) (uint64, error) {
	return peekValueAt(p, off, func(r *binio.Reader) (uint64, error) { return r.ReadUint(width, o) })
}

func (p *peekOps) PeekU8() (uint8, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU8) }
func (p *peekOps) PeekI8() (int8, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI8) }
func (p *peekOps) PeekU16() (uint16, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU16) }
func (p *peekOps) PeekU16BE() (uint16, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU16BE) }
func (p *peekOps) PeekI16() (int16, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI16) }
func (p *peekOps) PeekI16BE() (int16, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI16BE) }
func (p *peekOps) PeekU32() (uint32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU32) }
func (p *peekOps) PeekU32BE() (uint32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU32BE) }
func (p *peekOps) PeekI32() (int32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI32) }
func (p *peekOps) PeekI32BE() (int32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI32BE) }
func (p *peekOps) PeekU64() (uint64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU64) }
func (p *peekOps) PeekU64BE() (uint64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadU64BE) }
func (p *peekOps) PeekI64() (int64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI64) }
func (p *peekOps) PeekI64BE() (int64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadI64BE) }
func (p *peekOps) PeekU128() (binio.Uint128, error) {
	return peekValue(p, atCursor, (*binio.Reader).ReadU128)
}
func (p *peekOps) PeekU128BE() (binio.Uint128, error) {
	return peekValue(p, atCursor, (*binio.Reader).ReadU128BE)
}
func (p *peekOps) PeekF32() (float32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadF32) }
func (p *peekOps) PeekF32BE() (float32, error) { return peekValue(p, atCursor, (*binio.Reader).ReadF32BE) }
func (p *peekOps) PeekF64() (float64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadF64) }
func (p *peekOps) PeekF64BE() (float64, error) { return peekValue(p, atCursor, (*binio.Reader).ReadF64BE) }

func (p *peekOps) PeekU8At(off int64) (uint8, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU8)
}
func (p *peekOps) PeekU16At(off int64) (uint16, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU16)
}
func (p *peekOps) PeekU16BEAt(off int64) (uint16, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU16BE)
}
func (p *peekOps) PeekU32At(off int64) (uint32, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU32)
}
func (p *peekOps) PeekU32BEAt(off int64) (uint32, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU32BE)
}
func (p *peekOps) PeekI32At(off int64) (int32, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadI32)
}
func (p *peekOps) PeekU64At(off int64) (uint64, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU64)
}
func (p *peekOps) PeekU64BEAt(off int64) (uint64, error) {
	return peekValueAt(p, off, (*binio.Reader).ReadU64BE)
}

// PeekCString peeks a terminated string at the cursor.
func (p *peekOps) PeekCString(enc textenc.Encoding) (string, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (string, error) { return r.ReadCString(enc) })
}

// PeekCStringAt peeks a terminated string at off.
func (p *peekOps) PeekCStringAt(off int64, enc textenc.Encoding) (string, error) {
	return peekValueAt(p, off, func(r *binio.Reader) (string, error) { return r.ReadCString(enc) })
}

// PeekFixedString peeks an n-byte string field at the cursor.
func (p *peekOps) PeekFixedString(n int, enc textenc.Encoding, trim bool) (string, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (string, error) {
		return r.ReadFixedString(n, enc, trim)
	})
}

// PeekFixedStringAt peeks an n-byte string field at off.
func (p *peekOps) PeekFixedStringAt(off int64, n int, enc textenc.Encoding, trim bool) (string, error) {
	return peekValueAt(p, off, func(r *binio.Reader) (string, error) {
		return r.ReadFixedString(n, enc, trim)
	})
}

// PeekUTF16String peeks a 0x0000-terminated UTF-16 string at the cursor.
func (p *peekOps) PeekUTF16String(o binio.Order) (string, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (string, error) { return r.ReadUTF16String(o) })
}

// PeekStruct decodes one record of s at the cursor without consuming it.
func (p *peekOps) PeekStruct(s schema.Schema, opts schema.Options) (schema.Record, error) {
	return peekValue(p, atCursor, func(r *binio.Reader) (schema.Record, error) {
		return schema.Read(r, s, opts)
	})
}

// PeekStructAt decodes one record of s at off.
func (p *peekOps) PeekStructAt(off int64, s schema.Schema, opts schema.Options) (schema.Record, error) {
	return peekValueAt(p, off, func(r *binio.Reader) (schema.Record, error) {
		return schema.Read(r, s, opts)
	})
}

// PeekAndEqual reports whether the bytes at the cursor equal want. Running
// out of data reports false rather than an error.
func (p *peekOps) PeekAndEqual(want []byte) (bool, error) {
	return p.peekAndEqual(atCursor, want)
}

// PeekAndEqualAt is PeekAndEqual at absolute offset off.
func (p *peekOps) PeekAndEqualAt(off int64, want []byte) (bool, error) {
	if off < 0 {
		return false, types.RangeErr("peek", "negative offset %d", off)
	}
	return p.peekAndEqual(off, want)
}

func (p *peekOps) peekAndEqual(off int64, want []byte) (bool, error) {
	got := make([]byte, len(want))
	n, err := peekValue(p, off, func(r *binio.Reader) (int, error) { return r.ReadMost(got) })
	if err != nil {
		return false, err
	}
	return n == len(want) && bytes.Equal(got, want), nil
}

// runSeekAt implements peekSource for plain seekable streams. A stream that
// also implements io.ReaderAt is read without moving its cursor at all.
func runSeekAt(rs io.ReadSeeker, off int64, fn func(r *binio.Reader) error) (err error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return types.IOErr("peek: tell", err)
	}
	if off == atCursor {
		off = cur
	}
	if ra, ok := rs.(io.ReaderAt); ok {
		return fn(binio.NewReader(io.NewSectionReader(ra, off, math.MaxInt64-off)))
	}
	if _, err := rs.Seek(off, io.SeekStart); err != nil {
		return types.IOErr("peek: seek", err)
	}
	defer func() {
		if _, serr := rs.Seek(cur, io.SeekStart); serr != nil && err == nil {
			err = types.IOErr("peek: restore cursor", serr)
		}
	}()
	return fn(binio.NewReader(rs))
}

// Peeker adds non-destructive lookahead to a seekable stream. It is itself a
// stream: Read and Seek pass through to the wrapped value.
type Peeker struct {
	peekOps
	rs io.ReadSeeker
}

// NewPeeker wraps rs. The Peeker is owned by a single caller; use
// SharedPeeker when several call sites share one stream.
func NewPeeker(rs io.ReadSeeker) *Peeker {
	p := &Peeker{rs: rs}
	p.src = p
	return p
}

func (p *Peeker) runAt(off int64, fn func(r *binio.Reader) error) error {
	return runSeekAt(p.rs, off, fn)
}

func (p *Peeker) Read(b []byte) (int, error) { return p.rs.Read(b) }

func (p *Peeker) Seek(offset int64, whence int) (int64, error) { return p.rs.Seek(offset, whence) }

// Tell returns the current cursor.
func (p *Peeker) Tell() (int64, error) { return binio.Tell(p.rs) }
