package binio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Reader decodes typed values from an io.Reader.
//
// String reads that needed a replacement rune set a sticky flag readable
// through Replaced, so callers can downgrade the file's outcome to a warning.
type Reader struct {
	r        io.Reader
	scratch  [16]byte
	replaced bool
}

// NewReader wraps r. If r is already a *Reader it is returned unchanged.
func NewReader(r io.Reader) *Reader {
	if br, ok := r.(*Reader); ok {
		return br
	}
	return &Reader{r: r}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) { return r.r.Read(p) }

// Underlying returns the wrapped reader.
func (r *Reader) Underlying() io.Reader { return r.r }

// Replaced reports whether any string read so far substituted a replacement rune.
func (r *Reader) Replaced() bool { return r.replaced }

// ReadFull fills p completely or fails with an IO error.
func (r *Reader) ReadFull(p []byte) error {
	if _, err := io.ReadFull(r.r, p); err != nil {
		return types.IOErr(fmt.Sprintf("read %d bytes", len(p)), err)
	}
	return nil
}

func (r *Reader) fill(op string, n int) ([]byte, error) {
	b := r.scratch[:n]
	if _, err := io.ReadFull(r.r, b); err != nil {
		return nil, types.IOErr("read "+op, err)
	}
	return b, nil
}

// ReadExactVec reads exactly n bytes into a new slice.
func (r *Reader) ReadExactVec(n int) ([]byte, error) {
	if n < 0 {
		return nil, types.RangeErr("read bytes", "negative length %d", n)
	}
	b := make([]byte, n)
	if err := r.ReadFull(b); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadMost reads until p is full or the stream ends, returning the count.
// Reaching the end early is not an error.
func (r *Reader) ReadMost(p []byte) (int, error) {
	n, err := io.ReadFull(r.r, p)
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, nil
	}
	if err != nil {
		return n, types.IOErr("read", err)
	}
	return n, nil
}

// Skip discards n bytes.
func (r *Reader) Skip(n int64) error {
	if s, ok := r.r.(io.Seeker); ok {
		if _, err := s.Seek(n, io.SeekCurrent); err != nil {
			return types.IOErr("skip", err)
		}
		return nil
	}
	copied, err := io.CopyN(io.Discard, r.r, n)
	if err != nil {
		return types.IOErr(fmt.Sprintf("skip %d bytes (got %d)", n, copied), err)
	}
	return nil
}

// ReadUint reads an unsigned integer of width 1, 2, 4 or 8 bytes.
func (r *Reader) ReadUint(width int, o Order) (uint64, error) {
	if width != 1 && width != 2 && width != 4 && width != 8 {
		return 0, types.UnsupportedErr("read uint", "width %d", width)
	}
	b, err := r.fill(fmt.Sprintf("u%d", width*8), width)
	if err != nil {
		return 0, err
	}
	return o.Uint(b, width)
}

// ReadInt reads a sign-extended integer of width 1, 2, 4 or 8 bytes.
func (r *Reader) ReadInt(width int, o Order) (int64, error) {
	v, err := r.ReadUint(width, o)
	if err != nil {
		return 0, err
	}
	return SignExtend(v, width), nil
}

// ReadFloat reads an IEEE-754 float of width 4 or 8 bytes.
func (r *Reader) ReadFloat(width int, o Order) (float64, error) {
	switch width {
	case 4:
		v, err := r.ReadUint(4, o)
		return float64(math.Float32frombits(uint32(v))), err
	case 8:
		v, err := r.ReadUint(8, o)
		return math.Float64frombits(v), err
	default:
		return 0, types.UnsupportedErr("read float", "width %d", width)
	}
}

func (r *Reader) u8() (uint8, error) {
	b, err := r.fill("u8", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) u16(o Order) (uint16, error) {
	b, err := r.fill("u16", 2)
	if err != nil {
		return 0, err
	}
	return o.ByteOrder().Uint16(b), nil
}

func (r *Reader) u32(o Order) (uint32, error) {
	b, err := r.fill("u32", 4)
	if err != nil {
		return 0, err
	}
	return o.ByteOrder().Uint32(b), nil
}

func (r *Reader) u64(o Order) (uint64, error) {
	b, err := r.fill("u64", 8)
	if err != nil {
		return 0, err
	}
	return o.ByteOrder().Uint64(b), nil
}

func (r *Reader) u128(o Order) (Uint128, error) {
	b, err := r.fill("u128", 16)
	if err != nil {
		return Uint128{}, err
	}
	return o.Uint128(b), nil
}

func (r *Reader) ReadU8() (uint8, error) { return r.u8() }

func (r *Reader) ReadI8() (int8, error) {
	v, err := r.u8()
	return int8(v), err
}

func (r *Reader) ReadU16() (uint16, error) { return r.u16(LittleEndian) }
func (r *Reader) ReadU16BE() (uint16, error) { return r.u16(BigEndian) }
func (r *Reader) ReadU32() (uint32, error) { return r.u32(LittleEndian) }
func (r *Reader) ReadU32BE() (uint32, error) { return r.u32(BigEndian) }
func (r *Reader) ReadU64() (uint64, error) { return r.u64(LittleEndian) }
func (r *Reader) ReadU64BE() (uint64, error) { return r.u64(BigEndian) }

func (r *Reader) ReadU128() (Uint128, error) { return r.u128(LittleEndian) }
func (r *Reader) ReadU128BE() (Uint128, error) { return r.u128(BigEndian) }

func (r *Reader) ReadI16() (int16, error) {
	v, err := r.u16(LittleEndian)
	return int16(v), err
}

func (r *Reader) ReadI16BE() (int16, error) {
	v, err := r.u16(BigEndian)
	return int16(v), err
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.u32(LittleEndian)
	return int32(v), err
}

func (r *Reader) ReadI32BE() (int32, error) {
	v, err := r.u32(BigEndian)
	return int32(v), err
}

func (r *Reader) ReadI64() (int64, error) {
	v, err := r.u64(LittleEndian)
	return int64(v), err
}

func (r *Reader) ReadI64BE() (int64, error) {
	v, err := r.u64(BigEndian)
	return int64(v), err
}

func (r *Reader) ReadI128() (Int128, error) {
	v, err := r.u128(LittleEndian)
	return Int128{Hi: int64(v.Hi), Lo: v.Lo}, err
}

func (r *Reader) ReadI128BE() (Int128, error) {
	v, err := r.u128(BigEndian)
	return Int128{Hi: int64(v.Hi), Lo: v.Lo}, err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.u32(LittleEndian)
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF32BE() (float32, error) {
	v, err := r.u32(BigEndian)
	return math.Float32frombits(v), err
}

func (r *Reader) ReadF64() (float64, error) {
	v, err := r.u64(LittleEndian)
	return math.Float64frombits(v), err
}

func (r *Reader) ReadF64BE() (float64, error) {
	v, err := r.u64(BigEndian)
	return math.Float64frombits(v), err
}

// ReadVec reads n elements using read.
func ReadVec[T any](r *Reader, n int, read func(*Reader) (T, error)) ([]T, error) {
	if n < 0 {
		return nil, types.RangeErr("read vec", "negative count %d", n)
	}
	// Cap preallocation so a corrupt count cannot force a huge allocation.
	out := make([]T, 0, min(n, 1<<16))
	for i := 0; i < n; i++ {
		v, err := read(r)
		if err != nil {
			return out, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Expect reads len(want) bytes and fails with a format error when they differ.
func (r *Reader) Expect(want []byte) error {
	got := make([]byte, len(want))
	if err := r.ReadFull(got); err != nil {
		return err
	}
	return CheckMagic(want, got)
}

// CheckMagic compares an already-read signature against want.
func CheckMagic(want, got []byte) error {
	if !bytes.Equal(want, got) {
		return &types.MismatchError{What: "magic", Expected: fmt.Sprintf("%q", want), Actual: fmt.Sprintf("%q", got)}
	}
	return nil
}

// ExpectUint reads an integer of width bytes and compares it with want.
func (r *Reader) ExpectUint(width int, o Order, want uint64) error {
	got, err := r.ReadUint(width, o)
	if err != nil {
		return err
	}
	if got != want {
		return &types.MismatchError{
			What:     fmt.Sprintf("u%d", width*8),
			Expected: fmt.Sprintf("%#x", want),
			Actual:   fmt.Sprintf("%#x", got),
		}
	}
	return nil
}

func (r *Reader) ExpectU8(want uint8) error    { return r.ExpectUint(1, LittleEndian, uint64(want)) }
func (r *Reader) ExpectU16(want uint16) error  { return r.ExpectUint(2, LittleEndian, uint64(want)) }
func (r *Reader) ExpectU16BE(want uint16) error { return r.ExpectUint(2, BigEndian, uint64(want)) }
func (r *Reader) ExpectU32(want uint32) error  { return r.ExpectUint(4, LittleEndian, uint64(want)) }
func (r *Reader) ExpectU32BE(want uint32) error { return r.ExpectUint(4, BigEndian, uint64(want)) }
