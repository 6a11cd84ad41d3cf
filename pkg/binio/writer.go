package binio

import (
	"fmt"
	"io"
	"math"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Writer encodes typed values to an io.Writer.
type Writer struct {
	w        io.Writer
	scratch  [16]byte
	replaced bool
}

// NewWriter wraps w. If w is already a *Writer it is returned unchanged.
func NewWriter(w io.Writer) *Writer {
	if bw, ok := w.(*Writer); ok {
		return bw
	}
	return &Writer{w: w}
}

// Write implements io.Writer. Short writes are reported as errors.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return n, err
}

// Underlying returns the wrapped writer.
func (w *Writer) Underlying() io.Writer { return w.w }

// Replaced reports whether any string written so far substituted a character.
func (w *Writer) Replaced() bool { return w.replaced }

// WriteBytes writes p in full.
func (w *Writer) WriteBytes(p []byte) error {
	if _, err := w.Write(p); err != nil {
		return types.IOErr(fmt.Sprintf("write %d bytes", len(p)), err)
	}
	return nil
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	var zero [512]byte
	for n > 0 {
		k := min(n, len(zero))
		if err := w.WriteBytes(zero[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

func (w *Writer) put(op string, b []byte) error {
	if _, err := w.Write(b); err != nil {
		return types.IOErr("write "+op, err)
	}
	return nil
}

// WriteUint writes v as an unsigned integer of width 1, 2, 4 or 8 bytes.
// A value that does not fit the width is a range error.
func (w *Writer) WriteUint(v uint64, width int, o Order) error {
	if width != 1 && width != 2 && width != 4 && width != 8 {
		return types.UnsupportedErr("write uint", "width %d", width)
	}
	if !FitsUint(v, width) {
		return types.RangeErr("write uint", "value %#x does not fit in %d bytes", v, width)
	}
	b := w.scratch[:width]
	if err := o.PutUint(b, width, v); err != nil {
		return err
	}
	return w.put(fmt.Sprintf("u%d", width*8), b)
}

// WriteInt writes v as a two's complement integer of width bytes.
func (w *Writer) WriteInt(v int64, width int, o Order) error {
	if !FitsInt(v, width) {
		return types.RangeErr("write int", "value %d does not fit in %d bytes", v, width)
	}
	mask := uint64(math.MaxUint64)
	if width < 8 {
		mask = 1<<(uint(width)*8) - 1
	}
	return w.WriteUint(uint64(v)&mask, width, o)
}

// WriteFloat writes v as an IEEE-754 float of width 4 or 8 bytes.
func (w *Writer) WriteFloat(v float64, width int, o Order) error {
	switch width {
	case 4:
		return w.WriteUint(uint64(math.Float32bits(float32(v))), 4, o)
	case 8:
		return w.WriteUint(math.Float64bits(v), 8, o)
	default:
		return types.UnsupportedErr("write float", "width %d", width)
	}
}

func (w *Writer) u16(v uint16, o Order) error {
	b := w.scratch[:2]
	o.ByteOrder().PutUint16(b, v)
	return w.put("u16", b)
}

func (w *Writer) u32(v uint32, o Order) error {
	b := w.scratch[:4]
	o.ByteOrder().PutUint32(b, v)
	return w.put("u32", b)
}

func (w *Writer) u64(v uint64, o Order) error {
	b := w.scratch[:8]
	o.ByteOrder().PutUint64(b, v)
	return w.put("u64", b)
}

func (w *Writer) u128(v Uint128, o Order) error {
	b := w.scratch[:16]
	o.PutUint128(b, v)
	return w.put("u128", b)
}

func (w *Writer) WriteU8(v uint8) error {
	w.scratch[0] = v
	return w.put("u8", w.scratch[:1])
}

func (w *Writer) WriteI8(v int8) error { return w.WriteU8(uint8(v)) }

func (w *Writer) WriteU16(v uint16) error   { return w.u16(v, LittleEndian) }
func (w *Writer) WriteU16BE(v uint16) error { return w.u16(v, BigEndian) }
func (w *Writer) WriteU32(v uint32) error   { return w.u32(v, LittleEndian) }
func (w *Writer) WriteU32BE(v uint32) error { return w.u32(v, BigEndian) }
func (w *Writer) WriteU64(v uint64) error   { return w.u64(v, LittleEndian) }
func (w *Writer) WriteU64BE(v uint64) error { return w.u64(v, BigEndian) }

func (w *Writer) WriteU128(v Uint128) error   { return w.u128(v, LittleEndian) }
func (w *Writer) WriteU128BE(v Uint128) error { return w.u128(v, BigEndian) }

func (w *Writer) WriteI16(v int16) error   { return w.u16(uint16(v), LittleEndian) }
func (w *Writer) WriteI16BE(v int16) error { return w.u16(uint16(v), BigEndian) }
func (w *Writer) WriteI32(v int32) error   { return w.u32(uint32(v), LittleEndian) }
func (w *Writer) WriteI32BE(v int32) error { return w.u32(uint32(v), BigEndian) }
func (w *Writer) WriteI64(v int64) error   { return w.u64(uint64(v), LittleEndian) }
func (w *Writer) WriteI64BE(v int64) error { return w.u64(uint64(v), BigEndian) }

func (w *Writer) WriteI128(v Int128) error {
	return w.u128(Uint128{Hi: uint64(v.Hi), Lo: v.Lo}, LittleEndian)
}

func (w *Writer) WriteI128BE(v Int128) error {
	return w.u128(Uint128{Hi: uint64(v.Hi), Lo: v.Lo}, BigEndian)
}

func (w *Writer) WriteF32(v float32) error   { return w.u32(math.Float32bits(v), LittleEndian) }
func (w *Writer) WriteF32BE(v float32) error { return w.u32(math.Float32bits(v), BigEndian) }
func (w *Writer) WriteF64(v float64) error   { return w.u64(math.Float64bits(v), LittleEndian) }
func (w *Writer) WriteF64BE(v float64) error { return w.u64(math.Float64bits(v), BigEndian) }
