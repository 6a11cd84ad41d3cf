// Package bitstream reads and writes values of arbitrary bit width.
//
// Bit order is always chosen by the caller: MSBFirst fills each byte from
// bit 7 down, as most packed image and LZ formats do; LSBFirst fills from
// bit 0 up, as deflate-style formats do. Multi-bit values keep their natural
// significance in both orders: under MSBFirst the value's high bit is
// written first, under LSBFirst its low bit is.
package bitstream

import (
	"bufio"
	"fmt"
	"io"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Order is the bit packing order within a byte.
type Order int

const (
	MSBFirst Order = iota
	LSBFirst
)

func (o Order) String() string {
	if o == LSBFirst {
		return "lsb-first"
	}
	return "msb-first"
}

// MaxBits is the widest value a single call handles.
const MaxBits = 64

// Reader consumes bits from a byte stream.
type Reader struct {
	r     io.ByteReader
	order Order
	cur   byte
	nbits uint // unread bits left in cur
	bytes int64
}

// NewReader reads from r. Readers that do not implement io.ByteReader are
// wrapped in a bufio.Reader, which may read ahead of the last consumed byte.
func NewReader(r io.Reader, order Order) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br, order: order}
}

func (r *Reader) next() error {
	c, err := r.r.ReadByte()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return types.IOErr("read bits", err)
	}
	r.cur = c
	r.nbits = 8
	r.bytes++
	return nil
}

// ReadBits reads an n-bit unsigned value, 0 <= n <= 64.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > MaxBits {
		return 0, types.RangeErr("read bits", "width %d outside [0, %d]", n, MaxBits)
	}
	var v uint64
	for got := 0; got < n; {
		if r.nbits == 0 {
			if err := r.next(); err != nil {
				return 0, err
			}
		}
		take := min(uint(n-got), r.nbits)
		mask := byte(1<<take - 1)
		if r.order == MSBFirst {
			chunk := (r.cur >> (r.nbits - take)) & mask
			v = v<<take | uint64(chunk)
		} else {
			consumed := 8 - r.nbits
			chunk := (r.cur >> consumed) & mask
			v |= uint64(chunk) << uint(got)
		}
		r.nbits -= take
		got += int(take)
	}
	return v, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadSigned reads an n-bit two's complement value.
func (r *Reader) ReadSigned(n int) (int64, error) {
	v, err := r.ReadBits(n)
	if err != nil || n == 0 || n == 64 {
		return int64(v), err
	}
	shift := uint(64 - n)
	return int64(v<<shift) >> shift, nil
}

// Align discards the unread bits of the current byte.
func (r *Reader) Align() { r.nbits = 0 }

// BytePos is the number of bytes started so far.
func (r *Reader) BytePos() int64 { return r.bytes }

// BitOffset is the number of bits consumed from the current byte, 0 to 7.
func (r *Reader) BitOffset() int { return int(8-r.nbits) % 8 }

// Writer emits bits to a byte stream.
type Writer struct {
	w     io.Writer
	order Order
	cur   byte
	nbits uint // bits filled in cur
	bytes int64
}

// NewWriter writes to w. Call Flush to emit a final partial byte.
func NewWriter(w io.Writer, order Order) *Writer {
	return &Writer{w: w, order: order}
}

func (w *Writer) emit() error {
	if _, err := w.w.Write([]byte{w.cur}); err != nil {
		return types.IOErr("write bits", err)
	}
	w.cur, w.nbits = 0, 0
	w.bytes++
	return nil
}

// WriteBits writes the low n bits of v. Set bits above n are a range error.
func (w *Writer) WriteBits(n int, v uint64) error {
	if n < 0 || n > MaxBits {
		return types.RangeErr("write bits", "width %d outside [0, %d]", n, MaxBits)
	}
	if n < 64 && v>>uint(n) != 0 {
		return types.RangeErr("write bits", "value %#x does not fit in %d bits", v, n)
	}
	for left := n; left > 0; {
		take := min(uint(left), 8-w.nbits)
		mask := uint64(1)<<take - 1
		if w.order == MSBFirst {
			chunk := byte((v >> uint(left-int(take))) & mask)
			w.cur |= chunk << (8 - w.nbits - take)
		} else {
			done := n - left
			chunk := byte((v >> uint(done)) & mask)
			w.cur |= chunk << w.nbits
		}
		w.nbits += take
		left -= int(take)
		if w.nbits == 8 {
			if err := w.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(b bool) error {
	if b {
		return w.WriteBits(1, 1)
	}
	return w.WriteBits(1, 0)
}

// Flush zero-pads and writes a pending partial byte.
func (w *Writer) Flush() error {
	if w.nbits == 0 {
		return nil
	}
	return w.emit()
}

// Written is the number of whole bytes emitted.
func (w *Writer) Written() int64 { return w.bytes }

// BitOffset is the number of bits pending in the current byte.
func (w *Writer) BitOffset() int { return int(w.nbits) }

func (w *Writer) String() string {
	return fmt.Sprintf("bitstream.Writer{%v, bytes=%d, bits=%d}", w.order, w.bytes, w.nbits)
}
