package binio

import (
	"bytes"
	"errors"
	"io"

	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

// maxCString caps terminator scans so a missing NUL cannot consume a whole file.
const maxCString = 1 << 24

// ReadCStringBytes reads bytes up to and excluding a NUL terminator.
// End of stream also terminates the string, unless nothing was read.
func (r *Reader) ReadCStringBytes() ([]byte, error) {
	return r.readTerminated(1)
}

// ReadCStringWide reads 16-bit units up to a 0x0000 unit.
func (r *Reader) ReadCStringWide() ([]byte, error) {
	return r.readTerminated(2)
}

func (r *Reader) readTerminated(unit int) ([]byte, error) {
	var out []byte
	b := r.scratch[:unit]
	for {
		n, err := io.ReadFull(r.r, b)
		if err != nil {
			if (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) && (len(out) > 0 || n > 0) {
				return append(out, b[:n]...), nil
			}
			return nil, types.IOErr("read cstring", err)
		}
		if isZero(b) {
			return out, nil
		}
		out = append(out, b...)
		if len(out) > maxCString {
			return nil, types.RangeErr("read cstring", "no terminator within %d bytes", maxCString)
		}
	}
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func (r *Reader) decode(enc textenc.Encoding, b []byte) (string, error) {
	s, replaced, err := enc.Decode(b)
	if err != nil {
		return "", err
	}
	if replaced {
		r.replaced = true
	}
	return s, nil
}

// ReadCString reads a NUL-terminated string in enc. Wide encodings use a
// two-byte terminator.
func (r *Reader) ReadCString(enc textenc.Encoding) (string, error) {
	var (
		b   []byte
		err error
	)
	if enc.IsWide() {
		b, err = r.ReadCStringWide()
	} else {
		b, err = r.ReadCStringBytes()
	}
	if err != nil {
		return "", err
	}
	return r.decode(enc, b)
}

// ReadFixedString reads an n-byte field. With trim set, the field is cut at
// the first terminator.
func (r *Reader) ReadFixedString(n int, enc textenc.Encoding, trim bool) (string, error) {
	b, err := r.ReadExactVec(n)
	if err != nil {
		return "", err
	}
	if trim {
		b = TrimNUL(b, enc.IsWide())
	}
	return r.decode(enc, b)
}

// TrimNUL cuts b at its first terminator. Wide terminators are only matched
// on even offsets.
func TrimNUL(b []byte, wide bool) []byte {
	if !wide {
		if i := bytes.IndexByte(b, 0); i >= 0 {
			return b[:i]
		}
		return b
	}
	for i := 0; i+1 < len(b); i += 2 {
		if b[i] == 0 && b[i+1] == 0 {
			return b[:i]
		}
	}
	return b
}

// ReadPrefixedString reads a byte length of width bytes followed by the
// string data.
func (r *Reader) ReadPrefixedString(width int, o Order, enc textenc.Encoding) (string, error) {
	n, err := r.ReadUint(width, o)
	if err != nil {
		return "", err
	}
	if n > maxCString {
		return "", types.RangeErr("read prefixed string", "length %d too large", n)
	}
	return r.ReadFixedString(int(n), enc, false)
}

func (w *Writer) encode(enc textenc.Encoding, s string) ([]byte, error) {
	b, replaced, err := enc.Encode(s)
	if err != nil {
		return nil, err
	}
	if replaced {
		w.replaced = true
	}
	return b, nil
}

// WriteCString writes s in enc followed by its terminator.
func (w *Writer) WriteCString(s string, enc textenc.Encoding) error {
	b, err := w.encode(enc, s)
	if err != nil {
		return err
	}
	if err := w.WriteBytes(b); err != nil {
		return err
	}
	if enc.IsWide() {
		return w.WriteZeros(2)
	}
	return w.WriteU8(0)
}

// WriteFixedString writes s into exactly n bytes, zero padded. An encoded
// value longer than n is cut when truncate is set and a range error otherwise.
func (w *Writer) WriteFixedString(s string, n int, enc textenc.Encoding, truncate bool) error {
	b, err := w.encode(enc, s)
	if err != nil {
		return err
	}
	if len(b) > n {
		if !truncate {
			return types.RangeErr("write fixed string", "encoded length %d exceeds field size %d", len(b), n)
		}
		b = b[:n]
	}
	if err := w.WriteBytes(b); err != nil {
		return err
	}
	return w.WriteZeros(n - len(b))
}

// WritePrefixedString writes the encoded byte length in width bytes, then s.
func (w *Writer) WritePrefixedString(s string, width int, o Order, enc textenc.Encoding) error {
	b, err := w.encode(enc, s)
	if err != nil {
		return err
	}
	if err := w.WriteUint(uint64(len(b)), width, o); err != nil {
		return err
	}
	return w.WriteBytes(b)
}

func utf16Encoding(o Order) textenc.Encoding {
	if o == BigEndian {
		return textenc.New(textenc.UTF16BE)
	}
	return textenc.New(textenc.UTF16LE)
}

// ReadUTF16String reads a 0x0000-terminated UTF-16 string in byte order o.
func (r *Reader) ReadUTF16String(o Order) (string, error) {
	return r.ReadCString(utf16Encoding(o))
}

// WriteUTF16String writes s as UTF-16 in byte order o with a 0x0000 terminator.
func (w *Writer) WriteUTF16String(s string, o Order) error {
	return w.WriteCString(s, utf16Encoding(o))
}
