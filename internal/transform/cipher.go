package transform

import (
	"fmt"
	"io"

	"golang.org/x/crypto/blowfish"

	"github.com/joshuapare/vnkit/pkg/types"
)

// blowfishTransform runs Blowfish in ECB mode over whole 8-byte blocks. A
// trailing partial block is stored in the clear, which is what archive
// formats using this scheme do.
func blowfishTransform(key []byte) (Transform, error) {
	if len(key) == 0 {
		return Transform{}, fmt.Errorf("blowfish-ecb: %w", ErrKeyRequired)
	}
	bf, err := blowfish.NewCipher(key)
	if err != nil {
		return Transform{}, fmt.Errorf("blowfish init: %w", err)
	}
	ecb := func(in []byte, crypt func(dst, src []byte)) []byte {
		out := append([]byte(nil), in...)
		for i := 0; i+blowfish.BlockSize <= len(out); i += blowfish.BlockSize {
			crypt(out[i:i+blowfish.BlockSize], out[i:i+blowfish.BlockSize])
		}
		return out
	}
	return Transform{
		Name:   "blowfish-ecb",
		Encode: func(in []byte) ([]byte, error) { return ecb(in, bf.Encrypt), nil },
		Decode: func(in []byte, limit int64) ([]byte, error) {
			if err := checkLimit("blowfish-ecb", int64(len(in)), limit); err != nil {
				return nil, err
			}
			return ecb(in, bf.Decrypt), nil
		},
	}, nil
}

// xorTransform repeats key over the data.
func xorTransform(key []byte) (Transform, error) {
	if len(key) == 0 {
		return Transform{}, fmt.Errorf("xor: %w", ErrKeyRequired)
	}
	apply := func(in []byte) []byte {
		out := make([]byte, len(in))
		xorAt(out, in, key, 0)
		return out
	}
	return Transform{
		Name:   "xor",
		Encode: func(in []byte) ([]byte, error) { return apply(in), nil },
		Decode: func(in []byte, limit int64) ([]byte, error) {
			if err := checkLimit("xor", int64(len(in)), limit); err != nil {
				return nil, err
			}
			return apply(in), nil
		},
	}, nil
}

// xorAt writes src^key into dst, where src[0] sits at stream position pos.
func xorAt(dst, src, key []byte, pos int64) {
	k := int64(len(key))
	for i := range src {
		dst[i] = src[i] ^ key[(pos+int64(i))%k]
	}
}

// XorReader decodes a XOR-obfuscated stream on the fly. It is seekable when
// the underlying reader is.
type XorReader struct {
	r   io.Reader
	key []byte
	pos int64
}

// NewXorReader wraps r. key must not be empty.
func NewXorReader(r io.Reader, key []byte) (*XorReader, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("xor reader: %w", ErrKeyRequired)
	}
	return &XorReader{r: r, key: key}, nil
}

func (x *XorReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	xorAt(p[:n], p[:n], x.key, x.pos)
	x.pos += int64(n)
	return n, err
}

func (x *XorReader) Seek(offset int64, whence int) (int64, error) {
	s, ok := x.r.(io.Seeker)
	if !ok {
		return x.pos, types.UnsupportedErr("xor seek", "%T is not seekable", x.r)
	}
	pos, err := s.Seek(offset, whence)
	if err != nil {
		return x.pos, err
	}
	x.pos = pos
	return pos, nil
}

// XorWriter obfuscates bytes on their way to w.
type XorWriter struct {
	w   io.Writer
	key []byte
	pos int64
	buf []byte
}

// NewXorWriter wraps w. key must not be empty.
func NewXorWriter(w io.Writer, key []byte) (*XorWriter, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("xor writer: %w", ErrKeyRequired)
	}
	return &XorWriter{w: w, key: key}, nil
}

func (x *XorWriter) Write(p []byte) (int, error) {
	if cap(x.buf) < len(p) {
		x.buf = make([]byte, len(p))
	}
	b := x.buf[:len(p)]
	xorAt(b, p, x.key, x.pos)
	n, err := x.w.Write(b)
	x.pos += int64(n)
	return n, err
}
