package transform

import (
	"bytes"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Function variables for testing injection.
var (
	newZstdWriter = func() (*zstd.Encoder, error) { return zstd.NewWriter(nil) }
	newZstdReader = func() (*zstd.Decoder, error) { return zstd.NewReader(nil) }
	readAll       = io.ReadAll
)

// readLimited drains r, failing if it yields more than limit bytes.
func readLimited(name string, r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	b, err := readAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, corrupt(name, err)
	}
	if err := checkLimit(name, int64(len(b)), limit); err != nil {
		return nil, err
	}
	return b, nil
}

// writeClose runs the usual write-then-close sequence of a compressing writer.
func writeClose(w io.WriteCloser, in []byte) error {
	if _, err := w.Write(in); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func zstdTransform() Transform {
	return Transform{
		Name: "zstd",
		Encode: func(in []byte) ([]byte, error) {
			enc, err := newZstdWriter()
			if err != nil {
				return nil, err
			}
			defer enc.Close()
			return enc.EncodeAll(in, nil), nil
		},
		Decode: func(in []byte, limit int64) ([]byte, error) {
			dec, err := newZstdReader()
			if err != nil {
				return nil, err
			}
			defer dec.Close()
			if err := dec.Reset(bytes.NewReader(in)); err != nil {
				return nil, corrupt("zstd", err)
			}
			return readLimited("zstd", dec, limit)
		},
	}
}

func lz4Transform() Transform {
	return Transform{
		Name: "lz4",
		Encode: func(in []byte) ([]byte, error) {
			var buf bytes.Buffer
			if err := writeClose(lz4.NewWriter(&buf), in); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(in []byte, limit int64) ([]byte, error) {
			return readLimited("lz4", lz4.NewReader(bytes.NewReader(in)), limit)
		},
	}
}

func brotliTransform() Transform {
	return Transform{
		Name: "brotli",
		Encode: func(in []byte) ([]byte, error) {
			var buf bytes.Buffer
			if err := writeClose(brotli.NewWriter(&buf), in); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(in []byte, limit int64) ([]byte, error) {
			return readLimited("brotli", brotli.NewReader(bytes.NewReader(in)), limit)
		},
	}
}

func zlibTransform() Transform {
	return Transform{
		Name: "zlib",
		Encode: func(in []byte) ([]byte, error) {
			var buf bytes.Buffer
			if err := writeClose(zlib.NewWriter(&buf), in); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(in []byte, limit int64) ([]byte, error) {
			zr, err := zlib.NewReader(bytes.NewReader(in))
			if err != nil {
				return nil, corrupt("zlib", err)
			}
			defer zr.Close()
			return readLimited("zlib", zr, limit)
		},
	}
}

func deflateTransform() Transform {
	return Transform{
		Name: "deflate",
		Encode: func(in []byte) ([]byte, error) {
			var buf bytes.Buffer
			fw, err := flate.NewWriter(&buf, flate.BestCompression)
			if err != nil {
				return nil, err
			}
			if err := writeClose(fw, in); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		Decode: func(in []byte, limit int64) ([]byte, error) {
			fr := flate.NewReader(bytes.NewReader(in))
			defer fr.Close()
			return readLimited("deflate", fr, limit)
		},
	}
}
