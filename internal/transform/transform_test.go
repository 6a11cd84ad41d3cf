package transform

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/types"
)

var sampleText = bytes.Repeat([]byte("こんにちは、世界。 hello world\n"), 64)

func TestRoundTripAll(t *testing.T) {
	key := []byte("secret-key")
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			tr, err := Lookup(name, key)
			require.NoError(t, err)
			enc, err := tr.Encode(sampleText)
			require.NoError(t, err)
			dec, err := tr.Decode(enc, int64(len(sampleText)))
			require.NoError(t, err)
			assert.Equal(t, sampleText, dec)
		})
	}
}

func TestDecodeLimit(t *testing.T) {
	for _, name := range []string{"zstd", "lz4", "brotli", "zlib", "deflate"} {
		t.Run(name, func(t *testing.T) {
			tr, err := Lookup(name, nil)
			require.NoError(t, err)
			enc, err := tr.Encode(sampleText)
			require.NoError(t, err)
			_, err = tr.Decode(enc, 10)
			assert.ErrorIs(t, err, ErrLimitExceeded)
		})
	}
}

func TestCorruptInputIsFormatError(t *testing.T) {
	tr, err := Lookup("zlib", nil)
	require.NoError(t, err)
	_, err = tr.Decode([]byte{1, 2, 3, 4}, 0)
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestLookupErrors(t *testing.T) {
	_, err := Lookup("rot13", nil)
	assert.ErrorIs(t, err, types.ErrUnsupported)

	_, err = Lookup("blowfish-ecb", nil)
	assert.ErrorIs(t, err, ErrKeyRequired)

	tr, err := Lookup("", nil)
	require.NoError(t, err)
	assert.Equal(t, "none", tr.Name)
}

func TestBlowfishLeavesPartialBlock(t *testing.T) {
	tr, err := Lookup("blowfish-ecb", []byte("k3y"))
	require.NoError(t, err)
	in := []byte("0123456789")
	enc, err := tr.Encode(in)
	require.NoError(t, err)
	assert.NotEqual(t, in[:8], enc[:8])
	assert.Equal(t, in[8:], enc[8:])
}

func TestXorStreams(t *testing.T) {
	key := []byte{0x5A, 0xA5}
	var buf bytes.Buffer
	w, err := NewXorWriter(&buf, key)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("def"))
	require.NoError(t, err)

	r, err := NewXorReader(bytes.NewReader(buf.Bytes()), key)
	require.NoError(t, err)
	_, err = r.Seek(3, io.SeekStart)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "def", string(got))
}

func TestZstdWriterInjection(t *testing.T) {
	orig := newZstdWriter
	defer func() { newZstdWriter = orig }()
	boom := errors.New("boom")
	newZstdWriter = func() (*zstd.Encoder, error) { return nil, boom }

	tr, err := Lookup("zstd", nil)
	require.NoError(t, err)
	_, err = tr.Encode([]byte("x"))
	assert.ErrorIs(t, err, boom)
}
