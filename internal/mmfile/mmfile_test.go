package mmfile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/types"
)

func TestOpenSmallFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.bin")
	want := []byte{0xde, 0xad, 0xbe, 0xef, 0x42}
	require.NoError(t, os.WriteFile(path, want, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, want, f.Bytes())

	v, err := f.Reader().PeekU32BE()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xdeadbeef), v)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
}

func TestOpenMappedFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mmap test in short mode")
	}
	path := filepath.Join(t.TempDir(), "large.bin")
	want := bytes.Repeat([]byte("0123456789abcdef"), 16<<10)
	require.NoError(t, os.WriteFile(path, want, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	assert.Equal(t, len(want), f.Len())
	assert.True(t, bytes.Equal(want, f.Bytes()))
	assert.Equal(t, path, f.Path())
}

func TestOpenZeroLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Zero(t, f.Len())
	assert.True(t, f.Reader().EOF())
	require.NoError(t, f.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, types.ErrIO)
}
