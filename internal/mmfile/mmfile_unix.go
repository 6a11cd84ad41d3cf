//go:build unix

package mmfile

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/vnkit/pkg/types"
)

// smallFile is the size below which reading beats mapping.
const smallFile = 64 << 10

// Open maps the file at path read-only.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, types.IOErr("open "+path, err)
	}
	defer f.Close() // the mapping outlives the descriptor

	info, err := f.Stat()
	if err != nil {
		return nil, types.IOErr("stat "+path, err)
	}
	size := info.Size()
	if size > int64(^uint(0)>>1) {
		return nil, types.RangeErr("open "+path, "file too large to map (%d bytes)", size)
	}
	if size < smallFile {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, types.IOErr("read "+path, err)
		}
		return &File{path: path, data: data, unmap: func() error { return nil }}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, types.IOErr("mmap "+path, err)
	}
	// Codecs mostly walk inputs front to back.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)

	unmap := func() error {
		err := unix.Munmap(data)
		if errors.Is(err, unix.EINVAL) {
			return nil
		}
		return err
	}
	return &File{path: path, data: data, unmap: unmap}, nil
}
