//go:build !unix

package mmfile

import (
	"os"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Open reads the whole file where mmap is unavailable.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.IOErr("read "+path, err)
	}
	return &File{path: path, data: data, unmap: func() error { return nil }}, nil
}
