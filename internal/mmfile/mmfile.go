// Package mmfile opens input files as read-only byte slices, memory-mapped
// where the platform allows it.
package mmfile

import (
	"github.com/joshuapare/vnkit/pkg/stream"
)

// File is an opened input. Its bytes stay valid until Close.
type File struct {
	path  string
	data  []byte
	unmap func() error
}

// Path returns the path the file was opened from.
func (f *File) Path() string { return f.path }

// Bytes returns the file contents. Do not modify or retain them past Close.
func (f *File) Bytes() []byte { return f.data }

// Len returns the file size.
func (f *File) Len() int { return len(f.data) }

// Reader returns a fresh stream over the contents.
func (f *File) Reader() *stream.MemReader { return stream.NewMemReader(f.data) }

// Close releases the mapping. Calling it twice is a no-op.
func (f *File) Close() error {
	if f.unmap == nil {
		return nil
	}
	err := f.unmap()
	f.unmap, f.data = nil, nil
	return err
}
