// Package writer exposes sinks for rebuilt binaries and extracted text.
package writer

// Sink receives a complete output buffer.
type Sink interface {
	WriteOutput(buf []byte) error
}

// MemWriter captures output in memory.
type MemWriter struct {
	Buf []byte
}

// WriteOutput stores a copy of buf.
func (w *MemWriter) WriteOutput(buf []byte) error {
	w.Buf = append(w.Buf[:0], buf...)
	return nil
}
