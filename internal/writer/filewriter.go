package writer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const tempPattern = ".vnkit-tmp-*"

// FileWriter writes output to a filesystem path atomically.
type FileWriter struct {
	Path string
	// Mode applied to the final file; zero means 0o644.
	Mode os.FileMode
}

// WriteOutput writes buf to the configured path via temp file + rename.
func (w *FileWriter) WriteOutput(buf []byte) error {
	p, err := Create(w.Path, w.Mode)
	if err != nil {
		return err
	}
	if _, err := p.Write(buf); err != nil {
		p.Abort()
		return fmt.Errorf("write temp file: %w", err)
	}
	return p.Commit()
}

// Pending is a temp file that replaces its target only on Commit. It is an
// io.WriteSeeker, so a patch plan can write and fix up values in place.
type Pending struct {
	f      *os.File
	target string
	mode   os.FileMode
	done   bool
}

var _ io.WriteSeeker = (*Pending)(nil)

// Create opens a temp file next to target, creating parent directories.
func Create(target string, mode os.FileMode) (*Pending, error) {
	if mode == 0 {
		mode = 0o644
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	// Temp file in the same directory so the rename stays atomic.
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &Pending{f: f, target: target, mode: mode}, nil
}

func (p *Pending) Write(b []byte) (int, error) { return p.f.Write(b) }

func (p *Pending) Seek(offset int64, whence int) (int64, error) { return p.f.Seek(offset, whence) }

// Target returns the final path.
func (p *Pending) Target() string { return p.target }

// Commit syncs the temp file and renames it over the target.
func (p *Pending) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	tmpPath := p.f.Name()
	if err := p.f.Sync(); err != nil {
		_ = p.f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := p.f.Chmod(p.mode); err != nil {
		_ = p.f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := p.f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, p.target); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Abort discards the temp file. It is a no-op after Commit.
func (p *Pending) Abort() {
	if p.done {
		return
	}
	p.done = true
	_ = p.f.Close()
	_ = os.Remove(p.f.Name())
}
