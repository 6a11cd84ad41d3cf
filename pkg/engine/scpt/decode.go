package scpt

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/joshuapare/vnkit/internal/transform"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/schema"
	"github.com/joshuapare/vnkit/pkg/stream"
	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

// poolReader is the peek surface decode needs from either pool form.
type poolReader interface {
	PeekCStringAt(off int64, enc textenc.Encoding) (string, error)
	PeekAt(off int64, buf []byte) (int, error)
	Replaced() bool
}

// layout is a parsed SCPT file.
type layout struct {
	packed    bool
	name      string
	pointers  []uint32
	poolStart int64 // file offset of the pool (plain) or of the stored bytes (packed)
	poolLen   int64 // pool length in its decoded form
	pool      poolReader
	raw       []byte // decoded pool, packed files only
	unit      int64  // terminator width: 2 for UTF-16, else 1
}

// span is one string in the pool: [start, end) followed by a terminator of
// one code unit.
type span struct {
	start, end int64
}

func parse(in engine.Input, cfg engine.Config) (*layout, error) {
	size, err := binio.StreamLength(in.Data)
	if err != nil {
		return nil, err
	}
	if err := binio.SeekTo(in.Data, 0); err != nil {
		return nil, err
	}
	// Header, pointer table and pool each read through their own cursor on
	// one shared stream.
	shared := stream.NewSharedPeeker(in.Data)
	head := make([]byte, 4)
	if err := shared.PeekExactAt(0, head); err != nil {
		return nil, err
	}
	l := &layout{packed: bytes.Equal(head, magicPacked), unit: 1}
	if cfg.InputEncoding().IsWide() {
		l.unit = 2
	}
	hdrSchema := PlainHeader
	if l.packed {
		hdrSchema = Header
	}

	opts := schema.Options{Order: cfg.ByteOrder(binio.LittleEndian), Encoding: cfg.InputEncoding()}
	hdr, err := shared.PeekStructAt(0, hdrSchema, opts)
	if err != nil {
		return nil, err
	}
	count, _ := hdr.Uint("length")
	l.name, _ = hdr.String("name")

	tableEnd := headerSize + int64(count)*pointerSize
	if tableEnd > size {
		return nil, types.FormatErr("scpt", "pointer table of %d entries exceeds file size %d", count, size)
	}
	read := (*binio.Reader).ReadU32
	if cfg.Order != nil && *cfg.Order == binio.BigEndian {
		read = (*binio.Reader).ReadU32BE
	}
	br := binio.NewReader(shared.Cursor(headerSize))
	l.pointers, err = binio.ReadVec(br, int(count), read)
	if err != nil {
		return nil, err
	}

	if !l.packed {
		l.poolStart = tableEnd
		l.poolLen = size - tableEnd
		region, err := stream.NewRegion(shared.Cursor(0), l.poolStart, l.poolLen)
		if err != nil {
			return nil, err
		}
		l.pool = region
		return l, nil
	}

	lengths, err := schema.Read(br, packedLengths, schema.Options{})
	if err != nil {
		return nil, err
	}
	stored, _ := lengths.Uint("stored")
	decoded, _ := lengths.Uint("decoded")
	l.poolStart = tableEnd + 8
	if l.poolStart+int64(stored) > size {
		return nil, types.FormatErr("scpt", "stored pool of %d bytes exceeds file size %d", stored, size)
	}
	storedBytes, err := br.ReadExactVec(int(stored))
	if err != nil {
		return nil, err
	}
	tr, err := transform.Lookup(cfg.Transform, cfg.Key)
	if err != nil {
		return nil, err
	}
	l.raw, err = tr.Decode(storedBytes, int64(decoded))
	if err != nil {
		return nil, fmt.Errorf("scpt pool: %w", err)
	}
	if int64(len(l.raw)) != int64(decoded) {
		return nil, types.FormatErr("scpt", "pool decoded to %d bytes, header says %d", len(l.raw), decoded)
	}
	l.poolLen = int64(decoded)
	l.pool = stream.NewMemReader(l.raw)
	return l, nil
}

// spans resolves every distinct pointer target to its string extent, sorted
// by start. Strings must not overlap.
func (l *layout) spans() ([]span, error) {
	starts := make([]int64, 0, len(l.pointers))
	seen := make(map[int64]bool, len(l.pointers))
	for i, a := range l.pointers {
		off := int64(a)
		if off >= l.poolLen {
			return nil, types.FormatErr("scpt", "pointer %d addresses %d outside pool of %d bytes", i, off, l.poolLen)
		}
		if !seen[off] {
			seen[off] = true
			starts = append(starts, off)
		}
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	out := make([]span, 0, len(starts))
	buf := make([]byte, 256)
	for i, start := range starts {
		end, err := l.terminator(start, buf)
		if err != nil {
			return nil, err
		}
		if i+1 < len(starts) && end+l.unit > starts[i+1] {
			return nil, types.UnsupportedErr("scpt", "string at %d overlaps string at %d", start, starts[i+1])
		}
		out = append(out, span{start: start, end: end})
	}
	return out, nil
}

// terminator finds the zero code unit ending the string at start. Wide
// units are aligned to start.
func (l *layout) terminator(start int64, buf []byte) (int64, error) {
	for off := start; off+l.unit <= l.poolLen; {
		n, err := l.pool.PeekAt(off, buf)
		if err != nil {
			return 0, err
		}
		n -= n % int(l.unit)
		if n == 0 {
			break
		}
		for i := 0; i < n; i += int(l.unit) {
			if isZero(buf[i : i+int(l.unit)]) {
				return off + int64(i), nil
			}
		}
		off += int64(n)
	}
	return 0, types.FormatErr("scpt", "string at %d has no terminator", start)
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// Decode extracts one message per pointer.
func (c *Codec) Decode(ctx context.Context, in engine.Input, cfg engine.Config) (*engine.Script, types.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.OutcomeError, err
	}
	l, err := parse(in, cfg)
	if err != nil {
		return nil, types.OutcomeError, err
	}
	if len(l.pointers) == 0 {
		return nil, types.OutcomeIgnored, fmt.Errorf("scpt %s: no strings: %w", in.Name, types.ErrIgnored)
	}
	enc := cfg.InputEncoding()
	script := &engine.Script{Engine: Tag, Name: l.name, Messages: make([]engine.Message, 0, len(l.pointers))}
	for i, a := range l.pointers {
		if int64(a) >= l.poolLen {
			return nil, types.OutcomeError, types.FormatErr("scpt", "pointer %d addresses %d outside pool of %d bytes", i, a, l.poolLen)
		}
		s, err := l.pool.PeekCStringAt(int64(a), enc)
		if err != nil {
			return nil, types.OutcomeError, fmt.Errorf("scpt string %d: %w", i, err)
		}
		script.Messages = append(script.Messages, engine.Message{Text: s})
	}
	cfg.Log().Debug("scpt decoded", "file", in.Name, "strings", len(script.Messages), "packed", l.packed)
	return script, types.Classify(nil, l.pool.Replaced()), nil
}
