// Package patch rebuilds a binary from an original by copying unchanged byte
// ranges and replacing edited ones, then fixes up stored offsets and
// addresses that pointed into relocated data.
//
// A Plan is built in two phases. While building, the caller appends
// segments in strictly increasing, gap-free order of original offsets; each
// segment's output range is recorded in the relocation table. Finalize
// checks that the segments cover the whole original. After that, MapOffset
// and the Patch* methods translate original offsets to output offsets and
// rewrite values in place.
package patch

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/stream"
	"github.com/joshuapare/vnkit/pkg/types"
)

// Kind says how a segment was produced.
type Kind int

const (
	Copy Kind = iota
	Replace
)

func (k Kind) String() string {
	if k == Replace {
		return "replace"
	}
	return "copy"
}

// Segment is one relocation table entry: original range [OldStart, OldEnd)
// was written to output range [NewStart, NewEnd).
type Segment struct {
	Kind     Kind
	OldStart int64
	OldEnd   int64
	NewStart int64
	NewEnd   int64
}

func (s Segment) String() string {
	return fmt.Sprintf("%v [%d,%d) -> [%d,%d)", s.Kind, s.OldStart, s.OldEnd, s.NewStart, s.NewEnd)
}

// OffsetToAddress converts a file offset into the value a format stores.
type OffsetToAddress func(off int64) (uint64, error)

// AddressToOffset is the inverse of OffsetToAddress.
type AddressToOffset func(addr uint64) (int64, error)

// Option configures a Plan.
type Option func(*Plan)

// WithAddressResolver sets the offset/address pair used by PatchAddressAt.
// The two functions must be inverse over the addressable range. Without it,
// addresses are plain file offsets.
func WithAddressResolver(toAddr OffsetToAddress, toOff AddressToOffset) Option {
	return func(p *Plan) {
		p.toAddr, p.toOff = toAddr, toOff
	}
}

// WithOrder sets the byte order of patched values. Default little-endian.
func WithOrder(o binio.Order) Option {
	return func(p *Plan) { p.order = o }
}

// WithLogger sets a debug logger for segment and patch events.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plan) {
		if l != nil {
			p.log = l
		}
	}
}

// Plan is an in-progress or finalized rebuild. It owns its relocation table
// and borrows the source and destination streams.
type Plan struct {
	src    io.ReadSeeker
	peek   *stream.Peeker
	srcLen int64

	dst    io.WriteSeeker
	base   int64 // dst position of output offset 0
	outLen int64

	segs      []Segment
	next      int64
	finalized bool

	order  binio.Order
	toAddr OffsetToAddress
	toOff  AddressToOffset
	log    *slog.Logger
}

// New starts a plan reading the original from src and writing to dst at its
// current position.
func New(src io.ReadSeeker, dst io.WriteSeeker, opts ...Option) (*Plan, error) {
	srcLen, err := binio.StreamLength(src)
	if err != nil {
		return nil, err
	}
	base, err := binio.Tell(dst)
	if err != nil {
		return nil, err
	}
	p := &Plan{
		src:    src,
		peek:   stream.NewPeeker(src),
		srcLen: srcLen,
		dst:    dst,
		base:   base,
		toAddr: func(off int64) (uint64, error) { return uint64(off), nil },
		toOff:  func(addr uint64) (int64, error) { return int64(addr), nil },
		log:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// NewBytes is New over an in-memory original.
func NewBytes(src []byte, dst io.WriteSeeker, opts ...Option) (*Plan, error) {
	return New(stream.NewMemReader(src), dst, opts...)
}

// SourceLen returns the length of the original.
func (p *Plan) SourceLen() int64 { return p.srcLen }

// Next returns the first original offset not yet covered by a segment.
func (p *Plan) Next() int64 { return p.next }

// OutputLen returns the number of bytes written so far.
func (p *Plan) OutputLen() int64 { return p.outLen }

// Finalized reports whether Finalize has succeeded.
func (p *Plan) Finalized() bool { return p.finalized }

// Segments returns a copy of the relocation table.
func (p *Plan) Segments() []Segment {
	return append([]Segment(nil), p.segs...)
}

func (p *Plan) checkAppend(op string, oldStart, oldEnd int64) error {
	if p.finalized {
		return types.RangeErr(op, "plan is finalized")
	}
	if oldStart != p.next {
		if oldStart < p.next {
			return types.RangeErr(op, "range [%d,%d) overlaps covered prefix [0,%d)", oldStart, oldEnd, p.next)
		}
		return types.RangeErr(op, "range [%d,%d) leaves gap [%d,%d)", oldStart, oldEnd, p.next, oldStart)
	}
	if oldEnd < oldStart {
		return types.RangeErr(op, "inverted range [%d,%d)", oldStart, oldEnd)
	}
	if oldEnd > p.srcLen {
		return types.RangeErr(op, "range [%d,%d) exceeds original length %d", oldStart, oldEnd, p.srcLen)
	}
	return nil
}

func (p *Plan) seekOut() error {
	return binio.SeekTo(p.dst, p.base+p.outLen)
}

func (p *Plan) record(kind Kind, oldStart, oldEnd, written int64) {
	seg := Segment{
		Kind:     kind,
		OldStart: oldStart,
		OldEnd:   oldEnd,
		NewStart: p.outLen,
		NewEnd:   p.outLen + written,
	}
	p.segs = append(p.segs, seg)
	p.next = oldEnd
	p.outLen = seg.NewEnd
	p.log.Debug("patch segment", "segment", seg.String())
}

// CopyRange copies original bytes [oldStart, oldEnd) verbatim.
func (p *Plan) CopyRange(oldStart, oldEnd int64) error {
	if err := p.checkAppend("copy range", oldStart, oldEnd); err != nil {
		return err
	}
	if oldEnd == oldStart {
		return nil
	}
	region, err := stream.NewRegion(p.src, oldStart, oldEnd-oldStart)
	if err != nil {
		return err
	}
	if err := p.seekOut(); err != nil {
		return err
	}
	if err := binio.CopyN(p.dst, region, oldEnd-oldStart); err != nil {
		return fmt.Errorf("copy range [%d,%d): %w", oldStart, oldEnd, err)
	}
	p.record(Copy, oldStart, oldEnd, oldEnd-oldStart)
	return nil
}

// CopyUpTo copies from the end of the last segment to oldEnd.
func (p *Plan) CopyUpTo(oldEnd int64) error {
	return p.CopyRange(p.next, oldEnd)
}

// ReplaceRange substitutes whatever produce writes for original bytes
// [oldStart, oldEnd). The replacement may have any length; an empty
// original range inserts.
func (p *Plan) ReplaceRange(oldStart, oldEnd int64, produce func(w io.Writer) error) error {
	if err := p.checkAppend("replace range", oldStart, oldEnd); err != nil {
		return err
	}
	if err := p.seekOut(); err != nil {
		return err
	}
	cw := stream.NewCountingWriter(p.dst)
	if err := produce(cw); err != nil {
		return fmt.Errorf("replace range [%d,%d): %w", oldStart, oldEnd, err)
	}
	p.record(Replace, oldStart, oldEnd, cw.Count())
	return nil
}

// ReplaceBytes is ReplaceRange with a fixed replacement.
func (p *Plan) ReplaceBytes(oldStart, oldEnd int64, data []byte) error {
	return p.ReplaceRange(oldStart, oldEnd, func(w io.Writer) error {
		return binio.NewWriter(w).WriteBytes(data)
	})
}

// Finalize freezes the plan once segments cover the whole original.
func (p *Plan) Finalize() error {
	if p.finalized {
		return nil
	}
	if p.next != p.srcLen {
		return types.RangeErr("finalize", "segments cover [0,%d) of %d bytes", p.next, p.srcLen)
	}
	p.finalized = true
	p.log.Debug("patch finalized", "segments", len(p.segs), "in", p.srcLen, "out", p.outLen)
	return nil
}

// find returns the segment containing old. With insertions set, a
// zero-length Replace starting at old wins over the segment that follows it.
func (p *Plan) find(old int64, insertions bool) (Segment, bool) {
	i := sort.Search(len(p.segs), func(i int) bool { return p.segs[i].OldEnd >= old })
	for ; i < len(p.segs); i++ {
		seg := p.segs[i]
		if seg.OldStart > old {
			break
		}
		if seg.OldStart == seg.OldEnd {
			if insertions && seg.OldStart == old {
				return seg, true
			}
			continue
		}
		if seg.OldEnd > old {
			return seg, true
		}
	}
	return Segment{}, false
}

// MapOffset translates an original offset into the output. Offsets inside a
// Copy segment shift with it; a Replace segment maps only its start. The
// original length maps to the output length once the plan is finalized.
func (p *Plan) MapOffset(old int64) (int64, error) {
	if p.finalized && old == p.srcLen {
		return p.outLen, nil
	}
	seg, ok := p.find(old, true)
	if !ok {
		return 0, types.RangeErr("map offset", "offset %d not covered by any segment", old)
	}
	if seg.Kind == Replace && old != seg.OldStart {
		return 0, types.RangeErr("map offset", "offset %d is inside replaced range [%d,%d)", old, seg.OldStart, seg.OldEnd)
	}
	return seg.NewStart + (old - seg.OldStart), nil
}

func (p *Plan) requireFinal(op string) error {
	if !p.finalized {
		return types.RangeErr(op, "plan is not finalized")
	}
	return nil
}

// copiedField returns the output offset of a width-byte field at old, which
// must lie wholly inside one Copy segment.
func (p *Plan) copiedField(op string, old int64, width int) (int64, error) {
	seg, ok := p.find(old, false)
	if !ok {
		return 0, types.RangeErr(op, "offset %d not covered by any segment", old)
	}
	if seg.Kind != Copy {
		return 0, types.RangeErr(op, "offset %d lies in replaced range [%d,%d)", old, seg.OldStart, seg.OldEnd)
	}
	if old+int64(width) > seg.OldEnd {
		return 0, types.RangeErr(op, "field [%d,%d) crosses segment end %d", old, old+int64(width), seg.OldEnd)
	}
	return seg.NewStart + (old - seg.OldStart), nil
}

func (p *Plan) patch(op string, old int64, width int, o binio.Order, compute func(orig uint64) (uint64, error)) error {
	if err := p.requireFinal(op); err != nil {
		return err
	}
	newOff, err := p.copiedField(op, old, width)
	if err != nil {
		return err
	}
	orig, err := p.peek.PeekUintAt(old, width, o)
	if err != nil {
		return err
	}
	v, err := compute(orig)
	if err != nil {
		return fmt.Errorf("%s at %d: %w", op, old, err)
	}
	if err := binio.PutUintAt(p.dst, p.base+newOff, v, width, o); err != nil {
		return err
	}
	p.log.Debug("patch value", "op", op, "old", old, "new", newOff, "from", orig, "to", v)
	return nil
}

// PatchValueAt overwrites the width-byte value stored at original offset old
// with compute(original value), at the value's relocated position.
func (p *Plan) PatchValueAt(old int64, width int, compute func(orig uint64) uint64) error {
	return p.patch("patch value", old, width, p.order, func(orig uint64) (uint64, error) {
		return compute(orig), nil
	})
}

// PatchU32At stores v little-endian at the relocated position of old.
func (p *Plan) PatchU32At(old int64, v uint32) error {
	return p.patch("patch u32", old, 4, binio.LittleEndian, func(uint64) (uint64, error) {
		return uint64(v), nil
	})
}

// PatchU32BEAt stores v big-endian at the relocated position of old.
func (p *Plan) PatchU32BEAt(old int64, v uint32) error {
	return p.patch("patch u32be", old, 4, binio.BigEndian, func(uint64) (uint64, error) {
		return uint64(v), nil
	})
}

// PatchAddressAt rewrites the 4-byte address stored at original offset old
// so it points at the relocated target.
func (p *Plan) PatchAddressAt(old int64) error {
	return p.PatchAddressAtWidth(old, 4)
}

// PatchAddressAtWidth is PatchAddressAt for addresses of width bytes.
func (p *Plan) PatchAddressAtWidth(old int64, width int) error {
	return p.patch("patch address", old, width, p.order, p.Relocate)
}

// Relocate returns the output address of the data an original address
// referred to, without writing anything.
func (p *Plan) Relocate(addr uint64) (uint64, error) {
	target, err := p.toOff(addr)
	if err != nil {
		return 0, err
	}
	moved, err := p.MapOffset(target)
	if err != nil {
		return 0, err
	}
	return p.toAddr(moved)
}
