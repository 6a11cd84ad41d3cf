package scpt

import (
	"context"
	"fmt"
	"io"

	"github.com/joshuapare/vnkit/internal/transform"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/patch"
	"github.com/joshuapare/vnkit/pkg/schema"
	"github.com/joshuapare/vnkit/pkg/stream"
	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

// texts maps each distinct string start to its replacement text. Pointers
// sharing a string take the first message; a disagreeing later message is
// reported through warn.
func (l *layout) texts(script *engine.Script, warn func(i int, addr uint32)) (map[int64]string, error) {
	if len(script.Messages) != len(l.pointers) {
		return nil, types.FormatErr("scpt", "script has %d messages, file has %d strings", len(script.Messages), len(l.pointers))
	}
	out := make(map[int64]string, len(l.pointers))
	for i, a := range l.pointers {
		text := script.Messages[i].Text
		if prev, ok := out[int64(a)]; ok {
			if prev != text {
				warn(i, a)
			}
			continue
		}
		out[int64(a)] = text
	}
	return out, nil
}

// rebuildPool appends one segment per string to plan, whose offsets are pool
// offsets shifted by base, and copies everything between strings. Each
// replaced range includes the string's unit-wide terminator.
func rebuildPool(plan *patch.Plan, base, unit int64, spans []span, texts map[int64]string, enc textenc.Encoding, warned *bool) error {
	for _, sp := range spans {
		if err := plan.CopyUpTo(base + sp.start); err != nil {
			return err
		}
		text := texts[sp.start]
		err := plan.ReplaceRange(base+sp.start, base+sp.end+unit, func(w io.Writer) error {
			bw := binio.NewWriter(w)
			if err := bw.WriteCString(text, enc); err != nil {
				return err
			}
			if bw.Replaced() {
				*warned = true
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return plan.CopyUpTo(plan.SourceLen())
}

// Encode writes in with script's texts substituted and every pointer
// relocated.
func (c *Codec) Encode(ctx context.Context, in engine.Input, script *engine.Script, out io.WriteSeeker, cfg engine.Config) (types.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return types.OutcomeError, err
	}
	l, err := parse(in, cfg)
	if err != nil {
		return types.OutcomeError, err
	}
	warned := false
	log := cfg.Log()
	texts, err := l.texts(script, func(i int, addr uint32) {
		warned = true
		log.Warn("scpt shared string edited inconsistently", "file", in.Name, "pointer", i, "address", addr)
	})
	if err != nil {
		return types.OutcomeError, err
	}
	spans, err := l.spans()
	if err != nil {
		return types.OutcomeError, err
	}

	if l.packed {
		err = c.encodePacked(l, in, script, spans, texts, out, cfg, &warned)
	} else {
		err = c.encodePlain(l, in, script, spans, texts, out, cfg, &warned)
	}
	if err != nil {
		return types.OutcomeError, err
	}
	return types.Classify(nil, warned), nil
}

func (c *Codec) headerOpts(cfg engine.Config) schema.Options {
	return schema.Options{Order: binio.LittleEndian, Encoding: cfg.OutputEnc()}
}

// nameField renders the 8-byte name field.
func nameField(name string, enc textenc.Encoding) ([]byte, error) {
	w := stream.NewMemWriter()
	if err := binio.NewWriter(w).WriteFixedString(name, 8, enc, false); err != nil {
		return nil, fmt.Errorf("scpt name: %w", err)
	}
	return w.Bytes(), nil
}

func (c *Codec) encodePlain(l *layout, in engine.Input, script *engine.Script, spans []span, texts map[int64]string, out io.WriteSeeker, cfg engine.Config, warned *bool) error {
	order := cfg.ByteOrder(binio.LittleEndian)
	plan, err := patch.New(in.Data, out,
		patch.WithOrder(order),
		patch.WithLogger(cfg.Log()),
		patch.WithAddressResolver(
			func(off int64) (uint64, error) { return uint64(off - l.poolStart), nil },
			func(addr uint64) (int64, error) { return int64(addr) + l.poolStart, nil },
		),
	)
	if err != nil {
		return err
	}

	if script.Name != "" && script.Name != l.name {
		name, err := nameField(script.Name, cfg.OutputEnc())
		if err != nil {
			return err
		}
		if err := plan.CopyUpTo(8); err != nil {
			return err
		}
		if err := plan.ReplaceBytes(8, headerSize, name); err != nil {
			return err
		}
	}
	if err := plan.CopyUpTo(l.poolStart); err != nil {
		return err
	}
	if err := rebuildPool(plan, l.poolStart, l.unit, spans, texts, cfg.OutputEnc(), warned); err != nil {
		return err
	}
	if err := plan.Finalize(); err != nil {
		return err
	}
	for i := range l.pointers {
		if err := plan.PatchAddressAt(headerSize + int64(i)*pointerSize); err != nil {
			return fmt.Errorf("scpt pointer %d: %w", i, err)
		}
	}
	cfg.Log().Debug("scpt encoded", "file", in.Name, "segments", len(plan.Segments()), "size", plan.OutputLen())
	return nil
}

func (c *Codec) encodePacked(l *layout, in engine.Input, script *engine.Script, spans []span, texts map[int64]string, out io.WriteSeeker, cfg engine.Config, warned *bool) error {
	pool := stream.NewMemWriter()
	plan, err := patch.NewBytes(l.raw, pool, patch.WithLogger(cfg.Log()))
	if err != nil {
		return err
	}
	if err := rebuildPool(plan, 0, l.unit, spans, texts, cfg.OutputEnc(), warned); err != nil {
		return err
	}
	if err := plan.Finalize(); err != nil {
		return err
	}

	tr, err := transform.Lookup(cfg.Transform, cfg.Key)
	if err != nil {
		return err
	}
	stored, err := tr.Encode(pool.Bytes())
	if err != nil {
		return fmt.Errorf("scpt pool: %w", err)
	}

	name := l.name
	if script.Name != "" {
		name = script.Name
	}
	hdr := schema.NewRecord()
	hdr.Set("magic", magicPacked)
	hdr.Set("length", uint64(len(l.pointers)))
	hdr.Set("name", name)
	head := stream.NewMemWriter()
	bw := binio.NewWriter(head)
	if err := schema.Write(bw, Header, hdr, c.headerOpts(cfg)); err != nil {
		return err
	}
	order := cfg.ByteOrder(binio.LittleEndian)
	for i, a := range l.pointers {
		moved, err := plan.Relocate(uint64(a))
		if err != nil {
			return fmt.Errorf("scpt pointer %d: %w", i, err)
		}
		if err := bw.WriteUint(moved, pointerSize, order); err != nil {
			return err
		}
	}
	lengths := schema.NewRecord()
	lengths.Set("stored", uint64(len(stored)))
	lengths.Set("decoded", uint64(pool.Len()))
	if err := schema.Write(bw, packedLengths, lengths, schema.Options{}); err != nil {
		return err
	}
	return emit(out, head.Bytes(), stored)
}

// emit writes head followed by body.
func emit(w io.Writer, head, body []byte) error {
	r, err := stream.NewPrefixReader(head, stream.NewMemReader(body))
	if err != nil {
		return err
	}
	return binio.CopyN(w, r, r.Len())
}
