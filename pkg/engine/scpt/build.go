package scpt

import (
	"github.com/joshuapare/vnkit/internal/transform"
	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/schema"
	"github.com/joshuapare/vnkit/pkg/stream"
)

// Build writes a fresh SCPT file holding texts in order. A non-empty
// cfg.Transform other than "none" produces an SCPZ file.
func Build(name string, texts []string, cfg engine.Config) ([]byte, error) {
	enc := cfg.OutputEnc()
	pool := stream.NewMemWriter()
	pw := binio.NewWriter(pool)
	addrs := make([]uint64, len(texts))
	for i, t := range texts {
		addrs[i] = uint64(pool.Len())
		if err := pw.WriteCString(t, enc); err != nil {
			return nil, err
		}
	}

	packed := cfg.Transform != "" && cfg.Transform != "none"
	magic := magicPlain
	if packed {
		magic = magicPacked
	}
	head := stream.NewMemWriter()
	bw := binio.NewWriter(head)
	hdr := schema.NewRecord()
	hdr.Set("magic", magic)
	hdr.Set("length", uint64(len(texts)))
	hdr.Set("name", name)
	if err := schema.Write(bw, Header, hdr, schema.Options{Encoding: enc}); err != nil {
		return nil, err
	}
	order := cfg.ByteOrder(binio.LittleEndian)
	for _, a := range addrs {
		if err := bw.WriteUint(a, pointerSize, order); err != nil {
			return nil, err
		}
	}
	out := stream.NewMemWriter()
	if !packed {
		if err := emit(out, head.Bytes(), pool.Bytes()); err != nil {
			return nil, err
		}
		return out.IntoBytes(), nil
	}

	tr, err := transform.Lookup(cfg.Transform, cfg.Key)
	if err != nil {
		return nil, err
	}
	stored, err := tr.Encode(pool.Bytes())
	if err != nil {
		return nil, err
	}
	lengths := schema.NewRecord()
	lengths.Set("stored", uint64(len(stored)))
	lengths.Set("decoded", uint64(pool.Len()))
	if err := schema.Write(bw, packedLengths, lengths, schema.Options{}); err != nil {
		return nil, err
	}
	if err := emit(out, head.Bytes(), stored); err != nil {
		return nil, err
	}
	return out.IntoBytes(), nil
}
