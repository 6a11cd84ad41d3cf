// Package scpt implements the SCPT script format, a small pointer-table
// script container used as the reference engine.
//
// Layout, all offsets from the start of the file:
//
//	0   magic    "SCPT" (plain pool) or "SCPZ" (transformed pool)
//	4   length   u32 big-endian, number of pointers
//	8   name     8 bytes, zero padded
//	16  pointers count × u32 little-endian string addresses
//	    pool     NUL-terminated strings
//
// An address is an offset relative to the start of the pool. In an SCPZ file
// the pool is preceded by two u32 little-endian lengths (stored, decoded) and
// stored through the configured transform; addresses then refer to the
// decoded pool.
package scpt

import (
	"bytes"

	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/schema"
)

const (
	// Tag is the engine tag.
	Tag engine.Tag = "scpt"

	headerSize  = 16
	pointerSize = 4
)

var (
	magicPlain  = []byte("SCPT")
	magicPacked = []byte("SCPZ")
)

// Header is the fixed 16-byte file header. The magic is checked separately
// because two signatures are valid.
var Header = schema.New("scpt.header",
	schema.Raw("magic", schema.Const(4)),
	schema.U32("length").BE(),
	schema.Fixed("name", schema.Const(8)),
)

// PlainHeader is Header with the plain signature enforced.
var PlainHeader = schema.New("scpt.header",
	schema.Magic("magic", magicPlain),
	schema.U32("length").BE(),
	schema.Fixed("name", schema.Const(8)),
)

// packedLengths precedes a transformed pool.
var packedLengths = schema.New("scpt.pool",
	schema.U32("stored"),
	schema.U32("decoded"),
)

// Codec is the SCPT engine.
type Codec struct{}

// New returns the SCPT codec.
func New() *Codec { return &Codec{} }

func (*Codec) Tag() engine.Tag { return Tag }

func (*Codec) Extensions() []string { return []string{".scpt", ".scp"} }

// Sniff recognizes both signatures.
func (*Codec) Sniff(head []byte) bool {
	return len(head) >= 4 && (bytes.Equal(head[:4], magicPlain) || bytes.Equal(head[:4], magicPacked))
}
