// Package schema reads and writes binary records described by plain data.
//
// A Schema is an ordered list of fields; field order is byte order. Variable
// length fields take their length from a constant or from an integer field
// decoded earlier in the same record. No reflection is involved: a decoded
// record is a Record, an ordered name to value map.
package schema

import (
	"fmt"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

// Kind is the wire representation of a field.
type Kind int

const (
	Int            Kind = iota // signed integer, Width 1/2/4/8, value int64
	Uint                       // unsigned integer, Width 1/2/4/8, value uint64
	Float                      // IEEE-754, Width 4/8, value float64
	Bytes                      // raw bytes, Length source, value []byte
	CString                    // NUL-terminated string, value string
	PrefixedString             // Width-byte length prefix then data, value string
	FixedString                // Length-byte zero-padded string, value string
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Float:
		return "float"
	case Bytes:
		return "bytes"
	case CString:
		return "cstring"
	case PrefixedString:
		return "prefixed-string"
	case FixedString:
		return "fixed-string"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Endian overrides the record's default byte order for one field.
type Endian int

const (
	DefaultEndian Endian = iota
	Little
	Big
)

// LengthSource says where a variable field's byte length comes from.
type LengthSource struct {
	Field string // name of an earlier integer field; empty means N
	N     int
}

// Const is a fixed length.
func Const(n int) LengthSource { return LengthSource{N: n} }

// FromField takes the length from an earlier integer field.
func FromField(name string) LengthSource { return LengthSource{Field: name} }

func (l LengthSource) String() string {
	if l.Field != "" {
		return "field " + l.Field
	}
	return fmt.Sprintf("%d", l.N)
}

// Field describes one member of a record.
type Field struct {
	Name   string
	Kind   Kind
	Width  int
	Endian Endian
	Length LengthSource

	// Expect, when set, must match the decoded bytes of a Bytes field.
	Expect []byte
	// Truncate cuts over-long FixedString values on write instead of failing.
	Truncate bool
}

// BE returns a copy of f stored big-endian.
func (f Field) BE() Field {
	f.Endian = Big
	return f
}

// LE returns a copy of f stored little-endian.
func (f Field) LE() Field {
	f.Endian = Little
	return f
}

func (f Field) order(def binio.Order) binio.Order {
	switch f.Endian {
	case Little:
		return binio.LittleEndian
	case Big:
		return binio.BigEndian
	default:
		return def
	}
}

func U8(name string) Field { return Field{Name: name, Kind: Uint, Width: 1} }
func U16(name string) Field { return Field{Name: name, Kind: Uint, Width: 2} }
func U32(name string) Field { return Field{Name: name, Kind: Uint, Width: 4} }
func U64(name string) Field { return Field{Name: name, Kind: Uint, Width: 8} }
func I8(name string) Field { return Field{Name: name, Kind: Int, Width: 1} }
func I16(name string) Field { return Field{Name: name, Kind: Int, Width: 2} }
func I32(name string) Field { return Field{Name: name, Kind: Int, Width: 4} }
func I64(name string) Field { return Field{Name: name, Kind: Int, Width: 8} }
func F32(name string) Field { return Field{Name: name, Kind: Float, Width: 4} }
func F64(name string) Field { return Field{Name: name, Kind: Float, Width: 8} }

// Raw is a Bytes field with the given length source.
func Raw(name string, l LengthSource) Field { return Field{Name: name, Kind: Bytes, Length: l} }

// Magic is a constant signature checked on read.
func Magic(name string, sig []byte) Field {
	return Field{Name: name, Kind: Bytes, Length: Const(len(sig)), Expect: sig}
}

func CStr(name string) Field { return Field{Name: name, Kind: CString} }

// Fixed is a zero-padded string occupying the given number of bytes.
func Fixed(name string, l LengthSource) Field { return Field{Name: name, Kind: FixedString, Length: l} }

// Prefixed is a string preceded by a width-byte length.
func Prefixed(name string, width int) Field {
	return Field{Name: name, Kind: PrefixedString, Width: width}
}

// Schema is an ordered record layout.
type Schema struct {
	Name   string
	Fields []Field
}

// New builds a schema from fields in layout order.
func New(name string, fields ...Field) Schema {
	return Schema{Name: name, Fields: fields}
}

// Options carries record-wide defaults.
type Options struct {
	Order    binio.Order
	Encoding textenc.Encoding
}
