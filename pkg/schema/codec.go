package schema

import (
	"bytes"
	"fmt"
	"io"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/types"
)

// maxFieldLen rejects absurd lengths taken from corrupt input.
const maxFieldLen = 1 << 28

func validWidth(k Kind, w int) bool {
	switch k {
	case Int, Uint, PrefixedString:
		return w == 1 || w == 2 || w == 4 || w == 8
	case Float:
		return w == 4 || w == 8
	default:
		return true
	}
}

// Validate checks field names, widths and length sources.
func (s Schema) Validate() error {
	seen := make(map[string]Kind, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return types.FormatErr("schema "+s.Name, "field %d has no name", i)
		}
		if _, dup := seen[f.Name]; dup {
			return types.FormatErr("schema "+s.Name, "duplicate field %q", f.Name)
		}
		if f.Kind < Int || f.Kind > FixedString {
			return types.UnsupportedErr("schema "+s.Name, "field %q: kind %v", f.Name, f.Kind)
		}
		if !validWidth(f.Kind, f.Width) {
			return types.FormatErr("schema "+s.Name, "field %q: invalid width %d for %v", f.Name, f.Width, f.Kind)
		}
		if f.Kind == Bytes || f.Kind == FixedString {
			if err := s.checkLength(f, seen); err != nil {
				return err
			}
		}
		seen[f.Name] = f.Kind
	}
	return nil
}

func (s Schema) checkLength(f Field, seen map[string]Kind) error {
	l := f.Length
	if l.Field == "" {
		if l.N < 0 {
			return types.FormatErr("schema "+s.Name, "field %q: negative length %d", f.Name, l.N)
		}
		if f.Expect != nil && len(f.Expect) != l.N {
			return types.FormatErr("schema "+s.Name, "field %q: expected value has %d bytes, length is %d", f.Name, len(f.Expect), l.N)
		}
		return nil
	}
	k, ok := seen[l.Field]
	if !ok {
		return types.FormatErr("schema "+s.Name, "field %q: length source %q is not an earlier field", f.Name, l.Field)
	}
	if k != Int && k != Uint {
		return types.FormatErr("schema "+s.Name, "field %q: length source %q is %v, not an integer", f.Name, l.Field, k)
	}
	return nil
}

// Size returns the encoded size when every field has a constant size.
func (s Schema) Size() (int, bool) {
	total := 0
	for _, f := range s.Fields {
		switch f.Kind {
		case Int, Uint, Float:
			total += f.Width
		case Bytes, FixedString:
			if f.Length.Field != "" {
				return 0, false
			}
			total += f.Length.N
		default:
			return 0, false
		}
	}
	return total, true
}

// Field returns the named field.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Offset returns the byte offset of the named field when every field before
// it has a constant size.
func (s Schema) Offset(name string) (int, bool) {
	prefix := Schema{Name: s.Name}
	for _, f := range s.Fields {
		if f.Name == name {
			return prefix.Size()
		}
		prefix.Fields = append(prefix.Fields, f)
	}
	return 0, false
}

func (s Schema) fieldErr(f Field, err error) error {
	return fmt.Errorf("%s.%s: %w", s.Name, f.Name, err)
}

func resolveLength(rec Record, f Field) (int, error) {
	if f.Length.Field == "" {
		return f.Length.N, nil
	}
	v, ok := rec.values[f.Length.Field]
	if !ok {
		return 0, types.FormatErr("length", "source %q not decoded", f.Length.Field)
	}
	n, ok := toInt(v)
	if !ok || n < 0 || n > maxFieldLen {
		return 0, types.FormatErr("length", "source %q holds invalid length %v", f.Length.Field, v)
	}
	return int(n), nil
}

// Read decodes one record. Passing a *binio.Reader keeps its replacement
// flag in sync with string fields decoded here.
func Read(r io.Reader, s Schema, opts Options) (Record, error) {
	if err := s.Validate(); err != nil {
		return Record{}, err
	}
	br := binio.NewReader(r)
	rec := Record{names: make([]string, 0, len(s.Fields)), values: make(map[string]any, len(s.Fields))}
	for _, f := range s.Fields {
		v, err := readField(br, rec, f, opts)
		if err != nil {
			return rec, s.fieldErr(f, err)
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}

func readField(br *binio.Reader, rec Record, f Field, opts Options) (any, error) {
	o := f.order(opts.Order)
	switch f.Kind {
	case Int:
		return br.ReadInt(f.Width, o)
	case Uint:
		return br.ReadUint(f.Width, o)
	case Float:
		return br.ReadFloat(f.Width, o)
	case CString:
		return br.ReadCString(opts.Encoding)
	case PrefixedString:
		return br.ReadPrefixedString(f.Width, o, opts.Encoding)
	}
	n, err := resolveLength(rec, f)
	if err != nil {
		return nil, err
	}
	if f.Kind == FixedString {
		// A length taken from another field is exact; constant fields are padded.
		return br.ReadFixedString(n, opts.Encoding, f.Length.Field == "")
	}
	b, err := br.ReadExactVec(n)
	if err != nil {
		return nil, err
	}
	if f.Expect != nil {
		if err := binio.CheckMagic(f.Expect, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ReadVec decodes count consecutive records.
func ReadVec(r io.Reader, s Schema, count int, opts Options) ([]Record, error) {
	if count < 0 {
		return nil, types.RangeErr("read records", "negative count %d", count)
	}
	br := binio.NewReader(r)
	out := make([]Record, 0, min(count, 4096))
	for i := 0; i < count; i++ {
		rec, err := Read(br, s, opts)
		if err != nil {
			return out, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Write encodes rec following s. Integer values must fit their width, and a
// variable field must agree with the field its length comes from.
func Write(w io.Writer, s Schema, rec Record, opts Options) error {
	if err := s.Validate(); err != nil {
		return err
	}
	bw := binio.NewWriter(w)
	for _, f := range s.Fields {
		v, ok := rec.values[f.Name]
		if !ok {
			if f.Expect == nil {
				return s.fieldErr(f, types.FormatErr("write", "missing value"))
			}
			v = f.Expect
		}
		if err := writeField(bw, rec, f, v, opts); err != nil {
			return s.fieldErr(f, err)
		}
	}
	return nil
}

func typeErr(f Field, v any) error {
	return types.FormatErr("write", "%v field holds %T", f.Kind, v)
}

func writeField(bw *binio.Writer, rec Record, f Field, v any, opts Options) error {
	o := f.order(opts.Order)
	switch f.Kind {
	case Int:
		i, ok := toInt(v)
		if !ok {
			return typeErr(f, v)
		}
		return bw.WriteInt(i, f.Width, o)
	case Uint:
		u, ok := toUint(v)
		if !ok {
			return typeErr(f, v)
		}
		return bw.WriteUint(u, f.Width, o)
	case Float:
		switch x := v.(type) {
		case float64:
			return bw.WriteFloat(x, f.Width, o)
		case float32:
			return bw.WriteFloat(float64(x), f.Width, o)
		}
		return typeErr(f, v)
	case CString:
		str, ok := v.(string)
		if !ok {
			return typeErr(f, v)
		}
		return bw.WriteCString(str, opts.Encoding)
	case PrefixedString:
		str, ok := v.(string)
		if !ok {
			return typeErr(f, v)
		}
		return bw.WritePrefixedString(str, f.Width, o, opts.Encoding)
	}

	n, err := resolveLength(rec, f)
	if err != nil {
		return err
	}
	if f.Kind == FixedString {
		str, ok := v.(string)
		if !ok {
			return typeErr(f, v)
		}
		if f.Length.Field != "" {
			enc, _, err := opts.Encoding.Encode(str)
			if err != nil {
				return err
			}
			if len(enc) != n {
				return types.FormatErr("write", "encoded length %d disagrees with %s=%d", len(enc), f.Length.Field, n)
			}
		}
		return bw.WriteFixedString(str, n, opts.Encoding, f.Truncate)
	}

	b, ok := v.([]byte)
	if !ok {
		return typeErr(f, v)
	}
	if len(b) != n {
		if f.Length.Field != "" {
			return types.FormatErr("write", "%d bytes disagree with %s=%d", len(b), f.Length.Field, n)
		}
		return types.RangeErr("write", "%d bytes for a %d-byte field", len(b), n)
	}
	if f.Expect != nil && !bytes.Equal(b, f.Expect) {
		return &types.MismatchError{What: "magic", Expected: fmt.Sprintf("%q", f.Expect), Actual: fmt.Sprintf("%q", b)}
	}
	return bw.WriteBytes(b)
}
