package schema_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/schema"
	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

var header = schema.New("header",
	schema.Magic("magic", []byte("SCPT")),
	schema.U32("length").BE(),
	schema.Fixed("name", schema.Const(8)),
)

func headerBytes() []byte {
	b := []byte("SCPT")
	b = append(b, 0, 0, 0, 3)
	b = append(b, []byte("main\x00\x00\x00\x00")...)
	return b
}

func TestReadHeader(t *testing.T) {
	rec, err := schema.Read(bytes.NewReader(headerBytes()), header, schema.Options{})
	require.NoError(t, err)

	n, ok := rec.Uint("length")
	require.True(t, ok)
	assert.Equal(t, uint64(3), n)

	name, _ := rec.String("name")
	assert.Equal(t, "main", name)
	assert.Equal(t, []string{"magic", "length", "name"}, rec.Names())
}

func TestMagicMismatch(t *testing.T) {
	b := headerBytes()
	b[3] = 'X'
	_, err := schema.Read(bytes.NewReader(b), header, schema.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrFormat)
	assert.Contains(t, err.Error(), "header.magic")
}

func TestShortInputIsIOError(t *testing.T) {
	_, err := schema.Read(bytes.NewReader(headerBytes()[:10]), header, schema.Options{})
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestRoundTrip(t *testing.T) {
	s := schema.New("entry",
		schema.I16("delta"),
		schema.U8("count"),
		schema.Raw("payload", schema.FromField("count")),
		schema.F64("scale").BE(),
		schema.CStr("label"),
		schema.Prefixed("note", 2),
		schema.U16("nameLen"),
		schema.Fixed("name", schema.FromField("nameLen")),
	)
	require.NoError(t, s.Validate())

	rec := schema.NewRecord()
	rec.Set("delta", int64(-300))
	rec.Set("count", uint64(3))
	rec.Set("payload", []byte{9, 8, 7})
	rec.Set("scale", 0.25)
	rec.Set("label", "テスト")
	rec.Set("note", "hello")
	rec.Set("nameLen", uint64(5))
	rec.Set("name", "alice")

	opts := schema.Options{Order: binio.LittleEndian, Encoding: textenc.New(textenc.ShiftJIS)}
	var buf bytes.Buffer
	require.NoError(t, schema.Write(&buf, s, rec, opts))

	got, err := schema.Read(&buf, s, opts)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.Zero(t, buf.Len())
}

func TestWriteRejectsOverflow(t *testing.T) {
	s := schema.New("small", schema.U8("v"))
	rec := schema.NewRecord()
	rec.Set("v", 300)
	err := schema.Write(&bytes.Buffer{}, s, rec, schema.Options{})
	assert.ErrorIs(t, err, types.ErrRange)
}

func TestWriteRejectsLengthDisagreement(t *testing.T) {
	s := schema.New("blob", schema.U8("n"), schema.Raw("data", schema.FromField("n")))
	rec := schema.NewRecord()
	rec.Set("n", 4)
	rec.Set("data", []byte{1, 2})
	err := schema.Write(&bytes.Buffer{}, s, rec, schema.Options{})
	assert.ErrorIs(t, err, types.ErrFormat)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		s    schema.Schema
	}{
		{"forward reference", schema.New("x", schema.Raw("data", schema.FromField("n")), schema.U8("n"))},
		{"unknown source", schema.New("x", schema.Raw("data", schema.FromField("missing")))},
		{"string source", schema.New("x", schema.CStr("n"), schema.Raw("data", schema.FromField("n")))},
		{"bad width", schema.New("x", schema.Field{Name: "v", Kind: schema.Uint, Width: 3})},
		{"duplicate", schema.New("x", schema.U8("v"), schema.U8("v"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.s.Validate(), types.ErrFormat)
		})
	}
}

func TestSizeAndOffset(t *testing.T) {
	n, ok := header.Size()
	require.True(t, ok)
	assert.Equal(t, 16, n)

	off, ok := header.Offset("length")
	require.True(t, ok)
	assert.Equal(t, 4, off)

	_, ok = schema.New("v", schema.CStr("s")).Size()
	assert.False(t, ok)
}

func TestReadVec(t *testing.T) {
	s := schema.New("pair", schema.U8("a"), schema.U8("b"))
	recs, err := schema.ReadVec(bytes.NewReader([]byte{1, 2, 3, 4}), s, 2, schema.Options{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	b, _ := recs[1].Uint("b")
	assert.Equal(t, uint64(4), b)
}
