package textenc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/types"
)

func TestDecodeUTF8(t *testing.T) {
	s, replaced, err := Default.Decode([]byte("hello"))
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, "hello", s)
}

func TestDecodeInvalidUTF8(t *testing.T) {
	bad := []byte{'a', 0xC3, 'b'}

	_, _, err := New(UTF8).WithStrict(true).Decode(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrEncoding))

	enc := Encoding{Charset: UTF8, Replacement: '?'}
	s, replaced, err := enc.Decode(bad)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "a?b", s)
}

func TestBOMPolicies(t *testing.T) {
	utf16 := []byte{0xFF, 0xFE, 'h', 0, 'i', 0}

	s, cs, _, err := Default.DecodeDetect(utf16)
	require.NoError(t, err)
	assert.Equal(t, UTF16LE, cs)
	assert.Equal(t, "hi", s)

	strip := Encoding{Charset: UTF8, BOM: BOMStrip}
	s, _, err = strip.Decode([]byte("\xEF\xBB\xBFabc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", s)

	mustBOM := Encoding{Charset: UTF8, BOM: BOMRequire}
	_, _, err = mustBOM.Decode([]byte("abc"))
	assert.True(t, errors.Is(err, types.ErrEncoding))

	out, _, err := mustBOM.Encode("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("\xEF\xBB\xBFabc"), out)
}

func TestShiftJISRoundTrip(t *testing.T) {
	enc := New(ShiftJIS)
	raw, replaced, err := enc.Encode("こんにちは")
	require.NoError(t, err)
	assert.False(t, replaced)

	s, replaced, err := enc.Decode(raw)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, "こんにちは", s)
}

func TestShiftJISControlByte(t *testing.T) {
	enc := New(ShiftJIS)
	raw := []byte{0x82, 0xA0, 0xFF, 'A'}

	s, replaced, err := enc.Decode(raw)
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Equal(t, "あA", s)

	back, _, err := enc.Encode(s)
	require.NoError(t, err)
	assert.Equal(t, raw, back)

	_, _, err = enc.WithStrict(true).Decode(raw)
	assert.True(t, errors.Is(err, types.ErrEncoding))
}

func TestEncodeUnmappable(t *testing.T) {
	_, _, err := New(ShiftJIS).WithStrict(true).Encode("a😀b")
	require.Error(t, err)
	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.KindEncoding, kind)

	out, replaced, err := New(ShiftJIS).Encode("a😀b")
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, []byte("a?b"), out)
}

func TestAutoPrefersUTF8ThenShiftJIS(t *testing.T) {
	auto := New(Auto)

	_, cs, _, err := auto.DecodeDetect([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, UTF8, cs)

	s, cs, _, err := auto.DecodeDetect([]byte{0x82, 0xA0, 0x82, 0xA2})
	require.NoError(t, err)
	assert.Equal(t, ShiftJIS, cs)
	assert.Equal(t, "あい", s)
}

func TestDecodeUTF16Surrogates(t *testing.T) {
	// U+1F600 as a surrogate pair, then an unpaired high surrogate.
	le := []byte{0x3D, 0xD8, 0x00, 0xDE, 0x3D, 0xD8}
	s, replaced, err := New(UTF16LE).Decode(le)
	require.NoError(t, err)
	assert.True(t, replaced)
	assert.Equal(t, "😀\uFFFD", s)

	be, _, err := New(UTF16BE).Encode("Aé")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 'A', 0x00, 0xE9}, be)
}

func TestParseCharset(t *testing.T) {
	for name, want := range map[string]Charset{
		"sjis":     ShiftJIS,
		"CP932":    ShiftJIS,
		"gb2312":   GBK,
		"utf-16be": UTF16BE,
		"":         UTF8,
	} {
		got, err := ParseCharset(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseCharset("ebcdic")
	assert.Error(t, err)
}
