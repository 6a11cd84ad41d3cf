package engine_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/engine/scpt"
	"github.com/joshuapare/vnkit/pkg/textenc"
	"github.com/joshuapare/vnkit/pkg/types"
)

type fakeCodec struct {
	tag  engine.Tag
	exts []string
}

func (f fakeCodec) Tag() engine.Tag      { return f.tag }
func (f fakeCodec) Extensions() []string { return f.exts }

func (fakeCodec) Decode(context.Context, engine.Input, engine.Config) (*engine.Script, types.Outcome, error) {
	return nil, types.OutcomeIgnored, types.ErrIgnored
}

func (fakeCodec) Encode(context.Context, engine.Input, *engine.Script, io.WriteSeeker, engine.Config) (types.Outcome, error) {
	return types.OutcomeIgnored, types.ErrIgnored
}

func TestRegistryResolve(t *testing.T) {
	r, err := engine.NewRegistry(scpt.New(), fakeCodec{tag: "fake", exts: []string{".bin", ".SCP"}})
	require.NoError(t, err)
	assert.Equal(t, []engine.Tag{"fake", "scpt"}, r.Tags())

	c, err := r.Resolve("", "data/intro.SCPT")
	require.NoError(t, err)
	assert.Equal(t, scpt.Tag, c.Tag())

	c, err = r.Resolve("", "intro.scp")
	require.NoError(t, err)
	assert.Equal(t, scpt.Tag, c.Tag(), "first registered codec keeps a shared extension")

	c, err = r.Resolve("FAKE", "intro.scpt")
	require.NoError(t, err)
	assert.Equal(t, engine.Tag("fake"), c.Tag())

	_, err = r.Resolve("", "intro.txt")
	assert.ErrorIs(t, err, types.ErrUnsupported)
	_, err = r.ByTag("nope")
	assert.ErrorIs(t, err, types.ErrUnsupported)
}

func TestRegistryDuplicateTag(t *testing.T) {
	_, err := engine.NewRegistry(fakeCodec{tag: "x"}, fakeCodec{tag: "x"})
	assert.Error(t, err)
}

func TestRegistrySniff(t *testing.T) {
	r, err := engine.NewRegistry(fakeCodec{tag: "fake"}, scpt.New())
	require.NoError(t, err)

	c, ok := r.Sniff([]byte("SCPZ\x00\x00\x00\x01"))
	require.True(t, ok)
	assert.Equal(t, scpt.Tag, c.Tag())

	_, ok = r.Sniff([]byte("MZ"))
	assert.False(t, ok)
}

func TestConfigEncodings(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Encoding = textenc.New(textenc.ShiftJIS)
	cfg.Strict = true
	cfg.Replacement = '?'

	in := cfg.InputEncoding()
	assert.Equal(t, textenc.ShiftJIS, in.Charset)
	assert.Equal(t, textenc.Strict, in.Invalid)
	assert.Equal(t, '?', in.Replacement)
	assert.Equal(t, textenc.ShiftJIS, cfg.OutputEnc().Charset)

	out := textenc.New(textenc.GBK)
	cfg.OutputEncoding = &out
	assert.Equal(t, textenc.GBK, cfg.OutputEnc().Charset)

	assert.Equal(t, binio.LittleEndian, cfg.ByteOrder(binio.LittleEndian))
	be := binio.BigEndian
	cfg.Order = &be
	assert.Equal(t, binio.BigEndian, cfg.ByteOrder(binio.LittleEndian))
	assert.NotNil(t, cfg.Log())
}

func TestScriptTexts(t *testing.T) {
	s := &engine.Script{Messages: []engine.Message{{Text: "a"}, {Name: "Rin", Text: "b"}}}
	assert.Equal(t, []string{"a", "b"}, s.Texts())
}
