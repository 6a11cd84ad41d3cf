package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

const yamlDoc = `
engine: SCPT
encoding: sjis
output_encoding: gbk
order: be
key_hex: "0a0b"
strict: true
replacement: "?"
transform: ZSTD
workers: 3
log:
  file: /tmp/vntool
  json: true
  level: debug
`

const iniDoc = `
engine = scpt
encoding = shift-jis
bom = strip
key = secret
replacement = ＊
workers = 2

[log]
level = warn
`

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vntool.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", f.Log.Level)
	assert.True(t, f.Log.JSON)

	cfg := engine.DefaultConfig()
	require.NoError(t, f.Apply(&cfg))
	assert.Equal(t, engine.Tag("scpt"), cfg.Engine)
	assert.Equal(t, textenc.ShiftJIS, cfg.Encoding.Charset)
	require.NotNil(t, cfg.OutputEncoding)
	assert.Equal(t, textenc.GBK, cfg.OutputEncoding.Charset)
	require.NotNil(t, cfg.Order)
	assert.Equal(t, binio.BigEndian, *cfg.Order)
	assert.Equal(t, []byte{0x0a, 0x0b}, cfg.Key)
	assert.True(t, cfg.Strict)
	assert.Equal(t, '?', cfg.Replacement)
	assert.Equal(t, "zstd", cfg.Transform)
	assert.Equal(t, 3, cfg.Workers)
}

func TestLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vntool.ini")
	require.NoError(t, os.WriteFile(path, []byte(iniDoc), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", f.Log.Level)

	cfg := engine.DefaultConfig()
	require.NoError(t, f.Apply(&cfg))
	assert.Equal(t, engine.Tag("scpt"), cfg.Engine)
	assert.Equal(t, textenc.ShiftJIS, cfg.Encoding.Charset)
	assert.Equal(t, textenc.BOMStrip, cfg.Encoding.BOM)
	assert.Equal(t, []byte("secret"), cfg.Key)
	assert.Equal(t, '＊', cfg.Replacement)
	assert.Equal(t, 2, cfg.Workers)
	assert.Nil(t, cfg.Order)
	assert.False(t, cfg.Strict)
}

func TestLoadEmptyPath(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	cfg := engine.DefaultConfig()
	require.NoError(t, f.Apply(&cfg))
	assert.Equal(t, engine.DefaultConfig().Encoding, cfg.Encoding)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = ParseYAML([]byte("unknown_key: 1\n"))
	assert.Error(t, err)

	f, err := ParseYAML([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, &File{}, f)

	tests := []File{
		{Encoding: "ebcdic"},
		{OutputEncoding: "klingon"},
		{Order: "middle"},
		{KeyHex: "zz"},
		{Replacement: "ab"},
		{BOM: "maybe"},
	}
	for _, tc := range tests {
		cfg := engine.DefaultConfig()
		assert.Error(t, tc.Apply(&cfg), "%+v", tc)
	}
}
