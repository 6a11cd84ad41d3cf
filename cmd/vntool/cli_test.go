package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/internal/batch"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/engine/scpt"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

// resetChanged clears cobra's record of which flags were set by a previous run.
func resetChanged() {
	reset := func(f *pflag.Flag) { f.Changed = false }
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func sjisAsset(t *testing.T, dir string) string {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.Encoding = textenc.New(textenc.ShiftJIS)
	data, err := scpt.Build("start", []string{"おはよう", "good morning"}, cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "start.scpt")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractImportCommands(t *testing.T) {
	dir := t.TempDir()
	asset := sjisAsset(t, dir)
	scripts := filepath.Join(dir, "scripts")

	out, err := runCLI(t, "extract", "--encoding", "sjis", "-o", scripts, asset)
	require.NoError(t, err)
	assertContains(t, out, []string{"OK: 1, Ignored: 0, Warning: 0, Error: 0"})

	jsonPath := filepath.Join(scripts, "start.scpt.json")
	s, err := batch.ReadScript(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"おはよう", "good morning"}, s.Texts())

	s.Messages[0].Text = "こんばんは、みなさん"
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(jsonPath, data, 0o644))

	patched := filepath.Join(dir, "patched", "start.scpt")
	_, err = runCLI(t, "import", "--encoding", "sjis", asset, jsonPath, patched)
	require.NoError(t, err)

	out, err = runCLI(t, "info", "--encoding", "sjis", "--json", patched)
	require.NoError(t, err)
	var info batch.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, scpt.Tag, info.Engine)
	assert.Equal(t, 2, info.Messages)
	assert.Equal(t, "ok", info.Status)
}

func TestExtractWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	asset := sjisAsset(t, dir)
	conf := filepath.Join(dir, "vntool.ini")
	require.NoError(t, os.WriteFile(conf, []byte("encoding = sjis\nworkers = 2\n"), 0o644))

	out, err := runCLI(t, "extract", "--config", conf, "--json", asset)
	require.NoError(t, err)
	var report struct {
		Files []batch.Result `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Files, 1)
	assert.Equal(t, "ok", report.Files[0].Status)
	assert.Equal(t, asset+".json", report.Files[0].Output)
}

func TestExtractFailureExitsNonZero(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.scpt")
	require.NoError(t, os.WriteFile(bad, []byte("not a script"), 0o644))

	out, err := runCLI(t, "extract", bad)
	require.Error(t, err)
	assertContains(t, out, []string{"Error: 1"})
}

func TestBadFlags(t *testing.T) {
	_, err := runCLI(t, "info", "--encoding", "klingon", "x")
	assert.Error(t, err)

	_, err = runCLI(t, "extract", "--workers", "0", "x")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assertContains(t, out, []string{"vntool dev"})
}
