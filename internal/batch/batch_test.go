package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/counter"
	"github.com/joshuapare/vnkit/pkg/engine"
	"github.com/joshuapare/vnkit/pkg/engine/scpt"
	"github.com/joshuapare/vnkit/pkg/types"
)

func newRunner(t *testing.T) *Runner {
	t.Helper()
	reg, err := engine.NewRegistry(scpt.New())
	require.NoError(t, err)
	cfg := engine.DefaultConfig()
	cfg.Workers = 3
	return &Runner{Registry: reg, Config: cfg, Counter: counter.New()}
}

func writeAsset(t *testing.T, path, name string, texts ...string) {
	t.Helper()
	data, err := scpt.Build(name, texts, engine.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestExtractImportTree(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	writeAsset(t, filepath.Join(in, "a.scpt"), "a", "hello", "world")
	writeAsset(t, filepath.Join(in, "sub", "b.scp"), "b", "one")
	writeAsset(t, filepath.Join(in, "empty.scpt"), "e")
	require.NoError(t, os.WriteFile(filepath.Join(in, "readme.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(in, "bad.scpt"), []byte("garbage!"), 0o644))

	r := newRunner(t)
	items, err := r.Expand([]string{in})
	require.NoError(t, err)
	assert.Len(t, items, 4)

	scripts := filepath.Join(root, "scripts")
	results, err := r.Extract(context.Background(), items, scripts)
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, counter.Counts{OK: 2, Ignored: 1, Error: 1}, r.Counter.Snapshot())

	s, err := ReadScript(filepath.Join(scripts, "sub", "b.scp.json"))
	require.NoError(t, err)
	assert.Equal(t, scpt.Tag, s.Engine)
	assert.Equal(t, []string{"one"}, s.Texts())

	// edit and write back
	path := filepath.Join(scripts, "a.scpt.json")
	s, err = ReadScript(path)
	require.NoError(t, err)
	s.Messages[1].Text = "everyone, hello again"
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out := filepath.Join(root, "out")
	good := []Item{{Path: filepath.Join(in, "a.scpt"), Rel: "a.scpt"}, {Path: filepath.Join(in, "sub", "b.scp"), Rel: filepath.Join("sub", "b.scp")}}
	r.Counter = counter.New()
	results, err = r.Import(context.Background(), Pair(good, scripts, out))
	require.NoError(t, err)
	for _, res := range results {
		assert.NoError(t, res.Err, res.Input)
	}
	assert.Equal(t, counter.Counts{OK: 2}, r.Counter.Snapshot())

	info, err := r.Inspect(context.Background(), filepath.Join(out, "a.scpt"))
	require.NoError(t, err)
	assert.Equal(t, 2, info.Messages)
	assert.Equal(t, "a", info.Name)

	res := r.ExtractFile(context.Background(), filepath.Join(out, "a.scpt"), filepath.Join(root, "check.json"))
	require.NoError(t, res.Err)
	s, err = ReadScript(filepath.Join(root, "check.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "everyone, hello again"}, s.Texts())
}

func TestImportFailureLeavesNoOutput(t *testing.T) {
	root := t.TempDir()
	asset := filepath.Join(root, "a.scpt")
	writeAsset(t, asset, "a", "x", "y")
	script := filepath.Join(root, "a.json")
	require.NoError(t, os.WriteFile(script, []byte(`{"engine":"scpt","messages":[{"message":"only one"}]}`), 0o644))

	r := newRunner(t)
	out := filepath.Join(root, "out", "a.scpt")
	res := r.ImportFile(context.Background(), ImportJob{Input: asset, Script: script, Output: out})
	assert.ErrorIs(t, res.Err, types.ErrFormat)
	assert.Equal(t, types.OutcomeError, res.Outcome)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(filepath.Dir(out))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp file removed")
}

func TestImportEngineMismatch(t *testing.T) {
	root := t.TempDir()
	asset := filepath.Join(root, "a.scpt")
	writeAsset(t, asset, "a", "x")
	script := filepath.Join(root, "a.json")
	require.NoError(t, os.WriteFile(script, []byte(`{"engine":"other","messages":[{"message":"x"}]}`), 0o644))

	res := newRunner(t).ImportFile(context.Background(), ImportJob{Input: asset, Script: script, Output: filepath.Join(root, "o")})
	assert.ErrorIs(t, res.Err, types.ErrFormat)
}

func TestResolveBySniff(t *testing.T) {
	root := t.TempDir()
	asset := filepath.Join(root, "noext")
	writeAsset(t, asset, "n", "sniffed")

	r := newRunner(t)
	res := r.ExtractFile(context.Background(), asset, filepath.Join(root, "noext.json"))
	require.NoError(t, res.Err)
	assert.Equal(t, scpt.Tag, res.Engine)

	r.Config.Engine = "missing"
	res = r.ExtractFile(context.Background(), asset, filepath.Join(root, "x.json"))
	assert.ErrorIs(t, res.Err, types.ErrUnsupported)
}

func TestExpandMissing(t *testing.T) {
	_, err := newRunner(t).Expand([]string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestExtractCancelled(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, filepath.Join(root, "a.scpt"), "a", "x")
	r := newRunner(t)
	items, err := r.Expand([]string{root})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Extract(ctx, items, filepath.Join(root, "out"))
	assert.ErrorIs(t, err, context.Canceled)
}
