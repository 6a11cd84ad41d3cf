package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabledDiscards(t *testing.T) {
	closeFn, err := Init(Options{})
	require.NoError(t, err)
	defer closeFn()
	assert.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInitWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	closeFn, err := Init(Options{Enabled: true, Stderr: &buf, Level: slog.LevelWarn})
	require.NoError(t, err)
	defer closeFn()

	Info("hidden")
	Warn("shown", "file", "a.bin")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "file=a.bin")
}

func TestInitDirectoryCreatesDatedFile(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, logPrefix+time.Now().AddDate(0, 0, -90).Format("2006-01-02")+logSuffix)
	require.NoError(t, os.WriteFile(old, nil, 0o644))

	closeFn, err := Init(Options{Enabled: true, File: dir, JSON: true})
	require.NoError(t, err)
	Error("boom")
	require.NoError(t, closeFn())

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err), "old log pruned")

	today := filepath.Join(dir, logPrefix+time.Now().Format("2006-01-02")+logSuffix)
	data, err := os.ReadFile(today)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"boom"`)

	_, _ = Init(Options{})
}
