package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"none":    LevelNone,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "calc.log")
	log, closer, err := New("warn", path)
	require.NoError(t, err)
	log.Info("hidden")
	log.Warn("shown", "expr", "1÷0")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "msg=shown")
	assert.Contains(t, string(data), "expr=1÷0")
}

func TestNewDisabled(t *testing.T) {
	dir := t.TempDir()
	log, closer, err := New("none", filepath.Join(dir, "calc.log"))
	require.NoError(t, err)
	log.Error("dropped")
	assert.NoError(t, closer.Close())
	_, err = os.Stat(filepath.Join(dir, "calc.log"))
	assert.True(t, os.IsNotExist(err))
}

func TestNewWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(slog.LevelDebug, &buf)
	log.Debug("details")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
