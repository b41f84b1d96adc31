package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
		{"verbose", DefaultLevel, false},
		{"", DefaultLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, ParseLevelOrDefault(tt.in))
		})
	}
}

func TestManager_BootstrapWritesTextToConsole(t *testing.T) {
	var console bytes.Buffer
	mgr := newManager(&console)
	defer func() { _ = mgr.Close() }()

	mgr.Logger().Info("hello", "key", "value")

	assert.Contains(t, console.String(), "msg=hello")
	assert.Contains(t, console.String(), "key=value")
	assert.Empty(t, mgr.Path())
}

func TestManager_Upgrade_WritesJSONFile(t *testing.T) {
	var console bytes.Buffer
	mgr := newManager(&console)
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "nested", "dir", "chunkalyze.log")
	logger := mgr.Logger()

	require.NoError(t, mgr.Upgrade(logFile, slog.LevelInfo, Rotation{}))
	assert.Equal(t, logFile, mgr.Path())

	logger.With("component", "server").Info("structured message", "request_id", "abc-123", "count", 42)

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(content), &entry))
	assert.Equal(t, "structured message", entry["msg"])
	assert.Equal(t, "server", entry["component"])
	assert.Equal(t, "abc-123", entry["request_id"])
	assert.Equal(t, float64(42), entry["count"])

	assert.Contains(t, console.String(), "structured message")
}

func TestManager_SetLevel(t *testing.T) {
	var console bytes.Buffer
	mgr := newManager(&console)
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "test.log")
	require.NoError(t, mgr.Upgrade(logFile, slog.LevelWarn, Rotation{MaxSizeMB: 1}))

	mgr.Logger().Info("filtered")
	mgr.SetLevel(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, mgr.Level())
	mgr.Logger().Debug("visible")

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "filtered")
	assert.Contains(t, string(content), "visible")
}

func TestManager_Upgrade_PathIsDirectory(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})
	defer func() { _ = mgr.Close() }()

	err := mgr.Upgrade(t.TempDir(), slog.LevelInfo, Rotation{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to open log file"))
}

func TestManager_Close(t *testing.T) {
	mgr := newManager(&bytes.Buffer{})

	require.NoError(t, mgr.Close(), "close in bootstrap mode")

	require.NoError(t, mgr.Upgrade(filepath.Join(t.TempDir(), "test.log"), slog.LevelInfo, Rotation{}))
	require.NoError(t, mgr.Close())
	require.NoError(t, mgr.Close(), "second close")
	assert.Empty(t, mgr.Path())
}

func TestSwappableHandler_Swap(t *testing.T) {
	var first, second bytes.Buffer
	h := NewSwappableHandler(slog.NewTextHandler(&first, nil))
	logger := slog.New(h)

	logger.Info("one")
	h.Swap(slog.NewJSONHandler(&second, nil))
	logger.Info("two")

	assert.Contains(t, first.String(), "one")
	assert.NotContains(t, first.String(), "two")
	assert.Contains(t, second.String(), `"msg":"two"`)
}

func TestSwappableHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSwappableHandler(slog.NewJSONHandler(&buf, nil)))

	logger.WithGroup("req").Info("grouped", "id", 7)

	assert.Contains(t, buf.String(), `"req":{"id":7}`)
}
