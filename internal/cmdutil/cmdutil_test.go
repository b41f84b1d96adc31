package cmdutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ResolvePath("~/notes/a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "notes", "a.txt"), got)

	got, err = ResolvePath("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ResolvePath("a/../b.txt")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "b.txt", filepath.Base(got))
}

func TestReadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o600))

	text, err := ReadInput(path, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "from file", text)

	text, err = ReadInput("-", strings.NewReader("from stdin"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", text)

	_, err = ReadInput("", strings.NewReader("  \n"))
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = ReadInput(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
}

func TestWriteFormatted(t *testing.T) {
	v := map[string]any{"count": 2}

	var buf bytes.Buffer
	require.NoError(t, WriteFormatted(&buf, FormatJSON, v))
	assert.JSONEq(t, `{"count":2}`, buf.String())

	buf.Reset()
	require.NoError(t, WriteFormatted(&buf, FormatYAML, v))
	assert.Equal(t, "count: 2\n", buf.String())

	assert.Error(t, WriteFormatted(&buf, "xml", v))
	assert.Error(t, ValidateFormat("toml"))
}

func TestLogManager_Singleton(t *testing.T) {
	assert.Same(t, LogManager(), LogManager())
}
