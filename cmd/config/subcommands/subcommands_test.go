package subcommands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chunkalyze/internal/config"
)

func TestInitThenValidate(t *testing.T) {
	t.Cleanup(func() {
		initForce, initPath = false, ""
		config.Reset()
	})

	path := filepath.Join(t.TempDir(), "config.yaml")
	initPath = path

	var out bytes.Buffer
	InitCmd.SetOut(&out)
	require.NoError(t, runInit(InitCmd, nil))
	assert.Contains(t, out.String(), path)
	assert.FileExists(t, path)

	assert.ErrorContains(t, runInit(InitCmd, nil), "already exists")

	initForce = true
	require.NoError(t, runInit(InitCmd, nil))

	out.Reset()
	ValidateCmd.SetOut(&out)
	require.NoError(t, runValidate(ValidateCmd, []string{path}))
	assert.Contains(t, out.String(), "Configuration is valid")
}

func TestValidate_Invalid(t *testing.T) {
	t.Cleanup(config.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  http_port: 70000\n"), 0o600))

	var out bytes.Buffer
	ValidateCmd.SetOut(&out)
	err := runValidate(ValidateCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, out.String(), "server.http_port")
}

func TestShow_Formats(t *testing.T) {
	t.Cleanup(func() {
		showFormat, showRaw = "yaml", false
		config.Reset()
	})

	tests := []struct {
		format string
		want   string
	}{
		{"yaml", "http_port: 7780"},
		{"toml", "http_port = 7780"},
		{"json", `"http_port": 7780`},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			showFormat = tt.format
			require.NoError(t, validateShow(ShowCmd, nil))

			var out bytes.Buffer
			ShowCmd.SetOut(&out)
			require.NoError(t, runShow(ShowCmd, nil))
			assert.Contains(t, out.String(), tt.want)
		})
	}

	showFormat = "ini"
	assert.Error(t, validateShow(ShowCmd, nil))
}
