// Package testutil provides isolated config environments for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leefowlercu/chunkalyze/internal/config"
)

// TestEnv is a config directory private to one test.
type TestEnv struct {
	t         *testing.T
	ConfigDir string
}

// NewTestEnv points CHUNKALYZE_CONFIG_DIR and the log file at a temp
// directory and initializes config from it. Config state is reset on cleanup.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	configDir := filepath.Join(t.TempDir(), "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("failed to create test config dir: %v", err)
	}

	t.Setenv("CHUNKALYZE_CONFIG_DIR", configDir)
	t.Setenv("CHUNKALYZE_LOG_FILE", filepath.Join(configDir, "chunkalyze.log"))

	env := &TestEnv{t: t, ConfigDir: configDir}
	env.reinit()
	t.Cleanup(config.Reset)

	return env
}

// ConfigPath returns the config file path inside the environment.
func (e *TestEnv) ConfigPath() string {
	return filepath.Join(e.ConfigDir, "config.yaml")
}

// WriteConfig writes yaml as the config file and reloads config from it.
func (e *TestEnv) WriteConfig(yaml string) {
	e.t.Helper()

	if err := os.WriteFile(e.ConfigPath(), []byte(yaml), 0o600); err != nil {
		e.t.Fatalf("failed to write test config: %v", err)
	}
	e.reinit()
}

// WriteInput writes content to a file outside the config directory and
// returns its path.
func (e *TestEnv) WriteInput(name, content string) string {
	e.t.Helper()

	path := filepath.Join(e.t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		e.t.Fatalf("failed to write input file %s: %v", path, err)
	}
	return path
}

func (e *TestEnv) reinit() {
	e.t.Helper()

	config.Reset()
	if err := config.Init(); err != nil {
		e.t.Fatalf("failed to initialize test config: %v", err)
	}
}
