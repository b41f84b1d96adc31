package config

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the default config directory path.
// CHUNKALYZE_CONFIG_DIR takes precedence over ~/.config/chunkalyze.
func ConfigDir() string {
	if dir := os.Getenv(envConfigDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", "chunkalyze")
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ConfigExistsAt returns true if a config file exists at the specified path.
func ConfigExistsAt(path string) bool {
	_, err := os.Stat(expandHome(path))
	return err == nil
}
