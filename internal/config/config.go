// Package config loads, validates, and hot-reloads chunkalyze configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	stateMu sync.RWMutex

	// current is the last successfully loaded configuration
	current *Config

	// configFilePath stores the path to the loaded config file
	configFilePath string

	// watcher is the viper instance that owns the file watch
	watcher *viper.Viper

	reloadHooks []func(old, new *Config)
)

// Init loads the configuration into process-wide state.
// It searches for configuration files in priority order:
//  1. Directory specified by CHUNKALYZE_CONFIG_DIR environment variable
//  2. ~/.config/chunkalyze/
//  3. Current working directory (.)
//
// If no config file is found, defaults are used. A file that exists but is
// unreadable, malformed, or invalid is an error.
func Init() error {
	v := newViper()

	if err := readConfig(v); err != nil {
		return err
	}

	cfg, err := unmarshalConfig(v)
	if err != nil {
		return err
	}

	stateMu.Lock()
	current = cfg
	configFilePath = v.ConfigFileUsed()
	watcher = v
	stateMu.Unlock()

	if path := ConfigFilePath(); path != "" {
		slog.Debug("config initialized", "file", path)
	}

	return nil
}

// Get returns the current configuration, or defaults if Init has not run.
// Callers must not modify the returned value.
func Get() *Config {
	stateMu.RLock()
	defer stateMu.RUnlock()

	if current == nil {
		return LoadWithDefaults()
	}
	return current
}

// ConfigFilePath returns the path to the loaded config file,
// or empty string if using defaults only.
func ConfigFilePath() string {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return configFilePath
}

// Reset clears the configuration state for testing purposes.
func Reset() {
	stateMu.Lock()
	defer stateMu.Unlock()

	current = nil
	configFilePath = ""
	watcher = nil
	reloadHooks = nil
}

// OnReload registers fn to run after every successful reload.
func OnReload(fn func(old, new *Config)) {
	stateMu.Lock()
	defer stateMu.Unlock()
	reloadHooks = append(reloadHooks, fn)
}

// Reload re-reads the configuration from disk.
// On failure, the previous configuration is retained.
func Reload() error {
	v := newViper()
	if path := ConfigFilePath(); path != "" {
		v.SetConfigFile(path)
	}

	cfg, err := func() (*Config, error) {
		if err := readConfig(v); err != nil {
			return nil, err
		}
		return unmarshalConfig(v)
	}()
	if err != nil {
		slog.Error("config reload failed; retaining previous values", "error", err)
		publishConfigReloadFailed(err)
		return fmt.Errorf("failed to reload config; %w", err)
	}

	stateMu.Lock()
	old := current
	if old == nil {
		old = LoadWithDefaults()
	}
	current = cfg
	if used := v.ConfigFileUsed(); used != "" {
		configFilePath = used
	}
	hooks := append([]func(old, new *Config){}, reloadHooks...)
	stateMu.Unlock()

	slog.Info("config reloaded", "file", ConfigFilePath())
	publishConfigReloaded(old, cfg)

	for _, hook := range hooks {
		hook(old, cfg)
	}

	return nil
}

// Watch reloads the configuration whenever the loaded file changes on disk.
// It is a no-op when running on defaults only.
func Watch() {
	stateMu.RLock()
	v := watcher
	path := configFilePath
	stateMu.RUnlock()

	if v == nil || path == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloadMu.Lock()
		defer reloadMu.Unlock()

		slog.Info("config file changed; reloading", "file", e.Name, "op", e.Op.String())
		_ = Reload()
	})
	v.WatchConfig()
}

// expandHome expands a leading ~ in path to the user's home directory.
// Only "~" and "~/..." are expanded.
func expandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}

	if len(path) > 1 && path[1] != '/' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return home
	}

	return filepath.Join(home, path[2:])
}

// ExpandPath returns path with a leading ~ expanded.
func ExpandPath(path string) string {
	return expandHome(path)
}
