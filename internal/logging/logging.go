// Package logging owns the process-wide slog logger and its outputs.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation controls when the JSON log file is rotated.
type Rotation struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation is used when Upgrade is given a zero Rotation.
var DefaultRotation = Rotation{MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 28}

// Manager handles logger lifecycle including the bootstrap-to-full transition.
// Components obtain a logger via Logger() and receive it through options.
type Manager struct {
	handler *SwappableHandler
	logger  *slog.Logger
	console io.Writer
	file    *lumberjack.Logger
	path    string
	level   *slog.LevelVar
	mu      sync.Mutex
}

// NewManager creates a logging manager in bootstrap mode (stderr text only).
func NewManager() *Manager {
	return newManager(os.Stderr)
}

func newManager(console io.Writer) *Manager {
	level := new(slog.LevelVar)
	level.Set(DefaultLevel)

	handler := NewSwappableHandler(slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))

	return &Manager{
		handler: handler,
		logger:  slog.New(handler),
		console: console,
		level:   level,
	}
}

// Logger returns the managed logger. The returned value is stable across
// Upgrade calls.
func (m *Manager) Logger() *slog.Logger {
	return m.logger
}

// Upgrade adds a rotating JSON file output next to the console output and
// sets the level. Calling it again with a different path switches files.
func (m *Manager) Upgrade(logFilePath string, level slog.Level, rotation Rotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dir := filepath.Dir(logFilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q; %w", dir, err)
	}

	// lumberjack opens lazily; probe now so a bad path fails here.
	probe, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %q; %w", logFilePath, err)
	}
	_ = probe.Close()

	if rotation == (Rotation{}) {
		rotation = DefaultRotation
	}

	if m.file != nil {
		_ = m.file.Close()
	}
	m.file = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    rotation.MaxSizeMB,
		MaxBackups: rotation.MaxBackups,
		MaxAge:     rotation.MaxAgeDays,
		Compress:   rotation.Compress,
	}
	m.path = logFilePath

	m.level.Set(level)
	opts := &slog.HandlerOptions{Level: m.level}

	m.handler.Swap(slogmulti.Fanout(
		slog.NewTextHandler(m.console, opts),
		slog.NewJSONHandler(m.file, opts),
	))

	return nil
}

// Path returns the current log file path, or "" in bootstrap mode.
func (m *Manager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// SetLevel changes the log level at runtime.
func (m *Manager) SetLevel(level slog.Level) {
	m.level.Set(level)
}

// Level returns the current log level.
func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

// Close closes the log file if one is open.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	m.path = ""
	return err
}
