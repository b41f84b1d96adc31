// Package servicemanager installs and controls chunkalyze as a systemd user
// service.
package servicemanager

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/daemon"
	"github.com/leefowlercu/chunkalyze/internal/daemonclient"
)

// UnitName is the systemd unit the service is installed as.
const UnitName = "chunkalyze.service"

// ServiceState represents the installation state of the service.
type ServiceState string

const (
	ServiceStateEnabled      ServiceState = "enabled"
	ServiceStateDisabled     ServiceState = "disabled"
	ServiceStateNotInstalled ServiceState = "not-installed"
)

func (s ServiceState) String() string {
	return string(s)
}

// Status is the observed state of the installed service.
type Status struct {
	ServiceState ServiceState `json:"serviceState"`
	Running      bool         `json:"running"`
	PID          int          `json:"pid,omitempty"`

	// Health is the /readyz body, nil when the service is not running or
	// did not answer.
	Health *daemon.HealthStatus `json:"health,omitempty"`
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execExecutor struct{}

func (execExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Manager controls the systemd unit.
type Manager struct {
	executor   CommandExecutor
	unitDir    string
	binaryPath string
	serviceURL string
	client     *daemonclient.Client
}

// Option configures a Manager.
type Option func(*Manager)

// WithExecutor replaces the systemctl executor.
func WithExecutor(e CommandExecutor) Option {
	return func(m *Manager) {
		m.executor = e
	}
}

// WithUnitDir overrides ~/.config/systemd/user.
func WithUnitDir(dir string) Option {
	return func(m *Manager) {
		m.unitDir = dir
	}
}

// WithBinaryPath overrides the ExecStart binary.
func WithBinaryPath(path string) Option {
	return func(m *Manager) {
		m.binaryPath = path
	}
}

// WithServiceURL overrides the service base URL derived from config.
func WithServiceURL(url string) Option {
	return func(m *Manager) {
		m.serviceURL = url
	}
}

// New creates a Manager. Only Linux is supported.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		executor: execExecutor{},
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.unitDir == "" {
		if runtime.GOOS != "linux" {
			return nil, fmt.Errorf("platform %s is not supported; systemd is required", runtime.GOOS)
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory; %w", err)
		}
		m.unitDir = filepath.Join(home, ".config", "systemd", "user")
	}
	if m.binaryPath == "" {
		m.binaryPath = BinaryPath()
	}
	if m.serviceURL == "" {
		m.serviceURL = daemonclient.ResolveBaseURL(config.Get().Server)
	}
	m.client = daemonclient.New(m.serviceURL, daemonclient.WithTimeout(5*time.Second))

	return m, nil
}

// UnitPath returns the path of the unit file.
func (m *Manager) UnitPath() string {
	return filepath.Join(m.unitDir, UnitName)
}

// BinaryPath returns the path of the running chunkalyze binary, falling back
// to a PATH lookup.
func BinaryPath() string {
	if exe, err := os.Executable(); err == nil {
		return exe
	}
	if path, err := exec.LookPath("chunkalyze"); err == nil {
		return path
	}
	return "chunkalyze"
}

// fetchHealth reads the daemon's readiness endpoint.
func (m *Manager) fetchHealth(ctx context.Context) (*daemon.HealthStatus, error) {
	health, err := m.client.Ready(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s; %w", m.serviceURL, err)
	}
	return health, nil
}
