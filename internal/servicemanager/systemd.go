package servicemanager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
)

// UnitOptions returns the unit definition. The service reports readiness
// through sd_notify, so it runs as Type=notify.
func (m *Manager) UnitOptions() []*unit.UnitOption {
	return []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", "Chunkalyze text analytics chunking service"),
		unit.NewUnitOption("Unit", "After", "network-online.target"),
		unit.NewUnitOption("Unit", "StartLimitBurst", "5"),
		unit.NewUnitOption("Unit", "StartLimitIntervalSec", "60"),
		unit.NewUnitOption("Service", "Type", "notify"),
		unit.NewUnitOption("Service", "ExecStart", m.binaryPath+" serve"),
		unit.NewUnitOption("Service", "ExecReload", "/bin/kill -HUP $MAINPID"),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
		unit.NewUnitOption("Service", "RestartSec", "5"),
		unit.NewUnitOption("Service", "TimeoutStopSec", "45"),
		unit.NewUnitOption("Install", "WantedBy", "default.target"),
	}
}

// UnitFile renders the unit file.
func (m *Manager) UnitFile() ([]byte, error) {
	data, err := io.ReadAll(unit.Serialize(m.UnitOptions()))
	if err != nil {
		return nil, fmt.Errorf("failed to render unit file; %w", err)
	}
	return data, nil
}

// Install writes the unit file and enables it.
func (m *Manager) Install(ctx context.Context) error {
	content, err := m.UnitFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(m.unitDir, 0755); err != nil {
		return fmt.Errorf("failed to create systemd user directory; %w", err)
	}
	if err := os.WriteFile(m.UnitPath(), content, 0644); err != nil {
		return fmt.Errorf("failed to write unit file; %w", err)
	}

	if err := m.systemctl(ctx, "daemon-reload"); err != nil {
		return err
	}
	return m.systemctl(ctx, "enable", UnitName)
}

// Uninstall stops and disables the service and removes the unit file.
func (m *Manager) Uninstall(ctx context.Context) error {
	// Stop and disable fail harmlessly when the unit is not active or enabled.
	_ = m.systemctl(ctx, "stop", UnitName)
	_ = m.systemctl(ctx, "disable", UnitName)

	if err := os.Remove(m.UnitPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove unit file; %w", err)
	}

	return m.systemctl(ctx, "daemon-reload")
}

// Start starts the service.
func (m *Manager) Start(ctx context.Context) error {
	return m.systemctl(ctx, "start", UnitName)
}

// Stop stops the service.
func (m *Manager) Stop(ctx context.Context) error {
	return m.systemctl(ctx, "stop", UnitName)
}

// Restart restarts the service.
func (m *Manager) Restart(ctx context.Context) error {
	return m.systemctl(ctx, "restart", UnitName)
}

// Reload asks the running service to reload its configuration.
func (m *Manager) Reload(ctx context.Context) error {
	return m.systemctl(ctx, "reload", UnitName)
}

// IsInstalled reports whether the unit file exists.
func (m *Manager) IsInstalled() (bool, error) {
	_, err := os.Stat(m.UnitPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Status reports installation state, the main PID, and, when running, the
// daemon's readiness.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	status := Status{ServiceState: ServiceStateNotInstalled}

	installed, err := m.IsInstalled()
	if err != nil {
		return status, fmt.Errorf("failed to check unit file; %w", err)
	}
	if !installed {
		return status, nil
	}

	output, err := m.executor.Run(ctx, "systemctl", "--user", "show", UnitName,
		"--property=ActiveState,MainPID,UnitFileState")
	if err != nil {
		status.ServiceState = ServiceStateDisabled
		return status, nil
	}
	status.ServiceState, status.PID, status.Running = parseSystemctlShow(string(output))

	if status.Running {
		if health, err := m.fetchHealth(ctx); err == nil {
			status.Health = health
		}
	}
	return status, nil
}

func (m *Manager) systemctl(ctx context.Context, args ...string) error {
	output, err := m.executor.Run(ctx, "systemctl", append([]string{"--user"}, args...)...)
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail != "" {
			return fmt.Errorf("systemctl %s failed: %s; %w", strings.Join(args, " "), detail, err)
		}
		return fmt.Errorf("systemctl %s failed; %w", strings.Join(args, " "), err)
	}
	return nil
}

// parseSystemctlShow parses `systemctl show` key=value output.
func parseSystemctlShow(output string) (ServiceState, int, bool) {
	state := ServiceStateDisabled
	pid := 0
	running := false

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}

		switch key {
		case "ActiveState":
			running = value == "active" || value == "activating" || value == "reloading"
		case "MainPID":
			if p, err := strconv.Atoi(value); err == nil && p > 0 {
				pid = p
			}
		case "UnitFileState":
			if value == "enabled" || value == "enabled-runtime" {
				state = ServiceStateEnabled
			}
		}
	}

	return state, pid, running
}
