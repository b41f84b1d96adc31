package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/cmdutil"
	"github.com/leefowlercu/chunkalyze/internal/servicemanager"
)

var statusFormat string

// StatusCmd reports the service state and daemon readiness.
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show service state and readiness",
	Long: "Show service state and readiness.\n\n" +
		"Reports whether the unit is installed and enabled, whether it is running, " +
		"and, when running, the daemon's /readyz response.",
	PreRunE: validateStatus,
	RunE:    runStatus,
}

func init() {
	StatusCmd.Flags().StringVar(&statusFormat, "format", "", "Machine-readable output (json, yaml)")
}

func validateStatus(cmd *cobra.Command, args []string) error {
	if statusFormat != "" {
		if err := cmdutil.ValidateFormat(statusFormat); err != nil {
			return err
		}
	}
	cmd.SilenceUsage = true
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	status, err := m.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if statusFormat != "" {
		return cmdutil.WriteFormatted(out, statusFormat, status)
	}

	fmt.Fprintf(out, "Service:  %s\n", status.ServiceState)
	if status.ServiceState == servicemanager.ServiceStateNotInstalled {
		return nil
	}
	running := "no"
	if status.Running {
		running = fmt.Sprintf("yes (pid %d)", status.PID)
	}
	fmt.Fprintf(out, "Running:  %s\n", running)
	if status.Health != nil {
		fmt.Fprintf(out, "Health:   %s (ready: %t, uptime: %s)\n",
			status.Health.Status, status.Health.Ready, status.Health.Uptime.Round(1e9))
		for name, c := range status.Health.Components {
			line := fmt.Sprintf("  %-10s %s", name, c.Status)
			if c.Error != "" {
				line += " (" + c.Error + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
	return nil
}
