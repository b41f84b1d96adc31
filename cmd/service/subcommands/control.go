package subcommands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/servicemanager"
)

func controlCommand(use, short, done string, action func(*servicemanager.Manager, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:     use,
		Short:   short,
		PreRunE: silenceUsage,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager()
			if err != nil {
				return err
			}
			installed, err := m.IsInstalled()
			if err != nil {
				return err
			}
			if !installed {
				return fmt.Errorf("service is not installed; run 'chunkalyze service install'")
			}
			if err := action(m, cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), done)
			return nil
		},
	}
}

var (
	// StartCmd starts the service.
	StartCmd = controlCommand("start", "Start the service", "Service started",
		(*servicemanager.Manager).Start)

	// StopCmd stops the service.
	StopCmd = controlCommand("stop", "Stop the service", "Service stopped",
		(*servicemanager.Manager).Stop)

	// RestartCmd restarts the service.
	RestartCmd = controlCommand("restart", "Restart the service", "Service restarted",
		(*servicemanager.Manager).Restart)

	// ReloadCmd sends SIGHUP so the service reloads its configuration.
	ReloadCmd = controlCommand("reload", "Reload the service configuration", "Reload requested",
		(*servicemanager.Manager).Reload)
)
