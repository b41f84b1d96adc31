package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/servicemanager"
)

var (
	installPrint bool
	installStart bool
)

// InstallCmd writes and enables the systemd unit.
var InstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and enable the systemd user unit",
	Long: "Install and enable the systemd user unit.\n\n" +
		"Writes ~/.config/systemd/user/chunkalyze.service pointing at the current " +
		"binary and enables it. Use --print to show the unit without installing it.",
	Example: `  # Install, enable, and start the service
  chunkalyze service install --start

  # Show the unit file only
  chunkalyze service install --print`,
	PreRunE: validateInstall,
	RunE:    runInstall,
}

func init() {
	InstallCmd.Flags().BoolVar(&installPrint, "print", false, "Print the unit file instead of installing it")
	InstallCmd.Flags().BoolVar(&installStart, "start", false, "Start the service after installing")
}

func validateInstall(cmd *cobra.Command, args []string) error {
	if installPrint && installStart {
		return fmt.Errorf("--print and --start cannot be combined")
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInstall(cmd *cobra.Command, args []string) error {
	m, err := newManager()
	if err != nil {
		return err
	}

	if installPrint {
		data, err := m.UnitFile()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	if err := m.Install(cmd.Context()); err != nil {
		return fmt.Errorf("failed to install service; %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed %s at %s\n", servicemanager.UnitName, m.UnitPath())

	if installStart {
		if err := m.Start(cmd.Context()); err != nil {
			return fmt.Errorf("failed to start service; %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Service started")
	}
	return nil
}

// UninstallCmd stops, disables, and removes the unit.
var UninstallCmd = &cobra.Command{
	Use:     "uninstall",
	Short:   "Stop, disable, and remove the systemd user unit",
	PreRunE: silenceUsage,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := newManager()
		if err != nil {
			return err
		}
		if err := m.Uninstall(cmd.Context()); err != nil {
			return fmt.Errorf("failed to uninstall service; %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", m.UnitPath())
		return nil
	},
}

// newManager is swapped in tests.
var newManager = func() (*servicemanager.Manager, error) {
	return servicemanager.New()
}

func silenceUsage(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}
