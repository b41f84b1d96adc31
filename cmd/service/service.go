// Package service provides the service parent command and subcommands.
package service

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/cmd/service/subcommands"
)

// ServiceCmd is the parent command for systemd service management.
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the chunkalyze systemd user service",
	Long: "Manage the chunkalyze systemd user service.\n\n" +
		"Installs a systemd user unit that runs 'chunkalyze serve' with Type=notify, " +
		"and starts, stops, reloads, or reports on it through systemctl --user.",
}

func init() {
	ServiceCmd.AddCommand(subcommands.InstallCmd)
	ServiceCmd.AddCommand(subcommands.UninstallCmd)
	ServiceCmd.AddCommand(subcommands.StartCmd)
	ServiceCmd.AddCommand(subcommands.StopCmd)
	ServiceCmd.AddCommand(subcommands.RestartCmd)
	ServiceCmd.AddCommand(subcommands.ReloadCmd)
	ServiceCmd.AddCommand(subcommands.StatusCmd)
}
