// Package config provides the config parent command and subcommands.
package config

import (
	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/cmd/config/subcommands"
)

// ConfigCmd is the parent command for all config-related subcommands.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chunkalyze configuration",
	Long: "Manage chunkalyze configuration.\n\n" +
		"Configuration is read from config.yaml in $CHUNKALYZE_CONFIG_DIR, " +
		"~/.config/chunkalyze, or the working directory, in that order. Any setting " +
		"can be overridden with a CHUNKALYZE_ environment variable, e.g. " +
		"CHUNKALYZE_SERVER_HTTP_PORT.",
}

func init() {
	ConfigCmd.AddCommand(subcommands.InitCmd)
	ConfigCmd.AddCommand(subcommands.ShowCmd)
	ConfigCmd.AddCommand(subcommands.PathCmd)
	ConfigCmd.AddCommand(subcommands.ValidateCmd)
}
