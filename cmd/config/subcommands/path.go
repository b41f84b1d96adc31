package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/config"
)

// PathCmd prints the active config file path.
var PathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Long: "Print the config file path.\n\n" +
		"Prints the file the configuration was loaded from, or the default " +
		"location when running on defaults.",
	PreRunE: validatePath,
	RunE:    runPath,
}

func validatePath(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runPath(cmd *cobra.Command, args []string) error {
	if path := config.ConfigFilePath(); path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (not present; using defaults)\n", config.DefaultConfigPath())
	return nil
}
