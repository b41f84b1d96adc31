package subcommands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/config"
)

// ValidateCmd validates a configuration file.
var ValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a configuration file",
	Long: "Validate a configuration file.\n\n" +
		"Checks the file for syntax errors and validates that all settings have " +
		"valid values. Without a path, the file found on the search path is " +
		"validated. Returns exit code 0 if valid, 1 if invalid.",
	Example: `  # Validate the active configuration
  chunkalyze config validate

  # Validate a specific file
  chunkalyze config validate ./config.yaml`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateValidate,
	RunE:    runValidate,
}

func validateValidate(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	configPath := config.ConfigFilePath()
	if len(args) == 1 {
		configPath = config.ExpandPath(args[0])
	}

	if configPath == "" || !config.ConfigExistsAt(configPath) {
		if len(args) == 1 {
			return fmt.Errorf("config file %s does not exist", configPath)
		}
		fmt.Fprintf(out, "No configuration file found at %s\n", config.DefaultConfigPath())
		fmt.Fprintln(out, "Using default configuration values.")
		return nil
	}

	if _, err := config.LoadFromPath(configPath); err != nil {
		fmt.Fprintln(out, "Configuration validation failed:")
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			for _, v := range verrs {
				fmt.Fprintf(out, "  - %s\n", v.Error())
			}
		} else {
			fmt.Fprintf(out, "  %v\n", err)
		}
		return fmt.Errorf("configuration is invalid")
	}

	fmt.Fprintf(out, "Configuration is valid: %s\n", configPath)
	return nil
}
