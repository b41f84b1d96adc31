package subcommands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/cmdutil"
	"github.com/leefowlercu/chunkalyze/internal/config"
)

var (
	initForce bool
	initPath  string
)

// InitCmd writes a config file populated with default values.
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: "Write a default configuration file.\n\n" +
		"Creates config.yaml with every setting at its default value. An existing " +
		"file is left untouched unless --force is given.",
	Example: `  # Write ~/.config/chunkalyze/config.yaml
  chunkalyze config init

  # Overwrite a config file at a custom path
  chunkalyze config init --path ./config.yaml --force`,
	PreRunE: validateInit,
	RunE:    runInit,
}

func init() {
	InitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
	InitCmd.Flags().StringVar(&initPath, "path", "", "Config file path (default: ~/.config/chunkalyze/config.yaml)")
}

func validateInit(cmd *cobra.Command, args []string) error {
	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if initPath != "" {
		resolved, err := cmdutil.ResolvePath(initPath)
		if err != nil {
			return fmt.Errorf("failed to resolve --path; %w", err)
		}
		path = resolved
	}

	if config.ConfigExistsAt(path) && !initForce {
		return fmt.Errorf("config file %s already exists; use --force to overwrite", path)
	}

	cfg := config.NewDefaultConfig()
	if err := config.Write(&cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", path)
	return nil
}
