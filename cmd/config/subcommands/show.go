package subcommands

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/config"
)

var (
	showRaw    bool
	showFormat string
)

// ShowCmd displays the current configuration.
var ShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the current configuration",
	Long: "Display the current configuration.\n\n" +
		"Shows the effective configuration with defaults and environment overrides " +
		"applied. Use --raw to print the config file as written, or --format to " +
		"render the effective configuration as yaml, toml, or json.",
	Example: `  # Show effective configuration
  chunkalyze config show

  # Show effective configuration as TOML
  chunkalyze config show --format toml

  # Show the config file as written
  chunkalyze config show --raw`,
	PreRunE: validateShow,
	RunE:    runShow,
}

func init() {
	ShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Show the config file contents as written")
	ShowCmd.Flags().StringVar(&showFormat, "format", config.FormatYAML, "Output format ("+strings.Join(config.Formats, ", ")+")")
}

func validateShow(cmd *cobra.Command, args []string) error {
	if !slices.Contains(config.Formats, strings.ToLower(showFormat)) {
		return fmt.Errorf("unsupported format %q; must be one of %s", showFormat, strings.Join(config.Formats, ", "))
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if showRaw {
		return showRawConfig(cmd)
	}
	return showEffectiveConfig(cmd)
}

func showRawConfig(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	configPath := config.ConfigFilePath()
	if configPath == "" {
		fmt.Fprintln(out, "# No configuration file found")
		fmt.Fprintf(out, "# Default location: %s\n", config.DefaultConfigPath())
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file; %w", err)
	}

	fmt.Fprintf(out, "# Configuration file: %s\n", configPath)
	fmt.Fprintln(out, string(data))
	return nil
}

func showEffectiveConfig(cmd *cobra.Command) error {
	data, err := config.Marshal(config.Get(), showFormat)
	if err != nil {
		return fmt.Errorf("failed to format configuration; %w", err)
	}

	out := cmd.OutOrStdout()
	if strings.ToLower(showFormat) != config.FormatJSON {
		source := config.ConfigFilePath()
		if source == "" {
			source = "none (defaults)"
		}
		fmt.Fprintln(out, "# Effective configuration (with defaults)")
		fmt.Fprintf(out, "# Config file: %s\n", source)
	}
	fmt.Fprintln(out, strings.TrimRight(string(data), "\n"))
	return nil
}
