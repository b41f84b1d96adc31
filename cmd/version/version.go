package version

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/version"
)

var versionJSON bool

// VersionCmd displays version and build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version and build information",
	Long: "Display version and build information.\n\n" +
		"Shows the semantic version, git commit hash, build date, and Go version " +
		"of the current chunkalyze binary.",
	Example: `  # Display version information
  chunkalyze version

  # Machine-readable output
  chunkalyze version --json`,
	PreRunE: validateVersion,
	RunE:    runVersion,
}

func init() {
	VersionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
}

func validateVersion(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	return nil
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.Get()
	if versionJSON {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode version info; %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), info.String())
	return nil
}
