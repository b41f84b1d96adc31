package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/cmd/analyze"
	"github.com/leefowlercu/chunkalyze/cmd/chunk"
	configcmd "github.com/leefowlercu/chunkalyze/cmd/config"
	"github.com/leefowlercu/chunkalyze/cmd/serve"
	"github.com/leefowlercu/chunkalyze/cmd/service"
	"github.com/leefowlercu/chunkalyze/cmd/version"
	"github.com/leefowlercu/chunkalyze/internal/cmdutil"
	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/logging"
)

var chunkalyzeCmd = &cobra.Command{
	Use:   "chunkalyze",
	Short: "Chunk large texts and run text analytics over every chunk",
	Long: "Chunkalyze splits text that exceeds a text-analytics backend's request size limit " +
		"into bounded chunks, sends each chunk to the backend, and merges the per-chunk " +
		"results into a single answer.\n\n" +
		"Run 'chunkalyze serve' for the HTTP and MCP service, or use 'chunk' and 'analyze' " +
		"for one-shot runs from the command line.",
	PersistentPreRunE: runInitialize,
}

func init() {
	slog.SetDefault(cmdutil.LogManager().Logger())

	chunkalyzeCmd.AddCommand(serve.ServeCmd)
	chunkalyzeCmd.AddCommand(chunk.ChunkCmd)
	chunkalyzeCmd.AddCommand(analyze.AnalyzeCmd)
	chunkalyzeCmd.AddCommand(configcmd.ConfigCmd)
	chunkalyzeCmd.AddCommand(service.ServiceCmd)
	chunkalyzeCmd.AddCommand(version.VersionCmd)
}

func runInitialize(cmd *cobra.Command, args []string) error {
	logManager := cmdutil.LogManager()
	logger := logManager.Logger()

	if err := config.Init(); err != nil {
		return err
	}
	cfg := config.Get()

	level, ok := logging.ParseLevel(cfg.LogLevel)
	if !ok {
		level = logging.DefaultLevel
		if cfg.LogLevel != "" {
			logger.Warn("invalid log level configured, using default", "configured", cfg.LogLevel, "default", "info")
		}
	}

	rotation := logging.Rotation{
		MaxSizeMB:  cfg.LogRotation.MaxSizeMB,
		MaxBackups: cfg.LogRotation.MaxBackups,
		MaxAgeDays: cfg.LogRotation.MaxAgeDays,
		Compress:   cfg.LogRotation.Compress,
	}
	if err := logManager.Upgrade(config.ExpandPath(cfg.LogFile), level, rotation); err != nil {
		logger.Warn("failed to enable file logging, continuing with stderr only", "error", err)
	}

	return nil
}

func Execute() error {
	chunkalyzeCmd.SilenceErrors = true
	chunkalyzeCmd.SilenceUsage = true

	defer func() { _ = cmdutil.LogManager().Close() }()

	err := chunkalyzeCmd.Execute()

	if err != nil {
		cmd, _, _ := chunkalyzeCmd.Find(os.Args[1:])
		if cmd == nil {
			cmd = chunkalyzeCmd
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if !cmd.SilenceUsage {
			fmt.Fprintf(os.Stderr, "\n")
			cmd.SetOut(os.Stderr)
			_ = cmd.Usage()
		}

		return err
	}

	return nil
}
