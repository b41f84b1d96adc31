// Package serve provides the serve command.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/cmdutil"
	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/daemon"
)

var (
	servePort int
	serveBind string
)

// ServeCmd runs the HTTP and MCP service in the foreground.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis service in the foreground",
	Long: "Run the analysis service in the foreground.\n\n" +
		"Serves the HTTP API (/api/analyze, /api/analyze/sync, /api/chunk, /api/instances), " +
		"health endpoints, Prometheus metrics at /metrics, and the MCP transport when enabled. " +
		"SIGHUP or an edit to the config file reloads configuration; SIGINT or SIGTERM " +
		"drains running instances and exits. Under systemd with Type=notify, readiness " +
		"and shutdown are reported through sd_notify.",
	Example: `  # Serve on the configured address
  chunkalyze serve

  # Serve on all interfaces, port 8080
  chunkalyze serve --bind 0.0.0.0 --port 8080`,
	PreRunE: validateServe,
	RunE:    runServe,
}

func init() {
	ServeCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides server.http_port)")
	ServeCmd.Flags().StringVar(&serveBind, "bind", "", "HTTP bind address (overrides server.http_bind)")
}

func validateServe(cmd *cobra.Command, args []string) error {
	if servePort < 0 || servePort > 65535 {
		return fmt.Errorf("invalid --port %d; must be between 1 and 65535", servePort)
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := *config.Get()
	if servePort != 0 {
		cfg.Server.HTTPPort = servePort
	}
	if serveBind != "" {
		cfg.Server.HTTPBind = serveBind
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logs := cmdutil.LogManager()
	d, err := daemon.New(ctx, &cfg, daemon.Options{
		Logger: logs.Logger(),
		Logs:   logs,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize service; %w", err)
	}

	config.SetEventBus(d.EventBus())
	config.SetupSignalHandler()
	defer config.StopSignalHandler()
	config.Watch()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("service error; %w", err)
	}
	return nil
}
