// Package daemon runs the chunkalyze HTTP service: the analysis API, health
// endpoints, Prometheus metrics, and the MCP transport, plus the lifecycle
// that starts and drains them.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	sdnotify "github.com/coreos/go-systemd/v22/daemon"

	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/events"
	"github.com/leefowlercu/chunkalyze/internal/logging"
	"github.com/leefowlercu/chunkalyze/internal/mcp"
	"github.com/leefowlercu/chunkalyze/internal/metrics"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/version"
)

// DaemonState represents the lifecycle state of the daemon.
type DaemonState string

const (
	DaemonStateStarting DaemonState = "starting"
	DaemonStateRunning  DaemonState = "running"
	DaemonStateStopping DaemonState = "stopping"
	DaemonStateStopped  DaemonState = "stopped"
)

// CanTransitionTo returns true if transitioning to the target state is valid.
func (s DaemonState) CanTransitionTo(target DaemonState) bool {
	switch s {
	case DaemonStateStopped:
		return target == DaemonStateStarting
	case DaemonStateStarting:
		return target == DaemonStateRunning || target == DaemonStateStopping || target == DaemonStateStopped
	case DaemonStateRunning:
		return target == DaemonStateStopping
	case DaemonStateStopping:
		return target == DaemonStateStopped
	default:
		return false
	}
}

// ErrAlreadyRunning is returned by Start on a daemon that is not stopped.
var ErrAlreadyRunning = errors.New("daemon already running")

// Options are the collaborators a Daemon may be given instead of building
// its own. Logs is used to apply log level changes on config reload.
type Options struct {
	Logger *slog.Logger
	Logs   *logging.Manager

	// Listener overrides the configured bind address.
	Listener net.Listener
}

// Daemon owns every long-running component of the service.
// It is safe for concurrent use.
type Daemon struct {
	mu     sync.RWMutex
	state  DaemonState
	cfg    *config.Config
	logger *slog.Logger
	logs   *logging.Manager
	ln     net.Listener

	bus       *events.EventBus
	store     orchestration.Store
	pipeline  *Pipeline
	runner    *orchestration.Runner
	health    *HealthManager
	server    *Server
	mcp       *mcp.Server
	collector *metrics.Collector
}

// New assembles the daemon's components from cfg without starting them.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Daemon, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bus := events.NewBus(
		events.WithBufferSize(cfg.Server.EventBusBufferSize),
		events.WithLogger(logger),
	)

	store, err := NewStore(ctx, cfg)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	pipeline, err := NewPipeline(cfg, bus, logger)
	if err != nil {
		_ = store.Close()
		_ = bus.Close()
		return nil, err
	}

	runner := orchestration.NewRunner(pipeline.Driver, store,
		orchestration.WithRunnerEventBus(bus),
		orchestration.WithRunnerLogger(logger),
	)

	health := NewHealthManager(version.Version())
	server := NewServer(health, API{
		Parser:   pipeline.Parser,
		Chunker:  pipeline.Chunker,
		Analyzer: pipeline.Driver,
		Runner:   runner,
	}, ServerConfig{
		Port:          cfg.Server.HTTPPort,
		Bind:          cfg.Server.HTTPBind,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		MCPBasePath:   cfg.MCP.BasePath,
	}, logger)

	d := &Daemon{
		state:    DaemonStateStopped,
		cfg:      cfg,
		logger:   logger.With("component", "daemon"),
		logs:     opts.Logs,
		ln:       opts.Listener,
		bus:      bus,
		store:    store,
		pipeline: pipeline,
		runner:   runner,
		health:   health,
		server:   server,
	}

	if cfg.MCP.Enabled {
		d.mcp = mcp.NewServer(mcp.Deps{
			Chunker:   pipeline.Chunker,
			Parser:    pipeline.Parser,
			Analyzer:  pipeline.Driver,
			Instances: runner,
			Bus:       bus,
			Logger:    logger,
		}, mcp.Config{
			Name:     "chunkalyze",
			Version:  version.Version(),
			BasePath: cfg.MCP.BasePath,
		})
		server.SetMCPHandler(d.mcp.Handler())
	}

	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		health.RegisterCheck("store", pinger.Ping)
	}
	health.RegisterCheck("event_bus", func(ctx context.Context) error {
		if bus.Closed() {
			return errors.New("event bus closed")
		}
		return nil
	})

	if cfg.Metrics.Enabled {
		interval := time.Duration(cfg.Server.MetricsInterval) * time.Second
		d.collector = metrics.NewCollector(interval, version.Version())
		d.collector.Register("instances", orchestration.NewStoreMetrics(store))
		for _, name := range []string{"store", "event_bus"} {
			d.collector.Register(name, checkProvider{health: health, name: name})
		}
		server.SetMetricsHandler(metrics.Handler())
	}

	config.OnReload(d.applyConfig)

	return d, nil
}

// State returns the current daemon state.
func (d *Daemon) State() DaemonState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Daemon) transition(target DaemonState) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.state.CanTransitionTo(target) {
		return fmt.Errorf("invalid daemon state transition from %s to %s", d.state, target)
	}
	d.state = target
	return nil
}

// Health returns the current aggregate health status.
func (d *Daemon) Health() HealthStatus {
	return d.health.Status()
}

// EventBus returns the bus that instance and config events are published on.
func (d *Daemon) EventBus() *events.EventBus {
	return d.bus
}

// Server returns the HTTP server.
func (d *Daemon) Server() *Server {
	return d.server
}

// Start runs every component and blocks until ctx is canceled or the HTTP
// server fails, then shuts down gracefully.
func (d *Daemon) Start(ctx context.Context) error {
	if err := d.transition(DaemonStateStarting); err != nil {
		return ErrAlreadyRunning
	}

	ln := d.ln
	if ln == nil {
		var err error
		if ln, err = d.server.Listen(); err != nil {
			_ = d.transition(DaemonStateStopped)
			d.release()
			return err
		}
	}

	if d.mcp != nil {
		if err := d.mcp.Start(ctx); err != nil {
			d.logger.Warn("failed to start MCP server", "error", err)
		}
	}
	if d.collector != nil {
		if err := d.collector.Start(ctx); err != nil {
			d.logger.Warn("failed to start metrics collector", "error", err)
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- d.server.Serve(ctx, ln)
	}()

	d.health.Check(ctx)
	d.health.SetReady(true)
	_ = d.transition(DaemonStateRunning)
	d.notify(sdnotify.SdNotifyReady)
	d.logger.Info("daemon started",
		"addr", ln.Addr().String(),
		"store", d.cfg.Store.Type,
		"mcp", d.mcp != nil,
		"metrics", d.collector != nil,
	)

	var runErr error
	select {
	case <-ctx.Done():
		d.logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			d.logger.Error("http server error", "error", err)
			runErr = err
		}
	}

	if err := d.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Stop drains running instances and shuts every component down within the
// configured shutdown timeout.
func (d *Daemon) Stop() error {
	if err := d.transition(DaemonStateStopping); err != nil {
		return nil
	}
	d.health.SetReady(false)
	d.notify(sdnotify.SdNotifyStopping)
	d.logger.Info("stopping daemon")

	timeout := time.Duration(d.cfg.Server.ShutdownTimeout) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := d.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := d.runner.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if d.mcp != nil {
		if err := d.mcp.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if d.collector != nil {
		d.collector.Stop()
	}
	d.release()

	_ = d.transition(DaemonStateStopped)
	d.logger.Info("daemon stopped")
	return errors.Join(errs...)
}

// release closes the store and event bus.
func (d *Daemon) release() {
	if err := d.store.Close(); err != nil {
		d.logger.Warn("failed to close instance store", "error", err)
	}
	if err := d.bus.Close(); err != nil {
		d.logger.Warn("failed to close event bus", "error", err)
	}
}

// applyConfig applies the live-reloadable settings of a reloaded config.
func (d *Daemon) applyConfig(old, updated *config.Config) {
	if d.logs == nil || old.LogLevel == updated.LogLevel {
		return
	}
	level, ok := logging.ParseLevel(updated.LogLevel)
	if !ok {
		d.logger.Warn("ignoring invalid log level", "log_level", updated.LogLevel)
		return
	}
	d.logs.SetLevel(level)
	d.logger.Info("log level changed", "from", old.LogLevel, "to", updated.LogLevel)
}

func (d *Daemon) notify(state string) {
	sent, err := sdnotify.SdNotify(false, state)
	if err != nil {
		d.logger.Debug("sd_notify failed", "state", state, "error", err)
		return
	}
	if sent {
		d.logger.Debug("sd_notify sent", "state", state)
	}
}
