// Package mcp exposes chunking and analysis as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/leefowlercu/chunkalyze/internal/events"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/version"
)

// Analyzer runs a validated analysis inline.
type Analyzer interface {
	Run(ctx context.Context, params *orchestration.Params, progress orchestration.Progress) (*orchestration.Outcome, error)
}

// InstanceReader looks up background instances.
type InstanceReader interface {
	Status(ctx context.Context, id string) (*orchestration.Instance, error)
}

// Deps are the components the tools call into. Instances may be nil, in
// which case get_instance is not registered.
type Deps struct {
	Chunker   orchestration.Chunker
	Parser    *orchestration.ParamParser
	Analyzer  Analyzer
	Instances InstanceReader
	Bus       events.Bus
	Logger    *slog.Logger
}

// Config contains MCP server configuration.
type Config struct {
	// Name is the server name advertised to clients.
	Name string
	// Version is the server version.
	Version string
	// BasePath is the URL path the streamable HTTP transport serves.
	BasePath string
}

// DefaultConfig returns default MCP server configuration.
func DefaultConfig() Config {
	return Config{
		Name:     "chunkalyze",
		Version:  version.Version(),
		BasePath: "/mcp",
	}
}

// Server wraps the MCP server with chunkalyze tools.
type Server struct {
	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
	deps       Deps
	logger     *slog.Logger

	mu          sync.Mutex
	running     bool
	unsubscribe func()
}

// NewServer creates a new MCP server.
func NewServer(deps Deps, cfg Config) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = orchestration.NewParamParser(orchestration.DefaultChunkLimits())
	}

	s := &Server{
		deps:   deps,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = server.NewMCPServer(
		cfg.Name,
		cfg.Version,
		server.WithToolCapabilities(true),
		server.WithLogging(),
	)

	s.registerTools()

	s.httpServer = server.NewStreamableHTTPServer(
		s.mcpServer,
		server.WithStateful(true),
		server.WithHeartbeatInterval(30*time.Second),
		server.WithEndpointPath(cfg.BasePath),
	)

	s.logger.Debug("MCP server created",
		"name", cfg.Name,
		"version", cfg.Version,
		"base_path", cfg.BasePath,
	)

	return s
}

// Start subscribes to instance events for client notifications.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	s.startEventListener()
	s.running = true
	s.logger.Info("MCP server started")
	return nil
}

// Stop unsubscribes from events and closes client sessions.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopEventListener()

	if s.running {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Warn("MCP server shutdown error", "error", err)
			return err
		}
	}

	s.running = false
	s.logger.Info("MCP server stopped")
	return nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.httpServer
}
