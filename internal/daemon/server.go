package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leefowlercu/chunkalyze/internal/orchestration"
)

// DefaultMaxBodyBytes bounds request bodies accepted by the API.
const DefaultMaxBodyBytes = 16 << 20

// ServerConfig holds configuration for the HTTP server.
type ServerConfig struct {
	Port int
	Bind string

	// PublicBaseURL prefixes status and terminate URIs. Empty derives the
	// base from the incoming request.
	PublicBaseURL string

	// MaxBodyBytes bounds request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// MCPBasePath is where the MCP handler is mounted.
	MCPBasePath string
}

// InstanceRunner starts and tracks background analyses.
type InstanceRunner interface {
	Start(ctx context.Context, params *orchestration.Params) (*orchestration.Instance, error)
	Status(ctx context.Context, id string) (*orchestration.Instance, error)
	Terminate(ctx context.Context, id string) error
}

// Analyzer runs a validated analysis inline.
type Analyzer interface {
	Run(ctx context.Context, params *orchestration.Params, progress orchestration.Progress) (*orchestration.Outcome, error)
}

// API holds the components behind the /api routes. Nil members disable
// their routes with 503.
type API struct {
	Parser   *orchestration.ParamParser
	Chunker  orchestration.Chunker
	Analyzer Analyzer
	Runner   InstanceRunner
}

// Server is the HTTP front end of the daemon.
// It is safe for concurrent use.
type Server struct {
	mu             sync.RWMutex
	health         *HealthManager
	config         ServerConfig
	api            API
	logger         *slog.Logger
	server         *http.Server
	router         *chi.Mux
	mcpHandler     http.Handler
	metricsHandler http.Handler
}

// NewServer creates a new HTTP server.
func NewServer(health *HealthManager, api API, config ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.MCPBasePath == "" {
		config.MCPBasePath = "/mcp"
	}
	if api.Parser == nil {
		api.Parser = orchestration.NewParamParser(orchestration.DefaultChunkLimits())
	}

	s := &Server{
		health: health,
		config: config,
		api:    api,
		logger: logger.With("component", "http"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze/sync", s.handleAnalyzeSync)
		r.Post("/chunk", s.handleChunk)
		r.Get("/instances/{id}", s.handleInstanceStatus)
		r.Post("/instances/{id}/terminate", s.handleTerminate)
	})

	if s.mcpHandler != nil {
		r.Mount(s.config.MCPBasePath, s.mcpHandler)
	}
	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler)
	}

	return r
}

// SetMCPHandler mounts the MCP handler at the configured base path.
func (s *Server) SetMCPHandler(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mcpHandler = handler
	s.router = s.routes()
}

// SetMetricsHandler exposes handler at /metrics.
func (s *Server) SetMetricsHandler(handler http.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metricsHandler = handler
	s.router = s.routes()
}

// Handler returns the HTTP handler for testing purposes.
func (s *Server) Handler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.router
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// LivezResponse is the response format for /healthz endpoint.
type LivezResponse struct {
	Status string `json:"status"`
}

// handleHealthz reports that the process is alive.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, LivezResponse{Status: "alive"})
}

// handleReadyz returns 200 when ready, healthy or degraded, and 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := s.health.Status()
	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// baseURL returns the scheme and host clients should use to reach us.
func (s *Server) baseURL(r *http.Request) string {
	if s.config.PublicBaseURL != "" {
		return strings.TrimRight(s.config.PublicBaseURL, "/")
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Start serves HTTP until Shutdown is called. It returns once the listener
// is closed.
func (s *Server) Start(ctx context.Context) error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	addr := net.JoinHostPort(s.config.Bind, fmt.Sprintf("%d", s.config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s; %w", addr, err)
	}
	return ln, nil
}

// Serve serves HTTP on ln until Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.server = &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.Handler().ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// In-flight requests outlive ctx so Shutdown can drain them.
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}
	server := s.server
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", ln.Addr().String())

	if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error; %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	server := s.server
	s.mu.RUnlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server; %w", err)
	}
	return nil
}
