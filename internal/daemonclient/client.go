// Package daemonclient talks to a running chunkalyze service over HTTP.
package daemonclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/daemon"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = time.Second
)

// APIError is a non-success response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Fields     []string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("service returned status %d; %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client calls the chunkalyze HTTP API.
type Client struct {
	baseURL      string
	pollInterval time.Duration
	http         *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http.SetTimeout(timeout)
		}
	}
}

// WithPollInterval sets how often Wait polls instance status.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		pollInterval: DefaultPollInterval,
		http:         resty.New().SetTimeout(DefaultTimeout),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.SetBaseURL(c.baseURL)
	return c
}

// NewFromConfig creates a Client for the locally configured service.
func NewFromConfig(cfg *config.Config, opts ...Option) *Client {
	return New(ResolveBaseURL(cfg.Server), opts...)
}

// ResolveBaseURL builds the service base URL from server config.
func ResolveBaseURL(cfg config.ServerConfig) string {
	if cfg.PublicBaseURL != "" {
		return cfg.PublicBaseURL
	}
	return "http://" + net.JoinHostPort(NormalizeBind(cfg.HTTPBind), strconv.Itoa(cfg.HTTPPort))
}

// NormalizeBind maps wildcard binds to loopback for local clients.
func NormalizeBind(bind string) string {
	if bind == "" || bind == "0.0.0.0" {
		return "127.0.0.1"
	}
	if bind == "::" {
		return "::1"
	}
	return bind
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ready fetches /readyz. A not-ready service still yields a status.
func (c *Client) Ready(ctx context.Context) (*daemon.HealthStatus, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/readyz")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service; %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusServiceUnavailable {
		return nil, apiError(resp)
	}

	// resty only decodes results for 2xx, and 503 carries a status too.
	var status daemon.HealthStatus
	if err := json.Unmarshal(resp.Body(), &status); err != nil {
		return nil, fmt.Errorf("failed to decode readiness response; %w", err)
	}
	return &status, nil
}

// Analyze starts a background instance.
func (c *Client) Analyze(ctx context.Context, header http.Header, body []byte) (*daemon.CheckStatusResponse, error) {
	var out daemon.CheckStatusResponse
	if err := c.post(ctx, "/api/analyze", header, body, http.StatusAccepted, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AnalyzeSync runs an analysis within one request.
func (c *Client) AnalyzeSync(ctx context.Context, header http.Header, body []byte) (*daemon.AnalyzeResponse, error) {
	var out daemon.AnalyzeResponse
	if err := c.post(ctx, "/api/analyze/sync", header, body, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches a background instance.
func (c *Client) Status(ctx context.Context, id string) (*orchestration.Instance, error) {
	var inst orchestration.Instance
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&inst).
		Get("/api/instances/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to service; %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, apiError(resp)
	}
	return &inst, nil
}

// Terminate requests cancellation of a background instance.
func (c *Client) Terminate(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Post("/api/instances/{id}/terminate")
	if err != nil {
		return fmt.Errorf("failed to connect to service; %w", err)
	}
	if resp.StatusCode() != http.StatusAccepted {
		return apiError(resp)
	}
	return nil
}

// Wait polls an instance until it reaches a terminal status or ctx ends.
// onUpdate, if non-nil, sees every polled state.
func (c *Client) Wait(ctx context.Context, id string, onUpdate func(*orchestration.Instance)) (*orchestration.Instance, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		inst, err := c.Status(ctx, id)
		if err != nil {
			return nil, err
		}
		if onUpdate != nil {
			onUpdate(inst)
		}
		if inst.RuntimeStatus.Terminal() {
			return inst, nil
		}

		select {
		case <-ctx.Done():
			return inst, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) post(ctx context.Context, path string, header http.Header, body []byte, want int, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out)
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("failed to connect to service; %w", err)
	}
	if resp.StatusCode() != want {
		return apiError(resp)
	}
	return nil
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

func apiError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Error
		apiErr.Fields = body.Fields
	}
	return apiErr
}
