// Package textanalytics implements providers.Backend for a Cognitive
// Services style text-analytics REST endpoint, one backend per method.
package textanalytics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/leefowlercu/chunkalyze/internal/providers"
)

const (
	headerKey               = "Ocp-Apim-Subscription-Key"
	headerRegion            = "Ocp-Apim-Subscription-Region"
	headerOperationLocation = "Operation-Location"

	// DefaultTimeout bounds a single HTTP exchange with the backend.
	DefaultTimeout = 30 * time.Second

	// DefaultPollInterval is the wait between summarization status polls.
	DefaultPollInterval = time.Second

	// DefaultPollMaxWait bounds the total time spent polling one job.
	DefaultPollMaxWait = 5 * time.Minute
)

// Client is the shared HTTP plumbing used by every method backend.
type Client struct {
	http         *resty.Client
	logger       *slog.Logger
	pollInterval time.Duration
	pollMaxWait  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithPollInterval sets the wait between summarization status polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithPollMaxWait sets the maximum total polling time per job.
func WithPollMaxWait(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollMaxWait = d
		}
	}
}

// NewClient creates a Client backed by a single shared resty client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http: resty.New().
			SetTimeout(DefaultTimeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		logger:       slog.Default(),
		pollInterval: DefaultPollInterval,
		pollMaxWait:  DefaultPollMaxWait,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a backend for every supported method to reg.
func Register(reg *providers.Registry, c *Client) error {
	backends := []providers.Backend{
		NewLanguageDetector(c),
		NewKeyPhraseExtractor(c),
		NewEntityRecognizer(c),
		NewPiiRecognizer(c),
		NewSummarizer(c, providers.MethodExtractiveSummarization),
		NewSummarizer(c, providers.MethodAbstractiveSummarization),
		NewTranslator(c),
	}
	for _, b := range backends {
		if err := reg.Register(b); err != nil {
			return fmt.Errorf("failed to register %s backend; %w", b.Method(), err)
		}
	}
	return nil
}

// post sends the chunk body and returns the response if it has a 2xx status.
func (c *Client) post(ctx context.Context, m providers.Method, req providers.ChunkRequest) (*resty.Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader(headerKey, req.Endpoint.Key).
		SetBody(req.Body)
	if req.Endpoint.Region != "" {
		r.SetHeader(headerRegion, req.Endpoint.Region)
	}

	resp, err := r.Post(req.Endpoint.URL)
	if err != nil {
		return nil, transportError(ctx, m, "post", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(m, "post", resp)
	}

	c.logger.Debug("backend responded",
		"method", m,
		"chunk", req.ChunkIndex,
		"status", resp.StatusCode(),
	)
	return resp, nil
}

// get fetches a job status resource.
func (c *Client) get(ctx context.Context, m providers.Method, url string, ep providers.Endpoint) (*resty.Response, error) {
	r := c.http.R().
		SetContext(ctx).
		SetHeader(headerKey, ep.Key)
	if ep.Region != "" {
		r.SetHeader(headerRegion, ep.Region)
	}

	resp, err := r.Get(url)
	if err != nil {
		return nil, transportError(ctx, m, "poll", err)
	}
	if !resp.IsSuccess() {
		return nil, statusError(m, "poll", resp)
	}
	return resp, nil
}

func transportError(ctx context.Context, m providers.Method, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return providers.NewBackendError(m, op, 0, ctxErr)
	}
	return providers.NewBackendError(m, op, 0, fmt.Errorf("%w; %w", providers.ErrTransport, err))
}

func statusError(m providers.Method, op string, resp *resty.Response) error {
	detail := errorDetail(resp.Body())
	if detail == "" {
		detail = http.StatusText(resp.StatusCode())
	}
	return providers.NewBackendError(m, op, resp.StatusCode(),
		fmt.Errorf("%w; %s", providers.ErrUnexpectedStatus, detail))
}

// errorDetail pulls a readable message out of a backend error payload.
func errorDetail(body []byte) string {
	for _, path := range []string{
		"error.innererror.message",
		"error.message",
		"results.errors.0.error.message",
		"errors.0.error.message",
		"message",
	} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}

// missingField reports a response that lacks the expected path, including
// any per-document error the backend returned instead.
func missingField(m providers.Method, status int, body []byte, path string) error {
	msg := fmt.Sprintf("%s not found", path)
	if detail := errorDetail(body); detail != "" {
		msg += "; " + detail
	}
	return providers.NewBackendError(m, "extract", status,
		fmt.Errorf("%w; %s", providers.ErrMissingField, msg))
}

// stringsAt returns the string values of the array at path.
func stringsAt(body []byte, path string) ([]string, bool) {
	v := gjson.GetBytes(body, path)
	if !v.Exists() || !v.IsArray() {
		return nil, false
	}
	var out []string
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out, true
}

// joinTexts joins the "text" member of every element of the array at path.
func joinTexts(body []byte, path string) (string, bool) {
	v := gjson.GetBytes(body, path)
	if !v.Exists() || !v.IsArray() {
		return "", false
	}
	var parts []string
	for _, item := range v.Array() {
		parts = append(parts, item.Get("text").String())
	}
	return strings.Join(parts, "\n"), true
}
