package config

import (
	"fmt"
	"strings"

	"github.com/leefowlercu/chunkalyze/internal/logging"
)

// ValidationError represents a config validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation failures.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var b strings.Builder
	b.WriteString("config validation failed:\n")
	for _, err := range e {
		b.WriteString("  - ")
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// validStoreTypes lists recognized instance store backends.
var validStoreTypes = map[string]bool{
	"memory": true,
	"redis":  true,
}

// Validate checks the configuration for errors.
// Returns ValidationErrors if validation fails.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		add("log_level", "must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	if cfg.LogRotation.MaxSizeMB < 1 {
		add("log_rotation.max_size_mb", "must be at least 1, got %d", cfg.LogRotation.MaxSizeMB)
	}
	if cfg.LogRotation.MaxBackups < 0 {
		add("log_rotation.max_backups", "must not be negative, got %d", cfg.LogRotation.MaxBackups)
	}
	if cfg.LogRotation.MaxAgeDays < 0 {
		add("log_rotation.max_age_days", "must not be negative, got %d", cfg.LogRotation.MaxAgeDays)
	}

	// Server
	if cfg.Server.HTTPPort < 1 || cfg.Server.HTTPPort > 65535 {
		add("server.http_port", "must be between 1 and 65535, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.HTTPBind == "" {
		add("server.http_bind", "must not be empty")
	}
	if cfg.Server.ShutdownTimeout < 1 {
		add("server.shutdown_timeout", "must be at least 1 second, got %d", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.PublicBaseURL != "" &&
		!strings.HasPrefix(cfg.Server.PublicBaseURL, "http://") &&
		!strings.HasPrefix(cfg.Server.PublicBaseURL, "https://") {
		add("server.public_base_url", "must be an http or https URL, got %q", cfg.Server.PublicBaseURL)
	}
	if cfg.Server.MetricsInterval < 1 {
		add("server.metrics_interval", "must be at least 1 second, got %d", cfg.Server.MetricsInterval)
	}
	if cfg.Server.EventBusBufferSize < 1 {
		add("server.event_bus_buffer_size", "must be at least 1, got %d", cfg.Server.EventBusBufferSize)
	}

	// Chunking
	c := cfg.Chunking
	if c.MinChunkSize < 1 {
		add("chunking.min_chunk_size", "must be at least 1, got %d", c.MinChunkSize)
	}
	if c.MaxChunkSize < c.MinChunkSize {
		add("chunking.max_chunk_size", "must not be less than min_chunk_size (%d), got %d", c.MinChunkSize, c.MaxChunkSize)
	}
	if c.DefaultChunkSize < c.MinChunkSize || c.DefaultChunkSize > c.MaxChunkSize {
		add("chunking.default_chunk_size", "must be between %d and %d, got %d", c.MinChunkSize, c.MaxChunkSize, c.DefaultChunkSize)
	}
	if c.TranslationChunkSize < 1 {
		add("chunking.translation_chunk_size", "must be at least 1, got %d", c.TranslationChunkSize)
	}

	// Backend
	b := cfg.Backend
	if b.Timeout < 1 {
		add("backend.timeout", "must be at least 1 second, got %d", b.Timeout)
	}
	if b.PollIntervalMs < 1 {
		add("backend.poll_interval_ms", "must be at least 1, got %d", b.PollIntervalMs)
	}
	if b.PollMaxWait < 1 {
		add("backend.poll_max_wait", "must be at least 1 second, got %d", b.PollMaxWait)
	}
	if b.MaxAttempts < 1 {
		add("backend.max_attempts", "must be at least 1, got %d", b.MaxAttempts)
	}
	if b.RetryBaseDelayMs < 0 {
		add("backend.retry_base_delay_ms", "must not be negative, got %d", b.RetryBaseDelayMs)
	}
	if b.RateLimit < 0 {
		add("backend.rate_limit", "must not be negative, got %g", b.RateLimit)
	}
	if b.RateBurst < 0 {
		add("backend.rate_burst", "must not be negative, got %d", b.RateBurst)
	}
	if b.Concurrency < 1 {
		add("backend.concurrency", "must be at least 1, got %d", b.Concurrency)
	}
	if b.MaxReduceRounds < 1 {
		add("backend.max_reduce_rounds", "must be at least 1, got %d", b.MaxReduceRounds)
	}

	if cfg.Cache.Enabled && cfg.Cache.Size < 1 {
		add("cache.size", "must be at least 1 when cache is enabled, got %d", cfg.Cache.Size)
	}

	// Store
	if !validStoreTypes[cfg.Store.Type] {
		add("store.type", "must be one of memory, redis, got %q", cfg.Store.Type)
	}
	if cfg.Store.Type == "redis" && cfg.Store.RedisAddr == "" {
		add("store.redis_addr", "must not be empty when store.type is redis")
	}
	if cfg.Store.RedisDB < 0 {
		add("store.redis_db", "must not be negative, got %d", cfg.Store.RedisDB)
	}
	if cfg.Store.TTL < 1 {
		add("store.ttl", "must be at least 1 second, got %d", cfg.Store.TTL)
	}

	if cfg.MCP.Enabled && !strings.HasPrefix(cfg.MCP.BasePath, "/") {
		add("mcp.base_path", "must start with /, got %q", cfg.MCP.BasePath)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
