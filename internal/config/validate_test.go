package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(LoadWithDefaults()))
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"zero rotation size", func(c *Config) { c.LogRotation.MaxSizeMB = 0 }, "log_rotation.max_size_mb"},
		{"port too high", func(c *Config) { c.Server.HTTPPort = 65536 }, "server.http_port"},
		{"empty bind", func(c *Config) { c.Server.HTTPBind = "" }, "server.http_bind"},
		{"bad base url", func(c *Config) { c.Server.PublicBaseURL = "example.com" }, "server.public_base_url"},
		{"default below min", func(c *Config) { c.Chunking.DefaultChunkSize = 100 }, "chunking.default_chunk_size"},
		{"max below min", func(c *Config) { c.Chunking.MaxChunkSize = 400 }, "chunking.max_chunk_size"},
		{"zero attempts", func(c *Config) { c.Backend.MaxAttempts = 0 }, "backend.max_attempts"},
		{"negative rate", func(c *Config) { c.Backend.RateLimit = -1 }, "backend.rate_limit"},
		{"zero concurrency", func(c *Config) { c.Backend.Concurrency = 0 }, "backend.concurrency"},
		{"zero reduce rounds", func(c *Config) { c.Backend.MaxReduceRounds = 0 }, "backend.max_reduce_rounds"},
		{"enabled cache without size", func(c *Config) { c.Cache.Enabled = true; c.Cache.Size = 0 }, "cache.size"},
		{"unknown store", func(c *Config) { c.Store.Type = "bolt" }, "store.type"},
		{"redis without addr", func(c *Config) { c.Store.Type = "redis"; c.Store.RedisAddr = "" }, "store.redis_addr"},
		{"relative mcp path", func(c *Config) { c.MCP.BasePath = "mcp" }, "mcp.base_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadWithDefaults()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var verrs ValidationErrors
			require.True(t, errors.As(err, &verrs))
			fields := make([]string, len(verrs))
			for i, v := range verrs {
				fields[i] = v.Field
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Empty(t, ValidationErrors{}.Error())

	one := ValidationErrors{{Field: "a", Message: "bad"}}
	assert.Equal(t, "a: bad", one.Error())

	two := ValidationErrors{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}
	assert.Equal(t, "config validation failed:\n  - a: bad\n  - b: worse\n", two.Error())
}
