package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix    = "CHUNKALYZE"
	envConfigDir = "CHUNKALYZE_CONFIG_DIR"
)

// newViper returns a viper instance with env binding, defaults, and the
// standard search paths registered.
func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	if envPath := os.Getenv(envConfigDir); envPath != "" {
		v.AddConfigPath(envPath)
	}

	if home := os.Getenv("HOME"); home != "" {
		v.AddConfigPath(filepath.Join(home, ".config", "chunkalyze"))
	}

	v.AddConfigPath(".")

	return v
}

// Load reads and returns the typed configuration.
// It searches for configuration files in priority order:
//  1. Directory specified by CHUNKALYZE_CONFIG_DIR environment variable
//  2. ~/.config/chunkalyze/
//  3. Current working directory (.)
//
// If no config file is found, defaults (plus environment overrides) are used.
func Load() (*Config, error) {
	v := newViper()

	if err := readConfig(v); err != nil {
		return nil, err
	}

	return unmarshalConfig(v)
}

// LoadFromPath reads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(expandHome(path))
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setViperDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config from %s; %w", path, err)
	}

	return unmarshalConfig(v)
}

// LoadWithDefaults returns configuration using defaults only.
func LoadWithDefaults() *Config {
	cfg := NewDefaultConfig()
	return &cfg
}

// readConfig reads the config file, treating a missing file as success.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}

	return fmt.Errorf("failed to read config; %w", err)
}

// unmarshalConfig converts viper config to typed Config struct.
func unmarshalConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config; %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setViperDefaults registers all default configuration values with a viper instance.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)

	v.SetDefault("log_rotation.max_size_mb", d.LogRotation.MaxSizeMB)
	v.SetDefault("log_rotation.max_backups", d.LogRotation.MaxBackups)
	v.SetDefault("log_rotation.max_age_days", d.LogRotation.MaxAgeDays)
	v.SetDefault("log_rotation.compress", d.LogRotation.Compress)

	// Server defaults
	v.SetDefault("server.http_port", d.Server.HTTPPort)
	v.SetDefault("server.http_bind", d.Server.HTTPBind)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.public_base_url", d.Server.PublicBaseURL)
	v.SetDefault("server.metrics_interval", d.Server.MetricsInterval)
	v.SetDefault("server.event_bus_buffer_size", d.Server.EventBusBufferSize)

	// Chunking defaults
	v.SetDefault("chunking.default_chunk_size", d.Chunking.DefaultChunkSize)
	v.SetDefault("chunking.min_chunk_size", d.Chunking.MinChunkSize)
	v.SetDefault("chunking.max_chunk_size", d.Chunking.MaxChunkSize)
	v.SetDefault("chunking.translation_chunk_size", d.Chunking.TranslationChunkSize)
	v.SetDefault("chunking.token_estimates", d.Chunking.TokenEstimates)

	// Backend defaults
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("backend.poll_interval_ms", d.Backend.PollIntervalMs)
	v.SetDefault("backend.poll_max_wait", d.Backend.PollMaxWait)
	v.SetDefault("backend.max_attempts", d.Backend.MaxAttempts)
	v.SetDefault("backend.retry_base_delay_ms", d.Backend.RetryBaseDelayMs)
	v.SetDefault("backend.rate_limit", d.Backend.RateLimit)
	v.SetDefault("backend.rate_burst", d.Backend.RateBurst)
	v.SetDefault("backend.concurrency", d.Backend.Concurrency)
	v.SetDefault("backend.max_reduce_rounds", d.Backend.MaxReduceRounds)

	// Cache defaults
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.size", d.Cache.Size)

	// Store defaults
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.redis_password_env", d.Store.RedisPasswordEnv)
	v.SetDefault("store.ttl", d.Store.TTL)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)

	v.SetDefault("mcp.enabled", d.MCP.Enabled)
	v.SetDefault("mcp.base_path", d.MCP.BasePath)
}
