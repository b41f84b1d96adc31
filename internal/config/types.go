package config

import "time"

// Config is the root configuration structure.
type Config struct {
	LogLevel    string            `yaml:"log_level" toml:"log_level" json:"log_level" mapstructure:"log_level"`
	LogFile     string            `yaml:"log_file" toml:"log_file" json:"log_file" mapstructure:"log_file"`
	LogRotation LogRotationConfig `yaml:"log_rotation" toml:"log_rotation" json:"log_rotation" mapstructure:"log_rotation"`
	Server      ServerConfig      `yaml:"server" toml:"server" json:"server" mapstructure:"server"`
	Chunking    ChunkingConfig    `yaml:"chunking" toml:"chunking" json:"chunking" mapstructure:"chunking"`
	Backend     BackendConfig     `yaml:"backend" toml:"backend" json:"backend" mapstructure:"backend"`
	Cache       CacheConfig       `yaml:"cache" toml:"cache" json:"cache" mapstructure:"cache"`
	Store       StoreConfig       `yaml:"store" toml:"store" json:"store" mapstructure:"store"`
	Metrics     MetricsConfig     `yaml:"metrics" toml:"metrics" json:"metrics" mapstructure:"metrics"`
	MCP         MCPConfig         `yaml:"mcp" toml:"mcp" json:"mcp" mapstructure:"mcp"`
}

// LogRotationConfig controls rotation of the JSON log file.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" toml:"max_size_mb" json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" toml:"max_backups" json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" toml:"max_age_days" json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" toml:"compress" json:"compress" mapstructure:"compress"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	HTTPPort        int    `yaml:"http_port" toml:"http_port" json:"http_port" mapstructure:"http_port"`
	HTTPBind        string `yaml:"http_bind" toml:"http_bind" json:"http_bind" mapstructure:"http_bind"`
	ShutdownTimeout int    `yaml:"shutdown_timeout" toml:"shutdown_timeout" json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// PublicBaseURL prefixes the status and terminate URIs returned to
	// clients. Empty means the URIs are derived from the incoming request.
	PublicBaseURL      string `yaml:"public_base_url" toml:"public_base_url" json:"public_base_url" mapstructure:"public_base_url"`
	MetricsInterval    int    `yaml:"metrics_interval" toml:"metrics_interval" json:"metrics_interval" mapstructure:"metrics_interval"`
	EventBusBufferSize int    `yaml:"event_bus_buffer_size" toml:"event_bus_buffer_size" json:"event_bus_buffer_size" mapstructure:"event_bus_buffer_size"`
}

// ChunkingConfig contains chunk size limits.
type ChunkingConfig struct {
	DefaultChunkSize     int  `yaml:"default_chunk_size" toml:"default_chunk_size" json:"default_chunk_size" mapstructure:"default_chunk_size"`
	MinChunkSize         int  `yaml:"min_chunk_size" toml:"min_chunk_size" json:"min_chunk_size" mapstructure:"min_chunk_size"`
	MaxChunkSize         int  `yaml:"max_chunk_size" toml:"max_chunk_size" json:"max_chunk_size" mapstructure:"max_chunk_size"`
	TranslationChunkSize int  `yaml:"translation_chunk_size" toml:"translation_chunk_size" json:"translation_chunk_size" mapstructure:"translation_chunk_size"`
	TokenEstimates       bool `yaml:"token_estimates" toml:"token_estimates" json:"token_estimates" mapstructure:"token_estimates"`
}

// BackendConfig contains text-analysis backend client settings.
type BackendConfig struct {
	Timeout          int     `yaml:"timeout" toml:"timeout" json:"timeout" mapstructure:"timeout"`
	PollIntervalMs   int     `yaml:"poll_interval_ms" toml:"poll_interval_ms" json:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	PollMaxWait      int     `yaml:"poll_max_wait" toml:"poll_max_wait" json:"poll_max_wait" mapstructure:"poll_max_wait"`
	MaxAttempts      int     `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts" mapstructure:"max_attempts"`
	RetryBaseDelayMs int     `yaml:"retry_base_delay_ms" toml:"retry_base_delay_ms" json:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"`
	RateLimit        float64 `yaml:"rate_limit" toml:"rate_limit" json:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int     `yaml:"rate_burst" toml:"rate_burst" json:"rate_burst" mapstructure:"rate_burst"`
	Concurrency      int     `yaml:"concurrency" toml:"concurrency" json:"concurrency" mapstructure:"concurrency"`
	MaxReduceRounds  int     `yaml:"max_reduce_rounds" toml:"max_reduce_rounds" json:"max_reduce_rounds" mapstructure:"max_reduce_rounds"`
}

// TimeoutDuration returns the per-call HTTP timeout.
func (b BackendConfig) TimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// PollIntervalDuration returns the summarization poll interval.
func (b BackendConfig) PollIntervalDuration() time.Duration {
	return time.Duration(b.PollIntervalMs) * time.Millisecond
}

// PollMaxWaitDuration returns the summarization poll deadline.
func (b BackendConfig) PollMaxWaitDuration() time.Duration {
	return time.Duration(b.PollMaxWait) * time.Second
}

// RetryBaseDelay returns the first retry backoff delay.
func (b BackendConfig) RetryBaseDelay() time.Duration {
	return time.Duration(b.RetryBaseDelayMs) * time.Millisecond
}

// CacheConfig contains backend result cache settings.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" mapstructure:"enabled"`
	Size    int  `yaml:"size" toml:"size" json:"size" mapstructure:"size"`
}

// StoreConfig selects where analysis instances are kept.
type StoreConfig struct {
	Type             string `yaml:"type" toml:"type" json:"type" mapstructure:"type"`
	RedisAddr        string `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr" mapstructure:"redis_addr"`
	RedisDB          int    `yaml:"redis_db" toml:"redis_db" json:"redis_db" mapstructure:"redis_db"`
	RedisPasswordEnv string `yaml:"redis_password_env" toml:"redis_password_env" json:"redis_password_env" mapstructure:"redis_password_env"`
	// TTL is how long finished instances are retained, in seconds.
	TTL int `yaml:"ttl" toml:"ttl" json:"ttl" mapstructure:"ttl"`
}

// TTLDuration returns the instance retention period.
func (s StoreConfig) TTLDuration() time.Duration {
	return time.Duration(s.TTL) * time.Second
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled" mapstructure:"enabled"`
}

// MCPConfig contains MCP server settings.
type MCPConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled" json:"enabled" mapstructure:"enabled"`
	BasePath string `yaml:"base_path" toml:"base_path" json:"base_path" mapstructure:"base_path"`
}
