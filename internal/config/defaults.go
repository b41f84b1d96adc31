package config

// Default configuration values.
const (
	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.config/chunkalyze/chunkalyze.log"

	DefaultLogMaxSizeMB  = 50
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28

	DefaultServerHTTPPort        = 7780
	DefaultServerHTTPBind        = "127.0.0.1"
	DefaultServerShutdownTimeout = 30
	DefaultServerMetricsInterval = 15
	DefaultServerEventBusBuffer  = 100

	DefaultChunkSize            = 5000
	DefaultMinChunkSize         = 500
	DefaultMaxChunkSize         = 5000
	DefaultTranslationChunkSize = 50000

	DefaultBackendTimeout          = 30
	DefaultBackendPollIntervalMs   = 1000
	DefaultBackendPollMaxWait      = 300
	DefaultBackendMaxAttempts      = 1
	DefaultBackendRetryBaseDelayMs = 500
	DefaultBackendConcurrency      = 4
	DefaultBackendMaxReduceRounds  = 16

	DefaultCacheSize = 1024

	DefaultStoreType             = "memory"
	DefaultStoreRedisAddr        = "localhost:6379"
	DefaultStoreRedisPasswordEnv = "CHUNKALYZE_REDIS_PASSWORD"
	DefaultStoreTTL              = 86400

	DefaultMCPBasePath = "/mcp"
)

// NewDefaultConfig returns a Config populated with default values.
func NewDefaultConfig() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		LogFile:  DefaultLogFile,
		LogRotation: LogRotationConfig{
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
			MaxAgeDays: DefaultLogMaxAgeDays,
		},
		Server: ServerConfig{
			HTTPPort:           DefaultServerHTTPPort,
			HTTPBind:           DefaultServerHTTPBind,
			ShutdownTimeout:    DefaultServerShutdownTimeout,
			MetricsInterval:    DefaultServerMetricsInterval,
			EventBusBufferSize: DefaultServerEventBusBuffer,
		},
		Chunking: ChunkingConfig{
			DefaultChunkSize:     DefaultChunkSize,
			MinChunkSize:         DefaultMinChunkSize,
			MaxChunkSize:         DefaultMaxChunkSize,
			TranslationChunkSize: DefaultTranslationChunkSize,
		},
		Backend: BackendConfig{
			Timeout:          DefaultBackendTimeout,
			PollIntervalMs:   DefaultBackendPollIntervalMs,
			PollMaxWait:      DefaultBackendPollMaxWait,
			MaxAttempts:      DefaultBackendMaxAttempts,
			RetryBaseDelayMs: DefaultBackendRetryBaseDelayMs,
			Concurrency:      DefaultBackendConcurrency,
			MaxReduceRounds:  DefaultBackendMaxReduceRounds,
		},
		Cache: CacheConfig{
			Size: DefaultCacheSize,
		},
		Store: StoreConfig{
			Type:             DefaultStoreType,
			RedisAddr:        DefaultStoreRedisAddr,
			RedisPasswordEnv: DefaultStoreRedisPasswordEnv,
			TTL:              DefaultStoreTTL,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		MCP: MCPConfig{
			Enabled:  true,
			BasePath: DefaultMCPBasePath,
		},
	}
}
