package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/cache"
	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/events"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/providers"
	"github.com/leefowlercu/chunkalyze/internal/providers/textanalytics"
)

// Pipeline is the chunk, dispatch and merge path shared by the server and
// the one-shot CLI commands.
type Pipeline struct {
	Chunker    *chunkers.Chunker
	Registry   *providers.Registry
	Dispatcher *analysis.Dispatcher
	Driver     *orchestration.Driver
	Parser     *orchestration.ParamParser
}

// NewPipeline builds a Pipeline from configuration. bus may be nil.
func NewPipeline(cfg *config.Config, bus events.Bus, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chunker := chunkers.New(
		chunkers.WithLogger(logger),
		chunkers.WithTokenEstimates(cfg.Chunking.TokenEstimates),
	)

	registry, err := newRegistry(cfg, logger)
	if err != nil {
		return nil, err
	}

	dispatcher := analysis.NewDispatcher(registry, chunker,
		analysis.WithConcurrency(cfg.Backend.Concurrency),
		analysis.WithMaxReduceRounds(cfg.Backend.MaxReduceRounds),
		analysis.WithLogger(logger),
	)

	driverOpts := []orchestration.DriverOption{
		orchestration.WithTranslationChunkSize(cfg.Chunking.TranslationChunkSize),
		orchestration.WithDriverLogger(logger),
	}
	if bus != nil {
		driverOpts = append(driverOpts, orchestration.WithEventBus(bus))
	}

	return &Pipeline{
		Chunker:    chunker,
		Registry:   registry,
		Dispatcher: dispatcher,
		Driver:     orchestration.NewDriver(chunker, dispatcher, driverOpts...),
		Parser: orchestration.NewParamParser(orchestration.ChunkLimits{
			Default: cfg.Chunking.DefaultChunkSize,
			Min:     cfg.Chunking.MinChunkSize,
			Max:     cfg.Chunking.MaxChunkSize,
		}),
	}, nil
}

// newRegistry registers the text analytics backends and applies decorators
// innermost first: instrumentation, retries, rate limiting, caching.
func newRegistry(cfg *config.Config, logger *slog.Logger) (*providers.Registry, error) {
	client := textanalytics.NewClient(
		textanalytics.WithLogger(logger),
		textanalytics.WithTimeout(cfg.Backend.TimeoutDuration()),
		textanalytics.WithPollInterval(cfg.Backend.PollIntervalDuration()),
		textanalytics.WithPollMaxWait(cfg.Backend.PollMaxWaitDuration()),
	)

	registry := providers.NewRegistry()
	if err := textanalytics.Register(registry, client); err != nil {
		return nil, fmt.Errorf("failed to register backends; %w", err)
	}

	registry.Wrap(func(b providers.Backend) providers.Backend {
		return providers.NewInstrumented(b, logger)
	})

	if cfg.Backend.MaxAttempts > 1 {
		retry := providers.RetryConfig{
			MaxAttempts: cfg.Backend.MaxAttempts,
			BaseDelay:   cfg.Backend.RetryBaseDelay(),
		}
		registry.Wrap(func(b providers.Backend) providers.Backend {
			return providers.NewRetrying(b, retry, logger)
		})
	}

	limit := providers.RateLimitConfig{
		RequestsPerSecond: cfg.Backend.RateLimit,
		BurstSize:         cfg.Backend.RateBurst,
	}
	if limit.Enabled() {
		registry.Wrap(providers.NewSharedRateLimiter(limit))
	}

	if cfg.Cache.Enabled {
		results, err := cache.New[*providers.MethodResult]("backend_results", cfg.Cache.Size)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache; %w", err)
		}
		registry.Wrap(func(b providers.Backend) providers.Backend {
			return providers.NewCached(b, results)
		})
	}

	return registry, nil
}

// NewStore opens the instance store named by configuration.
func NewStore(ctx context.Context, cfg *config.Config) (orchestration.Store, error) {
	switch cfg.Store.Type {
	case "", "memory":
		return orchestration.NewMemoryStore(cfg.Store.TTLDuration()), nil
	case "redis":
		password := ""
		if cfg.Store.RedisPasswordEnv != "" {
			password = os.Getenv(cfg.Store.RedisPasswordEnv)
		}
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		store, err := orchestration.NewRedisStore(connectCtx, orchestration.RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: password,
			DB:       cfg.Store.RedisDB,
			TTL:      cfg.Store.TTLDuration(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis store at %s; %w", cfg.Store.RedisAddr, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store type %q", cfg.Store.Type)
	}
}
