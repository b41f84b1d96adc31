package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsProvider is an interface for components that provide metrics.
type MetricsProvider interface {
	// CollectMetrics collects current metrics from the component.
	CollectMetrics(ctx context.Context) error
}

// Collector periodically polls registered MetricsProviders.
type Collector struct {
	mu        sync.RWMutex
	providers map[string]MetricsProvider
	interval  time.Duration
	version   string
	stopCh    chan struct{}
	running   bool
}

// NewCollector creates a new metrics collector.
func NewCollector(interval time.Duration, version string) *Collector {
	return &Collector{
		providers: make(map[string]MetricsProvider),
		interval:  interval,
		version:   version,
		stopCh:    make(chan struct{}),
	}
}

// Register adds a metrics provider to the collector.
func (c *Collector) Register(name string, provider MetricsProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = provider
}

// Start records build info and begins periodic collection.
func (c *Collector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	StartTime.Set(float64(time.Now().Unix()))
	BuildInfo.WithLabelValues(c.version, runtime.Version()).Set(1)

	c.collect(ctx)

	go c.run(ctx)

	return nil
}

// Stop halts periodic collection.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return
	}

	close(c.stopCh)
	c.running = false
}

func (c *Collector) run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *Collector) collect(ctx context.Context) {
	c.mu.RLock()
	providers := make(map[string]MetricsProvider, len(c.providers))
	for k, v := range c.providers {
		providers[k] = v
	}
	c.mu.RUnlock()

	for name, provider := range providers {
		if err := provider.CollectMetrics(ctx); err != nil {
			ComponentStatus.WithLabelValues(name).Set(0)
		} else {
			ComponentStatus.WithLabelValues(name).Set(1)
		}
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records a completed analysis request.
func RecordRequest(method string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordChunks records the initial chunk count of a request.
func RecordChunks(method string, count int) {
	ChunksPerRequest.WithLabelValues(method).Observe(float64(count))
}

// RecordReduceRounds records how many rounds a summarization took.
func RecordReduceRounds(rounds int) {
	ReduceRounds.Observe(float64(rounds))
}

// RecordBackendRequest records one backend call.
func RecordBackendRequest(method string, duration time.Duration, err error) {
	BackendRequestsTotal.WithLabelValues(method).Inc()
	BackendDuration.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		BackendErrorsTotal.WithLabelValues(method).Inc()
	}
}

// RecordBackendRetry records a retried backend call.
func RecordBackendRetry(method string) {
	BackendRetriesTotal.WithLabelValues(method).Inc()
}

// RecordPollAttempt records one summarization status poll.
func RecordPollAttempt(method string) {
	PollAttemptsTotal.WithLabelValues(method).Inc()
}

// RecordCacheAccess records a cache access.
func RecordCacheAccess(cacheName string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheName).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheName).Inc()
	}
}

// UpdateInstanceMetrics replaces the per-status instance gauges.
func UpdateInstanceMetrics(counts map[string]int) {
	InstancesByStatus.Reset()
	for status, n := range counts {
		InstancesByStatus.WithLabelValues(status).Set(float64(n))
	}
}
