// Package metrics provides Prometheus metrics for the chunkalyze server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "chunkalyze"
)

// Request metrics track whole analysis requests.
var (
	// RequestsTotal is the total number of analysis requests by method and outcome.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of analysis requests",
	}, []string{"method", "outcome"})

	// RequestDuration is a histogram of end-to-end analysis duration in seconds.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of analysis requests in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms to ~100s
	}, []string{"method"})

	// ChunksPerRequest is a histogram of the initial chunk count per request.
	ChunksPerRequest = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "chunks_per_request",
		Help:      "Number of chunks generated per analysis request",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
	}, []string{"method"})

	// ReduceRounds is a histogram of summarization reduce rounds per request.
	ReduceRounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "summarization_reduce_rounds",
		Help:      "Number of summarize-then-rechunk rounds per summarization request",
		Buckets:   prometheus.LinearBuckets(1, 1, 8),
	})
)

// Backend metrics track calls to the text-analysis backend.
var (
	// BackendRequestsTotal is the total number of backend calls.
	BackendRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of backend analysis calls",
	}, []string{"method"})

	// BackendErrorsTotal is the total number of failed backend calls.
	BackendErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_errors_total",
		Help:      "Total number of failed backend analysis calls",
	}, []string{"method"})

	// BackendDuration is a histogram of backend call duration in seconds.
	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_duration_seconds",
		Help:      "Duration of backend analysis calls in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"method"})

	// BackendRetriesTotal is the total number of retried backend calls.
	BackendRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_retries_total",
		Help:      "Total number of backend call retries",
	}, []string{"method"})

	// PollAttemptsTotal is the total number of summarization job status polls.
	PollAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_attempts_total",
		Help:      "Total number of summarization job status polls",
	}, []string{"method"})
)

// Cache metrics track backend result cache operations.
var (
	// CacheHitsTotal is the total number of cache hits by cache name.
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Total number of cache hits",
	}, []string{"cache"})

	// CacheMissesTotal is the total number of cache misses by cache name.
	CacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Total number of cache misses",
	}, []string{"cache"})
)

// Instance metrics track background analysis instances.
var (
	// InstancesByStatus is the number of stored instances by runtime status.
	InstancesByStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "instances",
		Help:      "Number of stored analysis instances by runtime status",
	}, []string{"status"})
)

// EventBusDroppedEvents counts events dropped because a subscriber buffer was full.
var EventBusDroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "event_bus_dropped_events_total",
	Help:      "Total number of events dropped by the event bus",
}, []string{"event_type"})

// Server metrics track process health and uptime.
var (
	// BuildInfo provides version and build information.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Version and build information",
	}, []string{"version", "go_version"})

	// StartTime is the unix timestamp when the server started.
	StartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "start_time_seconds",
		Help:      "Unix timestamp when the server started",
	})

	// ComponentStatus tracks the health status of server components.
	ComponentStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "component_status",
		Help:      "Health status of server components (1=healthy, 0=unhealthy)",
	}, []string{"component"})
)
