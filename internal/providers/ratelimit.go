package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitConfig bounds how fast a backend may be called.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate; 0 disables limiting.
	RequestsPerSecond float64

	// BurstSize is the bucket size; 0 uses 1.
	BurstSize int
}

// Enabled reports whether the config imposes a limit.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// RateLimited wraps a Backend with a token bucket limiter.
type RateLimited struct {
	next    Backend
	limiter *rate.Limiter
}

// NewRateLimited wraps next so that calls wait for a token. A disabled config
// returns next unchanged.
func NewRateLimited(next Backend, config RateLimitConfig) Backend {
	if !config.Enabled() {
		return next
	}
	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst),
	}
}

// NewSharedRateLimiter returns a decorator factory whose backends share one
// limiter, so the limit applies across all methods.
func NewSharedRateLimiter(config RateLimitConfig) func(Backend) Backend {
	if !config.Enabled() {
		return func(b Backend) Backend { return b }
	}
	burst := config.BurstSize
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst)
	return func(b Backend) Backend {
		return &RateLimited{next: b, limiter: limiter}
	}
}

func (r *RateLimited) Method() Method {
	return r.next.Method()
}

// Analyze waits for a token, then delegates.
func (r *RateLimited) Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait; %w", err)
	}
	return r.next.Analyze(ctx, req)
}
