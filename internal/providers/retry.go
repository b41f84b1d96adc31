package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
)

// RetryConfig controls retries of transient backend failures.
type RetryConfig struct {
	// MaxAttempts is the total number of tries including the first; values
	// below 2 disable retries.
	MaxAttempts int

	// BaseDelay is the first backoff delay; it doubles per retry.
	BaseDelay time.Duration
}

// Retrying wraps a Backend and retries calls that fail with IsRetryable errors.
type Retrying struct {
	next   Backend
	config RetryConfig
	logger *slog.Logger
}

// NewRetrying wraps next with retries. A config with fewer than two attempts
// returns next unchanged.
func NewRetrying(next Backend, config RetryConfig, logger *slog.Logger) Backend {
	if config.MaxAttempts < 2 {
		return next
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{next: next, config: config, logger: logger}
}

func (r *Retrying) Method() Method {
	return r.next.Method()
}

// Analyze delegates, retrying transient failures with exponential backoff.
func (r *Retrying) Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error) {
	backoff := retry.WithMaxRetries(uint64(r.config.MaxAttempts-1), retry.NewExponential(r.config.BaseDelay))

	var (
		result  *MethodResult
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.RecordBackendRetry(r.Method().String())
			r.logger.Debug("retrying backend call",
				"method", r.Method(),
				"chunk", req.ChunkIndex,
				"attempt", attempt,
			)
		}

		res, err := r.next.Analyze(ctx, req)
		if err != nil {
			if IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
