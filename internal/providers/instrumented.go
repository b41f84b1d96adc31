package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
)

// Instrumented wraps a Backend and records call metrics and debug logs.
type Instrumented struct {
	next   Backend
	logger *slog.Logger
}

// NewInstrumented wraps next with metrics.
func NewInstrumented(next Backend, logger *slog.Logger) Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, logger: logger}
}

func (i *Instrumented) Method() Method {
	return i.next.Method()
}

// Analyze delegates and records duration and outcome.
func (i *Instrumented) Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error) {
	start := time.Now()
	res, err := i.next.Analyze(ctx, req)
	elapsed := time.Since(start)

	metrics.RecordBackendRequest(i.Method().String(), elapsed, err)

	if err != nil {
		i.logger.Debug("backend call failed",
			"method", i.Method(),
			"chunk", req.ChunkIndex,
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	i.logger.Debug("backend call complete",
		"method", i.Method(),
		"chunk", req.ChunkIndex,
		"duration", elapsed,
	)
	return res, nil
}
