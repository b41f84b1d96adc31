package orchestration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/events"
	"github.com/leefowlercu/chunkalyze/internal/metrics"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// Phase is an informational progress step of an analysis.
type Phase string

const (
	PhaseParamsReceived   Phase = "params-received"
	PhaseChunksGenerated  Phase = "chunks-generated"
	PhaseAnalysisComplete Phase = "analysis-complete"
)

// Progress receives phase transitions. It must not block for long.
type Progress func(phase Phase, chunkCount int)

// Chunker splits text into chunks.
type Chunker interface {
	Chunk(ctx context.Context, text string, opts chunkers.Options) ([]chunkers.Chunk, error)
}

// Dispatcher runs a method over chunks.
type Dispatcher interface {
	Dispatch(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Outcome is the result of one driver run.
type Outcome struct {
	Result     *analysis.Result
	ChunkCount int
	Duration   time.Duration
}

// Driver chunks the request text and dispatches the chunks.
type Driver struct {
	chunker              Chunker
	dispatcher           Dispatcher
	bus                  events.Bus
	translationChunkSize int
	logger               *slog.Logger
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithEventBus publishes phase and completion events on bus.
func WithEventBus(bus events.Bus) DriverOption {
	return func(d *Driver) {
		d.bus = bus
	}
}

// WithTranslationChunkSize overrides the fixed translation chunk size.
func WithTranslationChunkSize(n int) DriverOption {
	return func(d *Driver) {
		if n > 0 {
			d.translationChunkSize = n
		}
	}
}

// WithDriverLogger sets the logger.
func WithDriverLogger(logger *slog.Logger) DriverOption {
	return func(d *Driver) {
		d.logger = logger
	}
}

// NewDriver creates a Driver.
func NewDriver(chunker Chunker, dispatcher Dispatcher, opts ...DriverOption) *Driver {
	d := &Driver{
		chunker:              chunker,
		dispatcher:           dispatcher,
		translationChunkSize: chunkers.TranslationMaxSize,
		logger:               slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ChunkOptions returns the chunking options used for params. Translation
// always uses the fixed translation chunk size.
func (d *Driver) ChunkOptions(params *Params) chunkers.Options {
	size := params.ChunkSize
	if params.Method == providers.MethodTranslation {
		size = d.translationChunkSize
	}
	return chunkers.Options{MaxSize: size, Delimiters: params.Delimiters}
}

// Run analyzes a synchronous request.
func (d *Driver) Run(ctx context.Context, params *Params, progress Progress) (*Outcome, error) {
	return d.RunInstance(ctx, "", params, progress)
}

// RunInstance analyzes params on behalf of instanceID, which may be empty.
func (d *Driver) RunInstance(ctx context.Context, instanceID string, params *Params, progress Progress) (*Outcome, error) {
	start := time.Now()
	method := params.Method.String()
	logger := d.logger.With("method", method)
	if instanceID != "" {
		logger = logger.With("instance_id", instanceID)
	}

	d.report(ctx, instanceID, method, PhaseParamsReceived, 0, progress)

	opts := d.ChunkOptions(params)
	chunks, err := d.chunker.Chunk(ctx, params.Template.Text(), opts)
	if err != nil {
		return nil, d.fail(ctx, logger, instanceID, method, 0, start, fmt.Errorf("failed to chunk text; %w", err))
	}
	metrics.RecordChunks(method, len(chunks))
	d.report(ctx, instanceID, method, PhaseChunksGenerated, len(chunks), progress)

	result, err := d.dispatcher.Dispatch(ctx, analysis.Request{
		Method:       params.Method,
		Template:     params.Template,
		Endpoint:     params.Endpoint,
		Chunks:       chunks,
		ChunkOptions: opts,
	})
	if err != nil {
		return nil, d.fail(ctx, logger, instanceID, method, len(chunks), start, err)
	}

	elapsed := time.Since(start)
	d.report(ctx, instanceID, method, PhaseAnalysisComplete, len(chunks), progress)
	d.publish(ctx, events.NewAnalysisComplete(instanceID, method, len(chunks), result.Rounds, elapsed))
	metrics.RecordRequest(method, elapsed, nil)

	logger.Info("analysis complete",
		"chunks", len(chunks),
		"rounds", result.Rounds,
		"duration", elapsed,
	)

	return &Outcome{Result: result, ChunkCount: len(chunks), Duration: elapsed}, nil
}

func (d *Driver) report(ctx context.Context, instanceID, method string, phase Phase, chunkCount int, progress Progress) {
	if progress != nil {
		progress(phase, chunkCount)
	}
	d.publish(ctx, events.NewPhaseChanged(instanceID, method, string(phase), chunkCount))
}

func (d *Driver) fail(ctx context.Context, logger *slog.Logger, instanceID, method string, chunkCount int, start time.Time, err error) error {
	elapsed := time.Since(start)
	d.publish(ctx, events.NewAnalysisFailed(instanceID, method, chunkCount, elapsed, err))
	metrics.RecordRequest(method, elapsed, err)
	logger.Warn("analysis failed", "chunks", chunkCount, "duration", elapsed, "error", err)
	return err
}

func (d *Driver) publish(ctx context.Context, event events.Event) {
	if d.bus == nil {
		return
	}
	// A cancelled request context must not suppress the failure event.
	if err := d.bus.Publish(context.WithoutCancel(ctx), event); err != nil {
		d.logger.Debug("failed to publish event", "event_type", event.Type, "error", err)
	}
}
