// Package analysis runs an analysis method over a sequence of chunks and
// merges the per-chunk backend results.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/document"
	"github.com/leefowlercu/chunkalyze/internal/metrics"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

const (
	// DefaultConcurrency is the number of chunks analyzed at once within a round.
	DefaultConcurrency = 4

	// DefaultMaxReduceRounds bounds the summarization reduce loop.
	DefaultMaxReduceRounds = 16
)

// ErrReduceNotConverging is returned when summarization still has more than
// one chunk after the maximum number of reduce rounds.
var ErrReduceNotConverging = errors.New("summarization did not converge to a single chunk")

// Chunker splits text into chunks.
type Chunker interface {
	Chunk(ctx context.Context, text string, opts chunkers.Options) ([]chunkers.Chunk, error)
}

// BackendSource looks up the backend for a method.
type BackendSource interface {
	Get(m providers.Method) (providers.Backend, error)
}

// Request is one dispatch of a method over pre-computed chunks.
type Request struct {
	// Method selects the backend and aggregation rule.
	Method providers.Method

	// Template is the parsed request body each chunk is substituted into.
	Template document.Template

	// Endpoint addresses the backend.
	Endpoint providers.Endpoint

	// Chunks is the initial chunk sequence.
	Chunks []chunkers.Chunk

	// ChunkOptions re-chunk merged summaries between reduce rounds.
	ChunkOptions chunkers.Options
}

// Dispatcher fans chunks out to a backend and aggregates the results.
type Dispatcher struct {
	backends        BackendSource
	chunker         Chunker
	concurrency     int
	maxReduceRounds int
	logger          *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency sets how many chunks of one round are analyzed at once.
// 1 makes calls strictly sequential.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithMaxReduceRounds bounds the summarization reduce loop.
func WithMaxReduceRounds(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxReduceRounds = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(backends BackendSource, chunker Chunker, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backends:        backends,
		chunker:         chunker,
		concurrency:     DefaultConcurrency,
		maxReduceRounds: DefaultMaxReduceRounds,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch runs req.Method over req.Chunks. Any backend error aborts the
// dispatch and no partial result is returned.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if req.Template == nil {
		return nil, errors.New("request template is required")
	}

	backend, err := d.backends.Get(req.Method)
	if err != nil {
		return nil, fmt.Errorf("no backend for method %s; %w", req.Method, err)
	}

	texts := chunkers.Contents(req.Chunks)

	switch {
	case req.Method.IsSummarization():
		return d.summarize(ctx, backend, req, texts)
	case req.Method == providers.MethodTranslation:
		return d.translate(ctx, backend, req, texts)
	case req.Method == providers.MethodPiiEntityRecognition:
		return d.redact(ctx, backend, req, texts)
	default:
		return d.collect(ctx, backend, req, texts)
	}
}

// collect unions the values of every chunk into the result set.
func (d *Dispatcher) collect(ctx context.Context, b providers.Backend, req Request, texts []string) (*Result, error) {
	res := newResult(req.Method)
	if len(texts) == 0 {
		return res, nil
	}

	outcomes, err := d.fanOut(ctx, b, req, texts)
	if err != nil {
		return nil, err
	}

	set := newItemSet()
	for _, o := range outcomes {
		set.add(o.Values...)
	}
	res.Items = set.items()
	res.Rounds = 1
	return res, nil
}

// redact concatenates redacted text in chunk order and unions entities.
func (d *Dispatcher) redact(ctx context.Context, b providers.Backend, req Request, texts []string) (*Result, error) {
	res := newResult(req.Method)
	if len(texts) == 0 {
		return res, nil
	}

	outcomes, err := d.fanOut(ctx, b, req, texts)
	if err != nil {
		return nil, err
	}

	set := newItemSet()
	var sb strings.Builder
	for i, o := range outcomes {
		if o.Pii == nil {
			return nil, providers.NewBackendError(req.Method, "extract", 0,
				fmt.Errorf("%w; chunk %d has no pii outcome", providers.ErrMissingField, i))
		}
		sb.WriteString(o.Pii.RedactedText)
		set.add(o.Pii.RedactedEntities...)
	}

	redacted := sb.String()
	res.Items = set.items()
	res.RedactedText = &redacted
	res.Rounds = 1
	return res, nil
}

// translate joins translated chunks in order with line breaks.
func (d *Dispatcher) translate(ctx context.Context, b providers.Backend, req Request, texts []string) (*Result, error) {
	res := newResult(req.Method)
	if len(texts) == 0 {
		return res, nil
	}

	outcomes, err := d.fanOut(ctx, b, req, texts)
	if err != nil {
		return nil, err
	}

	translated := joinText(outcomes)
	res.TranslatedText = &translated
	res.Rounds = 1
	return res, nil
}

// summarize runs the reduce loop: summarize every chunk, merge the summaries
// in order, re-chunk, and repeat until a single chunk has been summarized.
func (d *Dispatcher) summarize(ctx context.Context, b providers.Backend, req Request, texts []string) (*Result, error) {
	res := newResult(req.Method)

	for round := 1; len(texts) > 0; round++ {
		if round > d.maxReduceRounds {
			return nil, fmt.Errorf("%w; %d chunks remain after %d rounds", ErrReduceNotConverging, len(texts), d.maxReduceRounds)
		}

		outcomes, err := d.fanOut(ctx, b, req, texts)
		if err != nil {
			return nil, fmt.Errorf("reduce round %d failed; %w", round, err)
		}

		merged := joinText(outcomes)
		res.Rounds = round

		if len(texts) == 1 {
			res.Summarization = &merged
			break
		}

		next, err := d.chunker.Chunk(ctx, merged, req.ChunkOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to re-chunk summaries; %w", err)
		}

		d.logger.Debug("reduce round complete",
			"method", req.Method,
			"round", round,
			"chunks_in", len(texts),
			"chunks_out", len(next),
		)
		texts = chunkers.Contents(next)
	}

	if res.Rounds > 0 {
		metrics.RecordReduceRounds(res.Rounds)
	}
	return res, nil
}

// fanOut analyzes every text concurrently, bounded by d.concurrency, and
// returns the outcomes indexed by chunk position.
func (d *Dispatcher) fanOut(ctx context.Context, b providers.Backend, req Request, texts []string) ([]*providers.MethodResult, error) {
	outcomes := make([]*providers.MethodResult, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			body, err := req.Template.WithText(text)
			if err != nil {
				return fmt.Errorf("failed to build body for chunk %d; %w", i, err)
			}

			out, err := b.Analyze(gctx, providers.ChunkRequest{
				Endpoint:   req.Endpoint,
				Body:       body,
				ChunkIndex: i,
			})
			if err != nil {
				return fmt.Errorf("chunk %d; %w", i, err)
			}
			if out == nil {
				out = &providers.MethodResult{}
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func joinText(outcomes []*providers.MethodResult) string {
	parts := make([]string, len(outcomes))
	for i, o := range outcomes {
		parts[i] = o.Text
	}
	return strings.Join(parts, "\n")
}
