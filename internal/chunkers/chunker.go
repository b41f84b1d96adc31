// Package chunkers splits long text into bounded-size chunks on literal
// delimiter boundaries.
package chunkers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxSize is the chunk size used when a request does not set one.
	DefaultMaxSize = 5000

	// TranslationMaxSize is the fixed chunk size used for translation requests.
	TranslationMaxSize = 50000

	// lineTerminator joins fragments inside a chunk.
	lineTerminator = "\n"
)

// Chunk represents a segment of the source text submitted to a backend.
type Chunk struct {
	// Index is the zero-based position in the sequence.
	Index int `json:"index"`

	// Content is the chunk text, trimmed of surrounding whitespace.
	Content string `json:"content"`

	// Size is the length of Content in characters.
	Size int `json:"size"`

	// TokenEstimate is an estimated token count; zero unless token
	// estimation is enabled on the Chunker.
	TokenEstimate int `json:"token_estimate,omitempty"`
}

// Options configures a single chunking pass.
type Options struct {
	// MaxSize is the maximum chunk length in characters.
	MaxSize int

	// Delimiters are the literal separators the text is split on.
	// Tried in order at every position; nil means DefaultDelimiters.
	Delimiters []string
}

// DefaultOptions returns options using DefaultMaxSize and the default delimiters.
func DefaultOptions() Options {
	return Options{
		MaxSize:    DefaultMaxSize,
		Delimiters: DefaultDelimiters(),
	}
}

// Chunker splits text into ordered chunks no larger than Options.MaxSize.
// It is safe for concurrent use.
type Chunker struct {
	logger         *slog.Logger
	tokenEstimates bool
}

// Option configures the Chunker.
type Option func(*Chunker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) {
		c.logger = logger
	}
}

// WithTokenEstimates enables per-chunk token estimation.
func WithTokenEstimates(enabled bool) Option {
	return func(c *Chunker) {
		c.tokenEstimates = enabled
	}
}

// New creates a new Chunker.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chunk splits text on the configured delimiters and greedily packs the
// fragments into chunks. A fragment longer than MaxSize is never split; it
// becomes its own oversized chunk.
func (c *Chunker) Chunk(ctx context.Context, text string, opts Options) ([]Chunk, error) {
	if opts.MaxSize <= 0 {
		return nil, fmt.Errorf("invalid max chunk size %d; must be positive", opts.MaxSize)
	}

	delimiters := opts.Delimiters
	if delimiters == nil {
		delimiters = DefaultDelimiters()
	}

	fragments := Split(text, delimiters)
	chunks := make([]Chunk, 0, len(fragments)/8+1)

	var buf strings.Builder
	bufLen := 0

	for i, fragment := range fragments {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fragmentLen := utf8.RuneCountInString(fragment)
		if bufLen > 0 && bufLen+fragmentLen > opts.MaxSize {
			chunks = c.appendChunk(chunks, buf.String())
			buf.Reset()
			bufLen = 0
		}

		buf.WriteString(fragment)
		buf.WriteString(lineTerminator)
		bufLen += fragmentLen + 1
	}

	if bufLen > 0 {
		chunks = c.appendChunk(chunks, buf.String())
	}

	c.logger.Info("text split into chunks",
		"fragments", len(fragments),
		"chunks", len(chunks),
		"max_size", opts.MaxSize,
	)

	return chunks, nil
}

// appendChunk trims content and appends it as the next chunk.
// Content that is blank after trimming is dropped.
func (c *Chunker) appendChunk(chunks []Chunk, content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return chunks
	}

	chunk := Chunk{
		Index:   len(chunks),
		Content: content,
		Size:    utf8.RuneCountInString(content),
	}
	if c.tokenEstimates {
		chunk.TokenEstimate = EstimateTokens(content)
	}

	return append(chunks, chunk)
}

// Contents returns the text of each chunk in order.
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Content
	}
	return out
}
