package chunkers

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	chunks, err := New().Chunk(context.Background(), "", DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunk_InvalidMaxSize(t *testing.T) {
	_, err := New().Chunk(context.Background(), "text", Options{MaxSize: 0})
	require.Error(t, err)
}

func TestChunk_GreedyPacking(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		maxSize int
		want    []string
	}{
		{
			name:    "single fragment",
			text:    "hello",
			maxSize: 10,
			want:    []string{"hello"},
		},
		{
			name:    "fragments fit in one chunk",
			text:    "aa\nbb\ncc",
			maxSize: 20,
			want:    []string{"aa\nbb\ncc"},
		},
		{
			name:    "buffer closed before overflow",
			text:    "aaaa\nbbbb\ncccc",
			maxSize: 10,
			want:    []string{"aaaa\nbbbb", "cccc"},
		},
		{
			name:    "windows line breaks",
			text:    "aaaa\r\nbbbb\r\ncccc",
			maxSize: 10,
			want:    []string{"aaaa\nbbbb", "cccc"},
		},
		{
			name:    "consecutive delimiters discarded",
			text:    "aa\n\n\r\n\rbb",
			maxSize: 100,
			want:    []string{"aa\nbb"},
		},
		{
			name:    "oversized fragment emitted as is",
			text:    "short\n" + strings.Repeat("x", 30) + "\ntail",
			maxSize: 10,
			want:    []string{"short", strings.Repeat("x", 30), "tail"},
		},
		{
			name:    "leading oversized fragment yields no empty chunk",
			text:    strings.Repeat("y", 12) + "\nz",
			maxSize: 10,
			want:    []string{strings.Repeat("y", 12), "z"},
		},
		{
			name:    "whitespace trimmed",
			text:    "  padded  \n",
			maxSize: 100,
			want:    []string{"padded"},
		},
		{
			name:    "blank content dropped",
			text:    "   \n\t\n",
			maxSize: 100,
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := New().Chunk(context.Background(), tt.text, Options{MaxSize: tt.maxSize})
			require.NoError(t, err)
			assert.Equal(t, tt.want, Contents(chunks))
			for i, chunk := range chunks {
				assert.Equal(t, i, chunk.Index)
				assert.Equal(t, utf8.RuneCountInString(chunk.Content), chunk.Size)
			}
		})
	}
}

func TestChunk_CountsCharactersNotBytes(t *testing.T) {
	// Each fragment is 4 runes but 12 bytes.
	text := "日本語文\n日本語文"
	chunks, err := New().Chunk(context.Background(), text, Options{MaxSize: 9})
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestChunk_CustomDelimiters(t *testing.T) {
	opts := Options{MaxSize: 8, Delimiters: MergeDelimiters(". ")}
	chunks, err := New().Chunk(context.Background(), "One. Two. Three", opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"One\nTwo", "Three"}, Contents(chunks))
}

func TestChunk_Properties(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 200; i++ {
		paragraphs = append(paragraphs, strings.Repeat(string(rune('a'+i%26)), 5+(i*37)%90))
	}
	text := strings.Join(paragraphs, "\r\n")
	opts := Options{MaxSize: 500, Delimiters: DefaultDelimiters()}

	chunks, err := New().Chunk(context.Background(), text, opts)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	t.Run("no chunk exceeds max size", func(t *testing.T) {
		for _, chunk := range chunks {
			assert.LessOrEqual(t, chunk.Size, opts.MaxSize)
		}
	})

	t.Run("joined chunks reconstruct fragment sequence", func(t *testing.T) {
		joined := strings.Join(Contents(chunks), "\n")
		assert.Equal(t, paragraphs, Split(joined, opts.Delimiters))
	})

	t.Run("rechunking is stable", func(t *testing.T) {
		joined := strings.Join(Contents(chunks), "\n")
		again, err := New().Chunk(context.Background(), joined, opts)
		require.NoError(t, err)
		assert.Equal(t, Contents(chunks), Contents(again))
	})
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor\n", 400)
	first, err := New().Chunk(context.Background(), text, DefaultOptions())
	require.NoError(t, err)
	second, err := New().Chunk(context.Background(), text, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunk_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Chunk(ctx, "a\nb", DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChunk_TokenEstimates(t *testing.T) {
	chunks, err := New(WithTokenEstimates(true)).Chunk(context.Background(), "hello world", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Positive(t, chunks[0].TokenEstimate)

	chunks, err = New().Chunk(context.Background(), "hello world", DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, chunks[0].TokenEstimate)
}
