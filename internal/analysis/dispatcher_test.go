package analysis

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/document"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// funcBackend answers each chunk with fn applied to the chunk text.
type funcBackend struct {
	method   providers.Method
	fn       func(text string, index int) (*providers.MethodResult, error)
	calls    int32
	inFlight int32
	maxSeen  int32
}

func (b *funcBackend) Method() providers.Method { return b.method }

func (b *funcBackend) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	atomic.AddInt32(&b.calls, 1)
	n := atomic.AddInt32(&b.inFlight, 1)
	defer atomic.AddInt32(&b.inFlight, -1)
	for {
		seen := atomic.LoadInt32(&b.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&b.maxSeen, seen, n) {
			break
		}
	}

	path := "analysisInput.documents.0.text"
	if b.method == providers.MethodTranslation {
		path = "0.Text"
	}
	text := gjson.GetBytes(req.Body, path).String()
	return b.fn(text, req.ChunkIndex)
}

type registryOf map[providers.Method]providers.Backend

func (r registryOf) Get(m providers.Method) (providers.Backend, error) {
	b, ok := r[m]
	if !ok {
		return nil, providers.ErrBackendNotFound
	}
	return b, nil
}

func template(t *testing.T, m providers.Method) document.Template {
	t.Helper()
	body := `{"analysisInput":{"documents":[{"id":"1","text":"x"}]}}`
	if m == providers.MethodTranslation {
		body = `[{"Text":"x"}]`
	}
	tmpl, err := document.Parse(m, []byte(body))
	require.NoError(t, err)
	return tmpl
}

func chunksOf(texts ...string) []chunkers.Chunk {
	out := make([]chunkers.Chunk, len(texts))
	for i, s := range texts {
		out[i] = chunkers.Chunk{Index: i, Content: s, Size: len([]rune(s))}
	}
	return out
}

func newDispatcher(b *funcBackend, opts ...Option) *Dispatcher {
	return NewDispatcher(registryOf{b.method: b}, chunkers.New(), opts...)
}

func TestDispatch_LanguageDetectionCollapsesDuplicates(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodLanguageDetection,
		fn: func(text string, _ int) (*providers.MethodResult, error) {
			return &providers.MethodResult{Values: []string{"en:English"}}, nil
		},
	}

	res, err := newDispatcher(b).Dispatch(context.Background(), Request{
		Method:   providers.MethodLanguageDetection,
		Template: template(t, providers.MethodLanguageDetection),
		Chunks:   chunksOf("same chunk", "same chunk"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"en:English"}, res.Items)
	assert.Equal(t, []string{"en:English"}, res.Strings())
	assert.Equal(t, int32(2), atomic.LoadInt32(&b.calls))
	assert.Equal(t, 1, res.Rounds)
}

func TestDispatch_EntityUnionKeepsFirstSeenOrder(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodEntityRecognition,
		fn: func(text string, _ int) (*providers.MethodResult, error) {
			switch text {
			case "one":
				return &providers.MethodResult{Values: []string{"Person:Jane", "Location:Paris"}}, nil
			default:
				return &providers.MethodResult{Values: []string{"Location:Paris", "Person:John"}}, nil
			}
		},
	}

	res, err := newDispatcher(b).Dispatch(context.Background(), Request{
		Method:   providers.MethodEntityRecognition,
		Template: template(t, providers.MethodEntityRecognition),
		Chunks:   chunksOf("one", "two"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Person:Jane", "Location:Paris", "Person:John"}, res.Items)
}

func TestDispatch_TranslationPreservesOrder(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodTranslation,
		fn: func(text string, index int) (*providers.MethodResult, error) {
			// Finish later chunks first.
			time.Sleep(time.Duration(3-index) * 5 * time.Millisecond)
			return &providers.MethodResult{Text: strings.ToLower(text)}, nil
		},
	}

	res, err := newDispatcher(b, WithConcurrency(3)).Dispatch(context.Background(), Request{
		Method:   providers.MethodTranslation,
		Template: template(t, providers.MethodTranslation),
		Chunks:   chunksOf("A", "B", "C"),
	})
	require.NoError(t, err)

	require.NotNil(t, res.TranslatedText)
	assert.Equal(t, "a\nb\nc", *res.TranslatedText)
	assert.Equal(t, []string{"TranslatedText:a\nb\nc"}, res.Strings())
}

func TestDispatch_PiiAggregation(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodPiiEntityRecognition,
		fn: func(text string, _ int) (*providers.MethodResult, error) {
			if text == "Hello John" {
				return &providers.MethodResult{Pii: &providers.PiiOutcome{RedactedText: "Hello ***", RedactedEntities: []string{"PERSON:John"}}}, nil
			}
			return &providers.MethodResult{Pii: &providers.PiiOutcome{RedactedText: "World ***", RedactedEntities: []string{"PERSON:Jane"}}}, nil
		},
	}

	res, err := newDispatcher(b).Dispatch(context.Background(), Request{
		Method:   providers.MethodPiiEntityRecognition,
		Template: template(t, providers.MethodPiiEntityRecognition),
		Chunks:   chunksOf("Hello John", "World Jane"),
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"PERSON:John", "PERSON:Jane"}, res.Items)
	assert.Contains(t, res.Strings(), "RedactedText:Hello ***World ***")
}

func TestDispatch_SummarizationReducesToOneEntry(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodExtractiveSummarization,
		fn: func(text string, index int) (*providers.MethodResult, error) {
			// Each summary is a short prefix of its input.
			r := []rune(text)
			if len(r) > 20 {
				r = r[:20]
			}
			return &providers.MethodResult{Text: string(r)}, nil
		},
	}

	opts := chunkers.Options{MaxSize: 60, Delimiters: chunkers.DefaultDelimiters()}
	text := strings.Repeat("a", 50) + "\n" + strings.Repeat("b", 50) + "\n" + strings.Repeat("c", 50)
	initial, err := chunkers.New().Chunk(context.Background(), text, opts)
	require.NoError(t, err)
	require.Len(t, initial, 3)

	res, err := newDispatcher(b).Dispatch(context.Background(), Request{
		Method:       providers.MethodExtractiveSummarization,
		Template:     template(t, providers.MethodExtractiveSummarization),
		Chunks:       initial,
		ChunkOptions: opts,
	})
	require.NoError(t, err)

	// 3 chunks, then 2 after re-chunking the merged summaries, then 1.
	assert.Equal(t, 3, res.Rounds)
	assert.Equal(t, int32(6), atomic.LoadInt32(&b.calls))
	require.NotNil(t, res.Summarization)

	var labelled []string
	for _, s := range res.Strings() {
		if strings.HasPrefix(s, "Summarization:") {
			labelled = append(labelled, s)
		}
	}
	assert.Len(t, labelled, 1)
	assert.Equal(t, strings.Repeat("a", 20), *res.Summarization)
}

func TestDispatch_SummarizationNotConverging(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodAbstractiveSummarization,
		fn: func(text string, _ int) (*providers.MethodResult, error) {
			// Summaries never shrink.
			return &providers.MethodResult{Text: text}, nil
		},
	}

	opts := chunkers.Options{MaxSize: 10, Delimiters: chunkers.DefaultDelimiters()}
	_, err := newDispatcher(b, WithMaxReduceRounds(3)).Dispatch(context.Background(), Request{
		Method:       providers.MethodAbstractiveSummarization,
		Template:     template(t, providers.MethodAbstractiveSummarization),
		Chunks:       chunksOf("aaaaaaaa", "bbbbbbbb"),
		ChunkOptions: opts,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReduceNotConverging)
	assert.Equal(t, int32(6), atomic.LoadInt32(&b.calls))
}

func TestDispatch_EmptyInput(t *testing.T) {
	for _, m := range providers.Methods() {
		t.Run(m.String(), func(t *testing.T) {
			b := &funcBackend{
				method: m,
				fn: func(string, int) (*providers.MethodResult, error) {
					return nil, errors.New("should not be called")
				},
			}

			res, err := newDispatcher(b).Dispatch(context.Background(), Request{
				Method:   m,
				Template: template(t, m),
			})
			require.NoError(t, err)
			assert.Empty(t, res.Strings())
			assert.Equal(t, 0, res.Rounds)
			assert.Equal(t, int32(0), atomic.LoadInt32(&b.calls))
		})
	}
}

func TestDispatch_BackendErrorAborts(t *testing.T) {
	fail := providers.NewBackendError(providers.MethodKeyPhraseExtraction, "post", 500, providers.ErrUnexpectedStatus)
	b := &funcBackend{
		method: providers.MethodKeyPhraseExtraction,
		fn: func(text string, index int) (*providers.MethodResult, error) {
			if index == 1 {
				return nil, fail
			}
			return &providers.MethodResult{Values: []string{text}}, nil
		},
	}

	res, err := newDispatcher(b).Dispatch(context.Background(), Request{
		Method:   providers.MethodKeyPhraseExtraction,
		Template: template(t, providers.MethodKeyPhraseExtraction),
		Chunks:   chunksOf("a", "b", "c"),
	})
	require.Error(t, err)
	assert.Nil(t, res)

	var be *providers.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 500, be.StatusCode)
}

func TestDispatch_ConcurrencyLimit(t *testing.T) {
	b := &funcBackend{
		method: providers.MethodKeyPhraseExtraction,
		fn: func(text string, _ int) (*providers.MethodResult, error) {
			time.Sleep(2 * time.Millisecond)
			return &providers.MethodResult{Values: []string{text}}, nil
		},
	}

	_, err := newDispatcher(b, WithConcurrency(1)).Dispatch(context.Background(), Request{
		Method:   providers.MethodKeyPhraseExtraction,
		Template: template(t, providers.MethodKeyPhraseExtraction),
		Chunks:   chunksOf("a", "b", "c", "d"),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.maxSeen))
}

func TestDispatch_UnknownBackend(t *testing.T) {
	d := NewDispatcher(registryOf{}, chunkers.New())
	_, err := d.Dispatch(context.Background(), Request{
		Method:   providers.MethodTranslation,
		Template: template(t, providers.MethodTranslation),
		Chunks:   chunksOf("a"),
	})
	assert.ErrorIs(t, err, providers.ErrBackendNotFound)
}
