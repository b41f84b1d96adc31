package providers

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend returns queued errors before succeeding and counts calls.
type fakeBackend struct {
	mu     sync.Mutex
	method Method
	errs   []error
	calls  int
	result *MethodResult
}

func (f *fakeBackend) Method() Method { return f.method }

func (f *fakeBackend) Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &MethodResult{Values: []string{string(req.Body)}}, nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Method
		wantErr bool
	}{
		{name: "lowercase", input: "languagedetection", want: MethodLanguageDetection},
		{name: "mixed case", input: "KeyPhraseExtraction", want: MethodKeyPhraseExtraction},
		{name: "padded", input: "  translation ", want: MethodTranslation},
		{name: "unknown", input: "sentiment", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMethod_Classification(t *testing.T) {
	assert.True(t, MethodExtractiveSummarization.IsSummarization())
	assert.True(t, MethodAbstractiveSummarization.IsSummarization())
	assert.False(t, MethodEntityRecognition.IsSummarization())
	assert.True(t, MethodTranslation.RequiresRegion())
	assert.False(t, MethodPiiEntityRecognition.RequiresRegion())
	assert.Len(t, Methods(), 7)
}

func TestBackendError(t *testing.T) {
	err := NewBackendError(MethodEntityRecognition, "post", http.StatusBadGateway, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "entityrecognition backend post failed with status 502")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)

	wrapped := errors.Join(errors.New("context"), err)
	var be *BackendError
	require.True(t, errors.As(wrapped, &be))
	assert.Equal(t, http.StatusBadGateway, be.StatusCode)

	noStatus := NewBackendError(MethodTranslation, "post", 0, ErrTransport)
	assert.NotContains(t, noStatus.Error(), "status")
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "transport", err: NewBackendError(MethodTranslation, "post", 0, ErrTransport), want: true},
		{name: "too many requests", err: NewBackendError(MethodTranslation, "post", 429, ErrUnexpectedStatus), want: true},
		{name: "server error", err: NewBackendError(MethodTranslation, "post", 503, ErrUnexpectedStatus), want: true},
		{name: "bad request", err: NewBackendError(MethodTranslation, "post", 400, ErrUnexpectedStatus), want: false},
		{name: "missing field", err: NewBackendError(MethodTranslation, "extract", 200, ErrMissingField), want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(&fakeBackend{method: MethodTranslation}))
	require.NoError(t, r.Register(&fakeBackend{method: MethodEntityRecognition}))
	assert.ErrorIs(t, r.Register(&fakeBackend{method: MethodTranslation}), ErrBackendExists)

	b, err := r.Get(MethodTranslation)
	require.NoError(t, err)
	assert.Equal(t, MethodTranslation, b.Method())

	_, err = r.Get(MethodLanguageDetection)
	assert.ErrorIs(t, err, ErrBackendNotFound)

	assert.Equal(t, []Method{MethodEntityRecognition, MethodTranslation}, r.Methods())
}

func TestRegistry_Wrap(t *testing.T) {
	r := NewRegistry()
	inner := &fakeBackend{method: MethodTranslation}
	require.NoError(t, r.Register(inner))

	r.Wrap(func(b Backend) Backend { return NewInstrumented(b, nil) })

	b, err := r.Get(MethodTranslation)
	require.NoError(t, err)
	_, ok := b.(*Instrumented)
	assert.True(t, ok)
	assert.Equal(t, MethodTranslation, b.Method())
}
