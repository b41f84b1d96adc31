package textanalytics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// jobServer accepts a job on POST and reports the queued statuses on
// successive GETs of the operation location.
func jobServer(t *testing.T, statuses []string, final string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.Header().Set("Operation-Location", srv.URL+"/jobs/1")
			w.WriteHeader(http.StatusAccepted)
			return
		}
		n := int(atomic.AddInt32(&polls, 1))
		if n <= len(statuses) {
			_, _ = io.WriteString(w, `{"status":"`+statuses[n-1]+`"}`)
			return
		}
		_, _ = io.WriteString(w, final)
	}))
	t.Cleanup(srv.Close)
	return srv, &polls
}

func fastClient(opts ...Option) *Client {
	return NewClient(append([]Option{WithPollInterval(5 * time.Millisecond)}, opts...)...)
}

func TestSummarizer_PollsUntilSucceeded(t *testing.T) {
	final := `{"status":"succeeded","tasks":{"items":[{"results":{"documents":[{"sentences":[{"text":"First."},{"text":"Second."}]}]}}]}}`
	srv, polls := jobServer(t, []string{"notStarted", "running", "running"}, final)

	b := NewSummarizer(fastClient(), providers.MethodExtractiveSummarization)
	res, err := b.Analyze(context.Background(), chunkRequest(srv.URL))
	require.NoError(t, err)

	assert.Equal(t, "First.\nSecond.", res.Text)
	assert.Equal(t, int32(4), atomic.LoadInt32(polls))
}

func TestSummarizer_AbstractiveFallsBackToSummaries(t *testing.T) {
	final := `{"status":"partiallyCompleted","tasks":{"items":[{"results":{"documents":[{"summaries":[{"text":"A short summary."}]}]}}]}}`
	srv, _ := jobServer(t, nil, final)

	b := NewSummarizer(fastClient(), providers.MethodAbstractiveSummarization)
	res, err := b.Analyze(context.Background(), chunkRequest(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", res.Text)
}

func TestSummarizer_FailedJob(t *testing.T) {
	final := `{"status":"failed","errors":[{"error":{"message":"quota exceeded"}}]}`
	srv, _ := jobServer(t, []string{"running"}, final)

	_, err := NewSummarizer(fastClient(), providers.MethodExtractiveSummarization).
		Analyze(context.Background(), chunkRequest(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrJobFailed)
}

func TestSummarizer_PollTimeout(t *testing.T) {
	statuses := make([]string, 1000)
	for i := range statuses {
		statuses[i] = "running"
	}
	srv, _ := jobServer(t, statuses, "")

	b := NewSummarizer(fastClient(WithPollMaxWait(30*time.Millisecond)), providers.MethodExtractiveSummarization)
	_, err := b.Analyze(context.Background(), chunkRequest(srv.URL))
	require.Error(t, err)

	var be *providers.BackendError
	require.ErrorAs(t, err, &be)
	assert.ErrorIs(t, err, providers.ErrPollTimeout)
	assert.Equal(t, "poll", be.Op)
}

func TestSummarizer_ContextCancelStopsPolling(t *testing.T) {
	statuses := make([]string, 1000)
	for i := range statuses {
		statuses[i] = "running"
	}
	srv, polls := jobServer(t, statuses, "")

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	b := NewSummarizer(fastClient(), providers.MethodExtractiveSummarization)
	_, err := b.Analyze(ctx, chunkRequest(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	seen := atomic.LoadInt32(polls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, seen, atomic.LoadInt32(polls))
}

func TestSummarizer_MissingOperationLocation(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	_, err := NewSummarizer(fastClient(), providers.MethodExtractiveSummarization).
		Analyze(context.Background(), chunkRequest(srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, providers.ErrMissingField)
}
