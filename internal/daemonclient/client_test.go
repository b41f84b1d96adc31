package daemonclient

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

	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
)

func TestNormalizeBind(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"", "127.0.0.1"},
		{"0.0.0.0", "127.0.0.1"},
		{"::", "::1"},
		{"10.0.0.5", "10.0.0.5"},
		{"localhost", "localhost"},
	}

	for _, tt := range tests {
		if got := NormalizeBind(tt.bind); got != tt.want {
			t.Errorf("NormalizeBind(%q) = %q, want %q", tt.bind, got, tt.want)
		}
	}
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.ServerConfig
		want string
	}{
		{"wildcard", config.ServerConfig{HTTPBind: "0.0.0.0", HTTPPort: 7600}, "http://127.0.0.1:7600"},
		{"ipv6", config.ServerConfig{HTTPBind: "::", HTTPPort: 7600}, "http://[::1]:7600"},
		{"public", config.ServerConfig{HTTPPort: 7600, PublicBaseURL: "https://chunkalyze.example.com"}, "https://chunkalyze.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveBaseURL(tt.cfg))
		})
	}
}

func TestClient_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"status":"degraded","ready":false}`)
	}))
	defer srv.Close()

	status, err := New(srv.URL).Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Ready)
	assert.Equal(t, "degraded", status.Status)
}

func TestClient_AnalyzeValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "EntityRecognition", r.Header.Get(orchestration.HeaderMethod))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"invalid request","fields":["Ocp-Apim-Subscription-Key"]}`)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set(orchestration.HeaderMethod, "EntityRecognition")

	_, err := New(srv.URL).Analyze(context.Background(), header, []byte(`{}`))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid request", apiErr.Message)
	assert.Equal(t, []string{"Ocp-Apim-Subscription-Key"}, apiErr.Fields)
}

func TestClient_AnalyzeSync(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze/sync", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"method":"KeyPhraseExtraction","output":["alpha"],"items":["alpha"],"chunkCount":1}`)
	}))
	defer srv.Close()

	resp, err := New(srv.URL).AnalyzeSync(context.Background(), http.Header{}, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, resp.Output)
	assert.Equal(t, 1, resp.ChunkCount)
}

func TestClient_StatusNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"instance not found"}`)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Status(context.Background(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestClient_Terminate(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.URL.Path == "/api/instances/done/terminate" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.Terminate(context.Background(), "abc"))
	assert.Equal(t, "/api/instances/abc/terminate", path)

	err := c.Terminate(context.Background(), "done")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
}

func TestClient_Wait(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if polls.Add(1) < 3 {
			_, _ = io.WriteString(w, `{"instanceId":"abc","runtimeStatus":"Running","customStatus":"chunks-generated"}`)
			return
		}
		_, _ = io.WriteString(w, `{"instanceId":"abc","runtimeStatus":"Completed","chunkCount":4,"output":["x"]}`)
	}))
	defer srv.Close()

	var seen []orchestration.RuntimeStatus
	c := New(srv.URL, WithPollInterval(10*time.Millisecond))
	inst, err := c.Wait(context.Background(), "abc", func(inst *orchestration.Instance) {
		seen = append(seen, inst.RuntimeStatus)
	})
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusCompleted, inst.RuntimeStatus)
	assert.Equal(t, 4, inst.ChunkCount)
	assert.Equal(t, []orchestration.RuntimeStatus{
		orchestration.StatusRunning, orchestration.StatusRunning, orchestration.StatusCompleted,
	}, seen)
}

func TestClient_WaitCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"instanceId":"abc","runtimeStatus":"Running"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	inst, err := New(srv.URL, WithPollInterval(10*time.Millisecond)).Wait(ctx, "abc", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	if inst != nil {
		assert.Equal(t, orchestration.StatusRunning, inst.RuntimeStatus)
	}
}
