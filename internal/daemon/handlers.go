package daemon

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// CheckStatusResponse points clients at a started instance.
type CheckStatusResponse struct {
	ID                string `json:"id"`
	StatusQueryGetURI string `json:"statusQueryGetUri"`
	TerminatePostURI  string `json:"terminatePostUri"`
}

// AnalyzeResponse is the body of a successful synchronous analysis.
type AnalyzeResponse struct {
	Method         providers.Method `json:"method"`
	Output         []string         `json:"output"`
	Items          []string         `json:"items"`
	RedactedText   *string          `json:"redactedText,omitempty"`
	Summary        *string          `json:"summary,omitempty"`
	TranslatedText *string          `json:"translatedText,omitempty"`
	ChunkCount     int              `json:"chunkCount"`
}

// ChunkResponse is the body of /api/chunk.
type ChunkResponse struct {
	ChunkSize int              `json:"chunkSize"`
	Count     int              `json:"count"`
	Chunks    []chunkers.Chunk `json:"chunks"`
}

func newAnalyzeResponse(outcome *orchestration.Outcome) AnalyzeResponse {
	res := outcome.Result
	return AnalyzeResponse{
		Method:         res.Method,
		Output:         res.Strings(),
		Items:          res.Items,
		RedactedText:   res.RedactedText,
		Summary:        res.Summarization,
		TranslatedText: res.TranslatedText,
		ChunkCount:     outcome.ChunkCount,
	}
}

// readBody reads at most MaxBodyBytes. ok is false when a response was
// already written.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// parseParams validates an analysis request, writing 400 on failure.
func (s *Server) parseParams(w http.ResponseWriter, r *http.Request) (*orchestration.Params, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}

	params, err := s.api.Parser.Parse(r.Header, body)
	if err != nil {
		writeValidationError(w, err)
		return nil, false
	}
	return params, true
}

func writeValidationError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var many orchestration.ValidationErrors
	var one orchestration.ValidationError
	switch {
	case errors.As(err, &many):
		resp.Fields = many.Fields()
	case errors.As(err, &one):
		resp.Fields = []string{one.Field}
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

// handleAnalyze starts a background instance and returns 202 with its URIs.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.api.Runner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "background analysis is not available")
		return
	}

	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}

	inst, err := s.api.Runner.Start(r.Context(), params)
	if errors.Is(err, orchestration.ErrRunnerClosed) {
		writeJSONError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	if err != nil {
		s.logger.Error("failed to start instance", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}

	base := s.baseURL(r) + "/api/instances/" + inst.ID
	resp := CheckStatusResponse{
		ID:                inst.ID,
		StatusQueryGetURI: base,
		TerminatePostURI:  base + "/terminate",
	}
	w.Header().Set("Location", resp.StatusQueryGetURI)
	writeJSON(w, http.StatusAccepted, resp)
}

// handleAnalyzeSync runs the analysis within the request.
func (s *Server) handleAnalyzeSync(w http.ResponseWriter, r *http.Request) {
	if s.api.Analyzer == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "analysis is not available")
		return
	}

	params, ok := s.parseParams(w, r)
	if !ok {
		return
	}

	outcome, err := s.api.Analyzer.Run(r.Context(), params, nil)
	if err != nil {
		status := analysisErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Warn("analysis failed", "method", params.Method, "error", err)
		}
		writeJSONError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, newAnalyzeResponse(outcome))
}

// analysisErrorStatus maps a driver error to an HTTP status.
func analysisErrorStatus(err error) int {
	var be *providers.BackendError
	switch {
	case orchestration.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, providers.ErrPollTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &be), errors.Is(err, analysis.ErrReduceNotConverging):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleChunk splits a plain-text body without calling any backend.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	if s.api.Chunker == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "chunking is not available")
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	opts, err := s.api.Parser.ChunkOptions(r.Header)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	chunks, err := s.api.Chunker.Chunk(r.Context(), string(body), opts)
	if err != nil {
		s.logger.Error("chunking failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "chunking failed")
		return
	}

	writeJSON(w, http.StatusOK, ChunkResponse{
		ChunkSize: opts.MaxSize,
		Count:     len(chunks),
		Chunks:    chunks,
	})
}

func (s *Server) handleInstanceStatus(w http.ResponseWriter, r *http.Request) {
	if s.api.Runner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "background analysis is not available")
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	inst, err := s.api.Runner.Status(r.Context(), id)
	if errors.Is(err, orchestration.ErrInstanceNotFound) {
		writeJSONError(w, http.StatusNotFound, "instance "+id+" not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to read instance", "instance_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to read instance")
		return
	}

	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleTerminate(w http.ResponseWriter, r *http.Request) {
	if s.api.Runner == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "background analysis is not available")
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	err := s.api.Runner.Terminate(r.Context(), id)
	switch {
	case errors.Is(err, orchestration.ErrInstanceNotFound):
		writeJSONError(w, http.StatusNotFound, "instance "+id+" not found")
	case errors.Is(err, orchestration.ErrInstanceFinished):
		writeJSONError(w, http.StatusConflict, "instance "+id+" is not running")
	case err != nil:
		s.logger.Error("failed to terminate instance", "instance_id", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to terminate instance")
	default:
		w.WriteHeader(http.StatusAccepted)
	}
}
