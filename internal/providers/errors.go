package providers

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrTransport marks failures to reach the backend at all.
	ErrTransport = errors.New("backend unreachable")

	// ErrUnexpectedStatus marks non-success HTTP responses.
	ErrUnexpectedStatus = errors.New("unexpected response status")

	// ErrMissingField marks responses that lack an expected field.
	ErrMissingField = errors.New("response missing expected field")

	// ErrPollTimeout marks a summarization job that never reached a terminal
	// status within the configured maximum wait.
	ErrPollTimeout = errors.New("job did not complete before poll deadline")

	// ErrJobFailed marks a summarization job that ended in a non-success state.
	ErrJobFailed = errors.New("job ended unsuccessfully")
)

// BackendError describes a failed backend call.
type BackendError struct {
	// Method is the analysis method being called.
	Method Method

	// Op names the failing step (post, poll, decode, extract).
	Op string

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int

	// Err is the underlying cause.
	Err error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s backend %s failed with status %d; %v", e.Method, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s backend %s failed; %v", e.Method, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError creates a BackendError.
func NewBackendError(method Method, op string, status int, err error) *BackendError {
	return &BackendError{Method: method, Op: op, StatusCode: status, Err: err}
}

// IsRetryable reports whether err is a transient backend failure: a transport
// error, HTTP 429, or a 5xx status.
func IsRetryable(err error) bool {
	var be *BackendError
	if !errors.As(err, &be) {
		return false
	}

	if errors.Is(be.Err, ErrTransport) {
		return true
	}

	return be.StatusCode == http.StatusTooManyRequests || be.StatusCode >= http.StatusInternalServerError
}
