package orchestration

import (
	"errors"
	"strings"
)

var (
	// ErrInstanceNotFound is returned for an unknown or expired instance ID.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrInstanceFinished is returned when terminating an instance that is
	// no longer running.
	ErrInstanceFinished = errors.New("instance is not running")

	// ErrRunnerClosed is returned when starting an instance after shutdown.
	ErrRunnerClosed = errors.New("runner is shut down")
)

// ValidationError is a rejected request field. Field names the header, or
// "body" for the request body.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationErrors collects every rejected field of a request.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields returns the names of the rejected fields.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fields
}

// IsValidationError reports whether err is a client input error.
func IsValidationError(err error) bool {
	var one ValidationError
	var many ValidationErrors
	return errors.As(err, &many) || errors.As(err, &one)
}
