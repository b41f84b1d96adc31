// Package providers defines the backend client contract used to analyze a
// single chunk, plus decorators that add rate limiting, retries, caching and
// instrumentation around any backend.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Method identifies a text-analysis operation offered by the backend.
type Method string

const (
	MethodLanguageDetection        Method = "languagedetection"
	MethodKeyPhraseExtraction      Method = "keyphraseextraction"
	MethodEntityRecognition        Method = "entityrecognition"
	MethodPiiEntityRecognition     Method = "piientityrecognition"
	MethodExtractiveSummarization  Method = "extractivesummarization"
	MethodAbstractiveSummarization Method = "abstractivesummarization"
	MethodTranslation              Method = "translation"
)

// Methods returns every supported method.
func Methods() []Method {
	return []Method{
		MethodLanguageDetection,
		MethodKeyPhraseExtraction,
		MethodEntityRecognition,
		MethodPiiEntityRecognition,
		MethodExtractiveSummarization,
		MethodAbstractiveSummarization,
		MethodTranslation,
	}
}

// ParseMethod converts a method name to a Method, ignoring case and
// surrounding whitespace.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("unsupported method %q", s)
	}
	return m, nil
}

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	for _, known := range Methods() {
		if m == known {
			return true
		}
	}
	return false
}

// IsSummarization reports whether m runs the asynchronous summarization job.
func (m Method) IsSummarization() bool {
	return m == MethodExtractiveSummarization || m == MethodAbstractiveSummarization
}

// RequiresRegion reports whether the backend needs the region header for m.
func (m Method) RequiresRegion() bool {
	return m == MethodTranslation
}

func (m Method) String() string {
	return string(m)
}

// Endpoint addresses the backend for one request.
type Endpoint struct {
	// URL receives the POST.
	URL string

	// Key is sent as Ocp-Apim-Subscription-Key.
	Key string

	// Region is sent as Ocp-Apim-Subscription-Region when set.
	Region string
}

// ChunkRequest is a single backend call for one chunk.
type ChunkRequest struct {
	// Endpoint is where the request is sent.
	Endpoint Endpoint

	// Body is the method-specific JSON body with the chunk substituted in.
	Body []byte

	// ChunkIndex is the chunk's position, used for logging only.
	ChunkIndex int
}

// PiiOutcome is the PII recognition result for one chunk.
type PiiOutcome struct {
	RedactedText     string   `json:"redactedText"`
	RedactedEntities []string `json:"redactedEntities"`
}

// MethodResult is the typed result extracted from one backend response.
// Which field is populated depends on the method.
type MethodResult struct {
	// Values holds language tags, key phrases or "category:text" entities.
	Values []string `json:"values,omitempty"`

	// Pii is set for piientityrecognition.
	Pii *PiiOutcome `json:"pii,omitempty"`

	// Text is the summary or translation.
	Text string `json:"text,omitempty"`
}

// Backend analyzes one chunk with one method.
type Backend interface {
	// Method returns the method this backend implements.
	Method() Method

	// Analyze issues the request and extracts the method's result.
	// Failures are returned as *BackendError.
	Analyze(ctx context.Context, req ChunkRequest) (*MethodResult, error)
}
