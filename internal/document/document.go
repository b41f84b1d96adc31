// Package document models the request bodies accepted for analysis and
// provides explicit accessors for the long text each shape carries.
package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/leefowlercu/chunkalyze/internal/providers"
)

var (
	// ErrInvalidJSON is returned when a body is not well-formed JSON.
	ErrInvalidJSON = errors.New("body is not valid JSON")

	// ErrMissingText is returned when a body lacks the text field its shape requires.
	ErrMissingText = errors.New("body is missing the text field")
)

// Shape identifies the layout of a request body.
type Shape int

const (
	// ShapeAnalysisInput carries text at analysisInput.documents[0].text.
	ShapeAnalysisInput Shape = iota

	// ShapeTranslation is a top-level array carrying text at [0].Text.
	ShapeTranslation
)

func (s Shape) String() string {
	switch s {
	case ShapeAnalysisInput:
		return "analysisInput"
	case ShapeTranslation:
		return "translation"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// TextPath returns the gjson path of the text field for the shape.
func (s Shape) TextPath() string {
	if s == ShapeTranslation {
		return "0.Text"
	}
	return "analysisInput.documents.0.text"
}

// ShapeFor returns the body shape used by a method.
func ShapeFor(m providers.Method) Shape {
	if m == providers.MethodTranslation {
		return ShapeTranslation
	}
	return ShapeAnalysisInput
}

// Template is a parsed request body whose text can be read and replaced.
type Template interface {
	// Shape returns the body layout.
	Shape() Shape

	// Text returns the long text carried by the body.
	Text() string

	// WithText returns the body re-encoded with its text replaced. The
	// template itself is left unchanged.
	WithText(text string) ([]byte, error)
}

// Parse decodes body according to the shape required by method.
func Parse(m providers.Method, body []byte) (Template, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidJSON
	}

	shape := ShapeFor(m)
	if !gjson.GetBytes(body, shape.TextPath()).Exists() {
		return nil, fmt.Errorf("%w; expected %s", ErrMissingText, shape.TextPath())
	}

	switch shape {
	case ShapeTranslation:
		var items TranslationBody
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to decode translation body; %w", err)
		}
		return items, nil
	default:
		var ab AnalysisBody
		if err := json.Unmarshal(body, &ab); err != nil {
			return nil, fmt.Errorf("failed to decode analysis body; %w", err)
		}
		return &ab, nil
	}
}
