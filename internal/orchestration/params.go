// Package orchestration turns an incoming analysis request into a validated
// parameter set, drives chunking and dispatch, and runs background instances.
package orchestration

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/document"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// Request headers.
const (
	HeaderKey       = "Ocp-Apim-Subscription-Key"
	HeaderRegion    = "Ocp-Apim-Subscription-Region"
	HeaderURL       = "Ocp-Apim-Subscription-Url"
	HeaderMethod    = "Ocp-Apim-Subscription-Method"
	HeaderChunkSize = "Ocp-Apim-Subscription-Chunk-Size"
	HeaderSplitors  = "Ocp-Apim-Subscription-Splitors"
)

// Params is a validated analysis request.
type Params struct {
	Method     providers.Method
	Endpoint   providers.Endpoint
	ChunkSize  int
	Delimiters []string

	// Body is the raw request body; Template is its parsed form.
	Body     []byte
	Template document.Template
}

// ChunkLimits bounds the chunk size a request may ask for.
type ChunkLimits struct {
	Default int
	Min     int
	Max     int
}

// DefaultChunkLimits returns the 500 to 5000 character range with 5000 as default.
func DefaultChunkLimits() ChunkLimits {
	return ChunkLimits{Default: chunkers.DefaultMaxSize, Min: 500, Max: chunkers.DefaultMaxSize}
}

// headerParams mirrors the request headers for validation.
type headerParams struct {
	Key       string `header:"Ocp-Apim-Subscription-Key" validate:"required"`
	Region    string `header:"Ocp-Apim-Subscription-Region" validate:"required"`
	URL       string `header:"Ocp-Apim-Subscription-Url" validate:"required,http_url"`
	Method    string `header:"Ocp-Apim-Subscription-Method" validate:"required,analysis_method"`
	ChunkSize int    `header:"Ocp-Apim-Subscription-Chunk-Size" validate:"chunk_size"`
}

// ParamParser builds Params from request headers and body.
type ParamParser struct {
	validate *validator.Validate
	limits   ChunkLimits
}

// NewParamParser creates a parser enforcing limits.
func NewParamParser(limits ChunkLimits) *ParamParser {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("header")
	})
	_ = v.RegisterValidation("analysis_method", func(fl validator.FieldLevel) bool {
		_, err := providers.ParseMethod(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("chunk_size", func(fl validator.FieldLevel) bool {
		n := int(fl.Field().Int())
		return n >= limits.Min && n <= limits.Max
	})

	return &ParamParser{validate: v, limits: limits}
}

// Parse validates header and body. Every header problem is reported together
// as ValidationErrors; the body is only checked once the headers are valid.
func (p *ParamParser) Parse(header http.Header, body []byte) (*Params, error) {
	hp := headerParams{
		Key:       header.Get(HeaderKey),
		Region:    header.Get(HeaderRegion),
		URL:       header.Get(HeaderURL),
		Method:    header.Get(HeaderMethod),
		ChunkSize: p.chunkSize(header),
	}

	if err := p.validate.Struct(hp); err != nil {
		return nil, p.translate(err, hp)
	}

	method, _ := providers.ParseMethod(hp.Method)

	tmpl, err := document.Parse(method, body)
	if err != nil {
		return nil, ValidationErrors{{
			Field:   "body",
			Message: fmt.Sprintf("Request body is invalid for method %s; %v", method, err),
		}}
	}

	return &Params{
		Method: method,
		Endpoint: providers.Endpoint{
			URL:    hp.URL,
			Key:    hp.Key,
			Region: hp.Region,
		},
		ChunkSize:  hp.ChunkSize,
		Delimiters: ParseDelimiters(header),
		Body:       body,
		Template:   tmpl,
	}, nil
}

// ChunkOptions validates only the chunking headers, for chunk previews.
func (p *ParamParser) ChunkOptions(header http.Header) (chunkers.Options, error) {
	size := p.chunkSize(header)
	if err := p.validate.Var(size, "chunk_size"); err != nil {
		return chunkers.Options{}, ValidationErrors{p.chunkSizeError(size)}
	}
	return chunkers.Options{MaxSize: size, Delimiters: ParseDelimiters(header)}, nil
}

// chunkSize reads the chunk size header. An absent or non-numeric value
// yields the default; numeric values are returned as-is for range checks.
func (p *ParamParser) chunkSize(header http.Header) int {
	raw := strings.TrimSpace(header.Get(HeaderChunkSize))
	if raw == "" {
		return p.limits.Default
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return p.limits.Default
	}
	return n
}

func (p *ParamParser) chunkSizeError(size int) ValidationError {
	return ValidationError{
		Field: HeaderChunkSize,
		Message: fmt.Sprintf("Header %s must be between %d and %d, got %d",
			HeaderChunkSize, p.limits.Min, p.limits.Max, size),
	}
}

func (p *ParamParser) translate(err error, hp headerParams) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		header := fe.Field()
		switch fe.Tag() {
		case "required":
			out = append(out, ValidationError{Field: header, Message: fmt.Sprintf("Header %s is missing", header)})
		case "http_url":
			out = append(out, ValidationError{Field: header, Message: fmt.Sprintf("Header %s must be an absolute http or https URL", header)})
		case "analysis_method":
			out = append(out, ValidationError{
				Field:   header,
				Message: fmt.Sprintf("Header %s has unsupported method %q", header, hp.Method),
			})
		case "chunk_size":
			out = append(out, p.chunkSizeError(hp.ChunkSize))
		default:
			out = append(out, ValidationError{Field: header, Message: fmt.Sprintf("Header %s is invalid", header)})
		}
	}
	return out
}

// ParseDelimiters returns the default delimiters followed by any extra
// splitors from the request header.
func ParseDelimiters(header http.Header) []string {
	return chunkers.MergeDelimiters(chunkers.ParseDelimiterList(header.Get(HeaderSplitors))...)
}

var defaultParser = NewParamParser(DefaultChunkLimits())

// ParseParams parses a request with the default chunk limits.
func ParseParams(header http.Header, body []byte) (*Params, error) {
	return defaultParser.Parse(header, body)
}
