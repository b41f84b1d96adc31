package textanalytics

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/leefowlercu/chunkalyze/internal/providers"
)

const documentPath = "results.documents.0"

// LanguageDetector extracts the detected language of a chunk as "<code>:<name>".
type LanguageDetector struct {
	client *Client
}

// NewLanguageDetector creates the languagedetection backend.
func NewLanguageDetector(c *Client) *LanguageDetector {
	return &LanguageDetector{client: c}
}

func (b *LanguageDetector) Method() providers.Method {
	return providers.MethodLanguageDetection
}

func (b *LanguageDetector) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	resp, err := b.client.post(ctx, b.Method(), req)
	if err != nil {
		return nil, err
	}

	body := resp.Body()
	codePath := documentPath + ".detectedLanguage.iso6391Name"
	namePath := documentPath + ".detectedLanguage.name"
	code := gjson.GetBytes(body, codePath)
	if !code.Exists() {
		return nil, missingField(b.Method(), resp.StatusCode(), body, codePath)
	}
	name := gjson.GetBytes(body, namePath)
	if !name.Exists() {
		return nil, missingField(b.Method(), resp.StatusCode(), body, namePath)
	}
	return &providers.MethodResult{Values: []string{code.String() + ":" + name.String()}}, nil
}

// KeyPhraseExtractor extracts the key phrases of a chunk.
type KeyPhraseExtractor struct {
	client *Client
}

// NewKeyPhraseExtractor creates the keyphraseextraction backend.
func NewKeyPhraseExtractor(c *Client) *KeyPhraseExtractor {
	return &KeyPhraseExtractor{client: c}
}

func (b *KeyPhraseExtractor) Method() providers.Method {
	return providers.MethodKeyPhraseExtraction
}

func (b *KeyPhraseExtractor) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	resp, err := b.client.post(ctx, b.Method(), req)
	if err != nil {
		return nil, err
	}

	path := documentPath + ".keyPhrases"
	phrases, ok := stringsAt(resp.Body(), path)
	if !ok {
		return nil, missingField(b.Method(), resp.StatusCode(), resp.Body(), path)
	}
	return &providers.MethodResult{Values: phrases}, nil
}

// EntityRecognizer extracts "category:text" pairs for recognized entities.
type EntityRecognizer struct {
	client *Client
}

// NewEntityRecognizer creates the entityrecognition backend.
func NewEntityRecognizer(c *Client) *EntityRecognizer {
	return &EntityRecognizer{client: c}
}

func (b *EntityRecognizer) Method() providers.Method {
	return providers.MethodEntityRecognition
}

func (b *EntityRecognizer) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	resp, err := b.client.post(ctx, b.Method(), req)
	if err != nil {
		return nil, err
	}

	path := documentPath + ".entities"
	entities, ok := entityPairs(resp.Body(), path)
	if !ok {
		return nil, missingField(b.Method(), resp.StatusCode(), resp.Body(), path)
	}
	return &providers.MethodResult{Values: entities}, nil
}

// PiiRecognizer extracts the redacted text and redacted entities of a chunk.
type PiiRecognizer struct {
	client *Client
}

// NewPiiRecognizer creates the piientityrecognition backend.
func NewPiiRecognizer(c *Client) *PiiRecognizer {
	return &PiiRecognizer{client: c}
}

func (b *PiiRecognizer) Method() providers.Method {
	return providers.MethodPiiEntityRecognition
}

func (b *PiiRecognizer) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	resp, err := b.client.post(ctx, b.Method(), req)
	if err != nil {
		return nil, err
	}

	textPath := documentPath + ".redactedText"
	redacted := gjson.GetBytes(resp.Body(), textPath)
	if !redacted.Exists() {
		return nil, missingField(b.Method(), resp.StatusCode(), resp.Body(), textPath)
	}

	entitiesPath := documentPath + ".entities"
	entities, ok := entityPairs(resp.Body(), entitiesPath)
	if !ok {
		return nil, missingField(b.Method(), resp.StatusCode(), resp.Body(), entitiesPath)
	}

	return &providers.MethodResult{
		Values: entities,
		Pii: &providers.PiiOutcome{
			RedactedText:     redacted.String(),
			RedactedEntities: entities,
		},
	}, nil
}

// Translator extracts the first translation of a chunk.
type Translator struct {
	client *Client
}

// NewTranslator creates the translation backend.
func NewTranslator(c *Client) *Translator {
	return &Translator{client: c}
}

func (b *Translator) Method() providers.Method {
	return providers.MethodTranslation
}

func (b *Translator) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	if req.Endpoint.Region == "" {
		return nil, providers.NewBackendError(b.Method(), "post", 0, errors.New("region is required for translation"))
	}

	resp, err := b.client.post(ctx, b.Method(), req)
	if err != nil {
		return nil, err
	}

	path := "0.translations.0.text"
	text := gjson.GetBytes(resp.Body(), path)
	if !text.Exists() {
		return nil, missingField(b.Method(), resp.StatusCode(), resp.Body(), path)
	}
	return &providers.MethodResult{Text: text.String()}, nil
}

func entityPairs(body []byte, path string) ([]string, bool) {
	v := gjson.GetBytes(body, path)
	if !v.Exists() || !v.IsArray() {
		return nil, false
	}
	var out []string
	for _, e := range v.Array() {
		out = append(out, e.Get("category").String()+":"+e.Get("text").String())
	}
	return out, true
}
