package document

import (
	"encoding/json"
	"fmt"

	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// analysisKinds maps synchronous methods to the request "kind" and
// summarization methods to their task kind.
var analysisKinds = map[providers.Method]string{
	providers.MethodLanguageDetection:        "LanguageDetection",
	providers.MethodKeyPhraseExtraction:      "KeyPhraseExtraction",
	providers.MethodEntityRecognition:        "EntityRecognition",
	providers.MethodPiiEntityRecognition:     "PiiEntityRecognition",
	providers.MethodExtractiveSummarization:  "ExtractiveSummarization",
	providers.MethodAbstractiveSummarization: "AbstractiveSummarization",
}

// NewBody builds a minimal request body for m carrying text. language is
// the document language hint for analysis methods and the target language
// is never set here; translation targets travel in the endpoint URL.
func NewBody(m providers.Method, text, language string) ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unsupported method %q", m)
	}

	if ShapeFor(m) == ShapeTranslation {
		return json.Marshal(TranslationBody{{Text: text}})
	}

	body := AnalysisBody{
		AnalysisInput: AnalysisInput{
			Documents: []Document{{
				ID:       json.RawMessage(`"1"`),
				Language: language,
				Text:     text,
			}},
		},
	}

	kind := analysisKinds[m]
	if m.IsSummarization() {
		body.DisplayName = "chunkalyze"
		tasks, err := json.Marshal([]map[string]string{{"kind": kind}})
		if err != nil {
			return nil, fmt.Errorf("failed to encode tasks; %w", err)
		}
		body.Tasks = tasks
	} else {
		body.Kind = kind
	}

	return json.Marshal(body)
}
