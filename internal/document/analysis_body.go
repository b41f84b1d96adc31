package document

import (
	"encoding/json"
)

// AnalysisBody is the body shape shared by every method except translation.
// Fields it does not model are kept verbatim and written back on encode.
type AnalysisBody struct {
	Kind          string          `json:"kind,omitempty"`
	DisplayName   string          `json:"displayName,omitempty"`
	AnalysisInput AnalysisInput   `json:"analysisInput"`
	Parameters    json.RawMessage `json:"parameters,omitempty"`
	Tasks         json.RawMessage `json:"tasks,omitempty"`

	extra map[string]json.RawMessage
}

// AnalysisInput holds the submitted documents.
type AnalysisInput struct {
	Documents []Document `json:"documents"`
}

// Document is one submitted document.
type Document struct {
	ID       json.RawMessage `json:"id,omitempty"`
	Language string          `json:"language,omitempty"`
	Text     string          `json:"text"`

	extra map[string]json.RawMessage
}

var analysisBodyFields = []string{"kind", "displayName", "analysisInput", "parameters", "tasks"}

var documentFields = []string{"id", "language", "text"}

// UnmarshalJSON decodes the modeled fields and retains the rest.
func (b *AnalysisBody) UnmarshalJSON(data []byte) error {
	type plain AnalysisBody
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, analysisBodyFields)
	if err != nil {
		return err
	}
	*b = AnalysisBody(p)
	b.extra = extra
	return nil
}

// MarshalJSON encodes the modeled fields merged with retained unknown fields.
func (b AnalysisBody) MarshalJSON() ([]byte, error) {
	type plain AnalysisBody
	return mergeFields(plain(b), b.extra)
}

// UnmarshalJSON decodes the modeled fields and retains the rest.
func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, documentFields)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.extra = extra
	return nil
}

// MarshalJSON encodes the modeled fields merged with retained unknown fields.
func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return mergeFields(plain(d), d.extra)
}

func (b *AnalysisBody) Shape() Shape {
	return ShapeAnalysisInput
}

// Text returns analysisInput.documents[0].text.
func (b *AnalysisBody) Text() string {
	if len(b.AnalysisInput.Documents) == 0 {
		return ""
	}
	return b.AnalysisInput.Documents[0].Text
}

// WithText encodes a copy of the body with the first document's text replaced.
func (b *AnalysisBody) WithText(text string) ([]byte, error) {
	clone := *b
	docs := make([]Document, len(b.AnalysisInput.Documents))
	copy(docs, b.AnalysisInput.Documents)
	if len(docs) == 0 {
		docs = append(docs, Document{ID: json.RawMessage(`"1"`)})
	}
	docs[0].Text = text
	clone.AnalysisInput.Documents = docs
	return json.Marshal(clone)
}

func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeFields(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}
