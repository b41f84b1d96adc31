package document

import (
	"encoding/json"
)

// TranslationItem is one element of a translation request array.
type TranslationItem struct {
	Text string `json:"Text"`
}

// TranslationBody is the array-shaped translation request.
type TranslationBody []TranslationItem

func (t TranslationBody) Shape() Shape {
	return ShapeTranslation
}

// Text returns [0].Text.
func (t TranslationBody) Text() string {
	if len(t) == 0 {
		return ""
	}
	return t[0].Text
}

// WithText encodes a copy of the array with the first element's Text replaced.
func (t TranslationBody) WithText(text string) ([]byte, error) {
	items := make(TranslationBody, len(t))
	copy(items, t)
	if len(items) == 0 {
		items = append(items, TranslationItem{})
	}
	items[0].Text = text
	return json.Marshal(items)
}
