package analysis

import (
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// Label tags a concatenated text in a Result.
type Label string

const (
	LabelRedactedText   Label = "RedactedText"
	LabelSummarization  Label = "Summarization"
	LabelTranslatedText Label = "TranslatedText"
)

// Result is the merged outcome of one analysis. Items holds the set-valued
// output in first-seen order with duplicates collapsed; at most one of the
// text fields is set, depending on the method.
type Result struct {
	Method         providers.Method `json:"method"`
	Items          []string         `json:"items"`
	RedactedText   *string          `json:"redactedText,omitempty"`
	Summarization  *string          `json:"summary,omitempty"`
	TranslatedText *string          `json:"translatedText,omitempty"`

	// Rounds is the number of backend rounds run: 1 for fan-out methods,
	// the reduce round count for summarization, 0 for empty input.
	Rounds int `json:"rounds"`
}

func newResult(m providers.Method) *Result {
	return &Result{Method: m, Items: []string{}}
}

// Texts returns the labelled texts present in the result.
func (r *Result) Texts() map[Label]string {
	out := make(map[Label]string)
	if r.RedactedText != nil {
		out[LabelRedactedText] = *r.RedactedText
	}
	if r.Summarization != nil {
		out[LabelSummarization] = *r.Summarization
	}
	if r.TranslatedText != nil {
		out[LabelTranslatedText] = *r.TranslatedText
	}
	return out
}

// Strings renders the flat "set of strings" encoding: every item followed by
// "<Label>:<text>" for each labelled text.
func (r *Result) Strings() []string {
	out := make([]string, 0, len(r.Items)+1)
	out = append(out, r.Items...)
	texts := r.Texts()
	for _, l := range []Label{LabelRedactedText, LabelSummarization, LabelTranslatedText} {
		if text, ok := texts[l]; ok {
			out = append(out, string(l)+":"+text)
		}
	}
	return out
}

// itemSet is an insertion-ordered string set.
type itemSet struct {
	seen  map[string]struct{}
	order []string
}

func newItemSet() *itemSet {
	return &itemSet{seen: make(map[string]struct{})}
}

func (s *itemSet) add(values ...string) {
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.order = append(s.order, v)
	}
}

func (s *itemSet) items() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
