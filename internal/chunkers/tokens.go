package chunkers

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

var (
	tokenizer     *tiktoken.Tiktoken
	tokenizerOnce sync.Once
	tokenizerErr  error
)

// getTokenizer returns a cached cl100k_base encoder.
func getTokenizer() (*tiktoken.Tiktoken, error) {
	tokenizerOnce.Do(func() {
		tokenizer, tokenizerErr = tiktoken.GetEncoding("cl100k_base")
	})
	return tokenizer, tokenizerErr
}

// EstimateTokens returns the token count of text.
// Falls back to ~4 characters per token when the encoder is unavailable.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	enc, err := getTokenizer()
	if err != nil {
		return heuristicTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func heuristicTokens(text string) int {
	return (len(text) + 3) / 4
}
