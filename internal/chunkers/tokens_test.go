package chunkers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(""))
	assert.Positive(t, EstimateTokens("hello"))
	assert.Greater(t, EstimateTokens("Lorem ipsum dolor sit amet, consectetur adipiscing elit."), EstimateTokens("hello"))
}

func TestHeuristicTokens(t *testing.T) {
	assert.Equal(t, 1, heuristicTokens("abcd"))
	assert.Equal(t, 2, heuristicTokens("abcde"))
}
