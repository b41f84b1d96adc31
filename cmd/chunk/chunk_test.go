package chunk

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/testutil"
)

func runWith(t *testing.T, input string) (*bytes.Buffer, error) {
	t.Helper()
	t.Cleanup(func() {
		chunkFile, chunkSplitors = "", ""
		chunkSize = 0
		chunkFormat = "json"
		chunkTokens = false
		config.Reset()
	})

	var out bytes.Buffer
	ChunkCmd.SetIn(strings.NewReader(input))
	ChunkCmd.SetOut(&out)
	ChunkCmd.SetContext(context.Background())
	return &out, runChunk(ChunkCmd, nil)
}

func TestRunChunk(t *testing.T) {
	chunkSize = 500
	chunkFormat = "json"

	out, err := runWith(t, strings.Repeat("Twenty characters!!\n", 60))
	require.NoError(t, err)

	var result chunkResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 500, result.ChunkSize)
	assert.Equal(t, len(result.Chunks), result.Count)
	assert.GreaterOrEqual(t, result.Count, 3)
}

func TestRunChunk_Splitors(t *testing.T) {
	chunkSize = 500
	chunkSplitors = ". "
	chunkFormat = "yaml"

	out, err := runWith(t, strings.Repeat("A sentence without line breaks. ", 40))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "chunk_size: 500")
	assert.Contains(t, out.String(), "count:")
}

func TestRunChunk_SizeOutOfRange(t *testing.T) {
	chunkSize = 10
	chunkFormat = "json"

	_, err := runWith(t, "hello")
	assert.ErrorContains(t, err, "must be between 500 and 5000")
}

func TestRunChunk_ConfiguredLimitsAndFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteConfig("chunking:\n  min_chunk_size: 100\n  max_chunk_size: 1000\n  default_chunk_size: 800\n")

	chunkFile = env.WriteInput("input.txt", strings.Repeat("Twenty characters!!\n", 30))
	chunkSize = 200
	chunkFormat = "json"

	out, err := runWith(t, "")
	require.NoError(t, err)

	var result chunkResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 200, result.ChunkSize)
	assert.Equal(t, 3, result.Count)
}
