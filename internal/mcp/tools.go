package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/chunkers"
	"github.com/leefowlercu/chunkalyze/internal/document"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

const (
	toolChunkText   = "chunk_text"
	toolAnalyzeText = "analyze_text"
	toolGetInstance = "get_instance"
)

type chunkTextResult struct {
	ChunkSize int              `json:"chunk_size"`
	Count     int              `json:"count"`
	Chunks    []chunkers.Chunk `json:"chunks"`
}

type analyzeTextResult struct {
	Method     providers.Method `json:"method"`
	ChunkCount int              `json:"chunk_count"`
	Output     []string         `json:"output"`
	Result     *analysis.Result `json:"result"`
}

func methodNames() []string {
	methods := providers.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		toolChunkText,
		mcp.WithTitleAnnotation("Chunk Text"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithDescription("Split text into bounded-size chunks on delimiter boundaries without calling any backend."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to split.")),
		mcp.WithNumber("chunk_size", mcp.Description("Maximum chunk length in characters. Defaults to the server default.")),
		mcp.WithString("splitors", mcp.Description("Extra delimiters, comma separated. Escapes such as \\n are decoded.")),
		mcp.WithSchemaAdditionalProperties(false),
	), s.handleChunkText)

	if s.deps.Analyzer != nil {
		s.mcpServer.AddTool(mcp.NewTool(
			toolAnalyzeText,
			mcp.WithTitleAnnotation("Analyze Text"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithDestructiveHintAnnotation(false),
			mcp.WithOpenWorldHintAnnotation(true),
			mcp.WithDescription("Chunk text, run a text-analysis method on every chunk, and return the merged result."),
			mcp.WithString("method", mcp.Required(), mcp.Enum(methodNames()...), mcp.Description("Analysis method.")),
			mcp.WithString("endpoint_url", mcp.Required(), mcp.Description("Backend URL that receives each chunk.")),
			mcp.WithString("key", mcp.Required(), mcp.Description("Backend subscription key.")),
			mcp.WithString("region", mcp.Required(), mcp.Description("Backend subscription region.")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to analyze.")),
			mcp.WithString("language", mcp.Description("Optional document language hint, e.g. en.")),
			mcp.WithNumber("chunk_size", mcp.Description("Maximum chunk length in characters.")),
			mcp.WithString("splitors", mcp.Description("Extra delimiters, comma separated.")),
			mcp.WithSchemaAdditionalProperties(false),
		), s.handleAnalyzeText)
	}

	if s.deps.Instances != nil {
		s.mcpServer.AddTool(mcp.NewTool(
			toolGetInstance,
			mcp.WithTitleAnnotation("Get Analysis Instance"),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithIdempotentHintAnnotation(true),
			mcp.WithDescription("Return the status and, once finished, the result of a background analysis instance."),
			mcp.WithString("instance_id", mcp.Required(), mcp.Description("Instance ID returned when the analysis was started.")),
			mcp.WithSchemaAdditionalProperties(false),
		), s.handleGetInstance)
	}
}

// chunkHeader renders the optional chunking arguments as request headers so
// tool calls are validated exactly like HTTP requests.
func chunkHeader(request mcp.CallToolRequest) http.Header {
	h := http.Header{}
	if size := request.GetInt("chunk_size", 0); size > 0 {
		h.Set(orchestration.HeaderChunkSize, strconv.Itoa(size))
	}
	if splitors := request.GetString("splitors", ""); splitors != "" {
		h.Set(orchestration.HeaderSplitors, splitors)
	}
	return h
}

func (s *Server) handleChunkText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text is required"), nil
	}

	opts, err := s.deps.Parser.ChunkOptions(chunkHeader(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	chunks, err := s.deps.Chunker.Chunk(ctx, text, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("chunking failed: %v", err)), nil
	}

	return jsonResult(chunkTextResult{
		ChunkSize: opts.MaxSize,
		Count:     len(chunks),
		Chunks:    chunks,
	})
}

func (s *Server) handleAnalyzeText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	header := chunkHeader(request)
	header.Set(orchestration.HeaderMethod, request.GetString("method", ""))
	header.Set(orchestration.HeaderURL, request.GetString("endpoint_url", ""))
	header.Set(orchestration.HeaderKey, request.GetString("key", ""))
	header.Set(orchestration.HeaderRegion, request.GetString("region", ""))

	// An unknown method leaves body nil; Parse then reports the header.
	var body []byte
	if method, err := providers.ParseMethod(request.GetString("method", "")); err == nil {
		body, err = document.NewBody(method, text, request.GetString("language", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	params, err := s.deps.Parser.Parse(header, body)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outcome, err := s.deps.Analyzer.Run(ctx, params, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	return jsonResult(analyzeTextResult{
		Method:     params.Method,
		ChunkCount: outcome.ChunkCount,
		Output:     outcome.Result.Strings(),
		Result:     outcome.Result,
	})
}

func (s *Server) handleGetInstance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("instance_id")
	if err != nil || strings.TrimSpace(id) == "" {
		return mcp.NewToolResultError("instance_id is required"), nil
	}

	inst, err := s.deps.Instances.Status(ctx, strings.TrimSpace(id))
	if errors.Is(err, orchestration.ErrInstanceNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("instance %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read instance: %v", err)), nil
	}

	return jsonResult(inst)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool result; %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
