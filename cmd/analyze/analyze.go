// Package analyze provides the analyze command.
package analyze

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leefowlercu/chunkalyze/internal/analysis"
	"github.com/leefowlercu/chunkalyze/internal/cmdutil"
	"github.com/leefowlercu/chunkalyze/internal/config"
	"github.com/leefowlercu/chunkalyze/internal/daemon"
	"github.com/leefowlercu/chunkalyze/internal/daemonclient"
	"github.com/leefowlercu/chunkalyze/internal/document"
	"github.com/leefowlercu/chunkalyze/internal/orchestration"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

const (
	envKey    = "CHUNKALYZE_BACKEND_KEY"
	envRegion = "CHUNKALYZE_BACKEND_REGION"
	envURL    = "CHUNKALYZE_BACKEND_URL"
)

var (
	analyzeMethod   string
	analyzeURL      string
	analyzeKey      string
	analyzeRegion   string
	analyzeFile     string
	analyzeLanguage string
	analyzeSize     int
	analyzeSplitors string
	analyzeFormat   string
	analyzeRaw      bool
	analyzeRemote   string
)

// AnalyzeCmd runs one analysis inline and prints the merged result.
var AnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Chunk text and run a text-analytics method over every chunk",
	Long: "Chunk text and run a text-analytics method over every chunk.\n\n" +
		"Reads text from --file or stdin, splits it into chunks, sends every chunk to the " +
		"backend at --url, and prints the merged result. Credentials may be given as flags " +
		"or through " + envKey + ", " + envRegion + " and " + envURL + ".\n\n" +
		"Methods: " + strings.Join(methodNames(), ", ") + ".",
	Example: `  # Extract entities from a file
  chunkalyze analyze --method EntityRecognition --url https://example.cognitiveservices.azure.com/language/:analyze-text?api-version=2022-05-01 --file report.txt

  # Summarize piped text and print only the flat output strings
  cat report.txt | chunkalyze analyze --method ExtractiveSummarization --raw

  # Run the analysis on a chunkalyze service instead of inline
  chunkalyze analyze --method KeyPhraseExtraction --remote http://127.0.0.1:7600 --file report.txt`,
	PreRunE: validateAnalyze,
	RunE:    runAnalyze,
}

func init() {
	AnalyzeCmd.Flags().StringVarP(&analyzeMethod, "method", "m", "", "Analysis method (required)")
	AnalyzeCmd.Flags().StringVar(&analyzeURL, "url", os.Getenv(envURL), "Backend URL that receives each chunk")
	AnalyzeCmd.Flags().StringVar(&analyzeKey, "key", os.Getenv(envKey), "Backend subscription key")
	AnalyzeCmd.Flags().StringVar(&analyzeRegion, "region", os.Getenv(envRegion), "Backend subscription region")
	AnalyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Input file (default: stdin)")
	AnalyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "", "Document language hint, e.g. en")
	AnalyzeCmd.Flags().IntVar(&analyzeSize, "chunk-size", 0, "Maximum chunk length in characters")
	AnalyzeCmd.Flags().StringVar(&analyzeSplitors, "splitors", "", "Extra delimiters, comma separated")
	AnalyzeCmd.Flags().StringVar(&analyzeFormat, "format", cmdutil.FormatJSON, "Output format (json, yaml)")
	AnalyzeCmd.Flags().BoolVar(&analyzeRaw, "raw", false, "Print only the flat output strings, one per line")
	AnalyzeCmd.Flags().StringVar(&analyzeRemote, "remote", "", "Base URL of a chunkalyze service to run the analysis on")
	_ = AnalyzeCmd.MarkFlagRequired("method")
}

func methodNames() []string {
	methods := providers.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}

func validateAnalyze(cmd *cobra.Command, args []string) error {
	if _, err := providers.ParseMethod(analyzeMethod); err != nil {
		return fmt.Errorf("invalid --method; %w", err)
	}
	if err := cmdutil.ValidateFormat(analyzeFormat); err != nil {
		return err
	}

	// All errors after this are runtime errors
	cmd.SilenceUsage = true
	return nil
}

// analyzeResult is the rendered output of the analyze command.
type analyzeResult struct {
	Method     providers.Method `json:"method" yaml:"method"`
	ChunkCount int              `json:"chunkCount" yaml:"chunk_count"`
	Duration   string           `json:"duration" yaml:"duration"`
	Output     []string         `json:"output" yaml:"output"`
	Result     *analysis.Result `json:"result" yaml:"result"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	method, _ := providers.ParseMethod(analyzeMethod)

	text, err := cmdutil.ReadInput(analyzeFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	body, err := document.NewBody(method, text, analyzeLanguage)
	if err != nil {
		return err
	}

	logger := cmdutil.LogManager().Logger()
	if analyzeRemote != "" {
		return runRemote(cmd, method, body, daemonclient.New(analyzeRemote))
	}

	pipeline, err := daemon.NewPipeline(config.Get(), nil, logger)
	if err != nil {
		return err
	}

	params, err := pipeline.Parser.Parse(requestHeader(method), body)
	if err != nil {
		return err
	}

	outcome, err := pipeline.Driver.Run(cmd.Context(), params, func(phase orchestration.Phase, chunkCount int) {
		logger.Debug("analysis progress", "phase", phase, "chunks", chunkCount)
	})
	if err != nil {
		return fmt.Errorf("analysis failed; %w", err)
	}

	return render(cmd, analyzeResult{
		Method:     method,
		ChunkCount: outcome.ChunkCount,
		Duration:   outcome.Duration.String(),
		Output:     outcome.Result.Strings(),
		Result:     outcome.Result,
	})
}

// runRemote submits the analysis as a background instance on a running
// service and waits for it. Interrupting the wait terminates the instance.
func runRemote(cmd *cobra.Command, method providers.Method, body []byte, client *daemonclient.Client) error {
	logger := cmdutil.LogManager().Logger()
	ctx := cmd.Context()

	accepted, err := client.Analyze(ctx, requestHeader(method), body)
	if err != nil {
		return fmt.Errorf("failed to start remote analysis; %w", err)
	}
	logger.Debug("remote analysis started", "instance", accepted.ID, "status_uri", accepted.StatusQueryGetURI)

	inst, err := client.Wait(ctx, accepted.ID, func(inst *orchestration.Instance) {
		logger.Debug("analysis progress", "status", inst.RuntimeStatus, "phase", inst.Phase, "chunks", inst.ChunkCount)
	})
	if err != nil {
		if ctx.Err() != nil {
			if terr := client.Terminate(context.WithoutCancel(ctx), accepted.ID); terr != nil {
				logger.Warn("failed to terminate remote instance", "instance", accepted.ID, "error", terr)
			}
		}
		return fmt.Errorf("remote analysis failed; %w", err)
	}
	if inst.RuntimeStatus != orchestration.StatusCompleted {
		return fmt.Errorf("remote analysis %s; %s", inst.RuntimeStatus, inst.Error)
	}

	return render(cmd, analyzeResult{
		Method:     method,
		ChunkCount: inst.ChunkCount,
		Duration:   inst.LastUpdatedAt.Sub(inst.CreatedAt).String(),
		Output:     inst.Output,
		Result:     inst.Result,
	})
}

func render(cmd *cobra.Command, result analyzeResult) error {
	out := cmd.OutOrStdout()
	if analyzeRaw {
		for _, s := range result.Output {
			fmt.Fprintln(out, s)
		}
		return nil
	}
	return cmdutil.WriteFormatted(out, analyzeFormat, result)
}

// requestHeader renders the flags as the headers the HTTP API expects.
func requestHeader(method providers.Method) http.Header {
	h := http.Header{}
	h.Set(orchestration.HeaderMethod, method.String())
	h.Set(orchestration.HeaderURL, analyzeURL)
	h.Set(orchestration.HeaderKey, analyzeKey)
	h.Set(orchestration.HeaderRegion, analyzeRegion)
	if analyzeSize > 0 {
		h.Set(orchestration.HeaderChunkSize, strconv.Itoa(analyzeSize))
	}
	if analyzeSplitors != "" {
		h.Set(orchestration.HeaderSplitors, analyzeSplitors)
	}
	return h
}
