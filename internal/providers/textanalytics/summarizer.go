package textanalytics

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
	"github.com/leefowlercu/chunkalyze/internal/providers"
)

// Job statuses reported by the summarization status resource.
const (
	statusNotStarted         = "notStarted"
	statusRunning            = "running"
	statusCancelling         = "cancelling"
	statusSucceeded          = "succeeded"
	statusPartiallyCompleted = "partiallyCompleted"
)

const summaryDocumentPath = "tasks.items.0.results.documents.0"

// Summarizer submits a summarization job and polls it to completion.
type Summarizer struct {
	client *Client
	method providers.Method
}

// NewSummarizer creates the extractive or abstractive summarization backend.
func NewSummarizer(c *Client, m providers.Method) *Summarizer {
	return &Summarizer{client: c, method: m}
}

func (b *Summarizer) Method() providers.Method {
	return b.method
}

func (b *Summarizer) Analyze(ctx context.Context, req providers.ChunkRequest) (*providers.MethodResult, error) {
	resp, err := b.client.post(ctx, b.method, req)
	if err != nil {
		return nil, err
	}

	location := resp.Header().Get(headerOperationLocation)
	if location == "" {
		return nil, providers.NewBackendError(b.method, "post", resp.StatusCode(),
			fmt.Errorf("%w; %s header not found", providers.ErrMissingField, headerOperationLocation))
	}

	body, status, err := b.poll(ctx, location, req)
	if err != nil {
		return nil, err
	}

	text, ok := b.extract(body)
	if !ok {
		return nil, missingField(b.method, status, body, summaryDocumentPath)
	}
	return &providers.MethodResult{Text: text}, nil
}

// poll fetches the job status until it is terminal, the max wait elapses, or
// ctx is done. It returns the final status body.
func (b *Summarizer) poll(ctx context.Context, location string, req providers.ChunkRequest) ([]byte, int, error) {
	deadline := time.Now().Add(b.client.pollMaxWait)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, 0, providers.NewBackendError(b.method, "poll", 0, ctx.Err())
		case <-timer.C:
		}

		metrics.RecordPollAttempt(b.method.String())
		resp, err := b.client.get(ctx, b.method, location, req.Endpoint)
		if err != nil {
			return nil, 0, err
		}

		status := gjson.GetBytes(resp.Body(), "status").String()
		switch status {
		case statusSucceeded, statusPartiallyCompleted:
			b.client.logger.Debug("summarization job finished",
				"method", b.method,
				"chunk", req.ChunkIndex,
				"status", status,
				"polls", attempt,
			)
			return resp.Body(), resp.StatusCode(), nil
		case statusNotStarted, statusRunning, statusCancelling:
		default:
			detail := errorDetail(resp.Body())
			if detail == "" {
				detail = fmt.Sprintf("status %q", status)
			}
			return nil, resp.StatusCode(), providers.NewBackendError(b.method, "poll", resp.StatusCode(),
				fmt.Errorf("%w; %s", providers.ErrJobFailed, detail))
		}

		if !time.Now().Add(b.client.pollInterval).Before(deadline) {
			return nil, 0, providers.NewBackendError(b.method, "poll", 0,
				fmt.Errorf("%w; waited %s", providers.ErrPollTimeout, b.client.pollMaxWait))
		}
		timer.Reset(b.client.pollInterval)
	}
}

func (b *Summarizer) extract(body []byte) (string, bool) {
	if text, ok := joinTexts(body, summaryDocumentPath+".sentences"); ok {
		return text, true
	}
	if b.method == providers.MethodAbstractiveSummarization {
		return joinTexts(body, summaryDocumentPath+".summaries")
	}
	return "", false
}

