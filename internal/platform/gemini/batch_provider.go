package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/recaplab/recap-api/internal/batch"
	"github.com/recaplab/recap-api/internal/config"
)

// BatchProvider implements the batch.Provider interface on top of the
// Gemini batch API: requests are uploaded as a JSONL file, a batch job is
// created against it, and results come back as a downloadable JSONL file.
type BatchProvider struct {
	logger *slog.Logger

	client *genai.Client

	// model is the name of the Gemini model the batch runs against.
	model string

	// limiter caps status and download calls client-side. The provider
	// itself throttles hard; staying under its limits keeps poll cycles
	// from tripping 429s when many jobs are in flight.
	limiter *rate.Limiter
}

// NewBatchProvider creates a BatchProvider from the LLM configuration.
func NewBatchProvider(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*BatchProvider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", batch.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", batch.ErrInvalidConfig)
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", batch.ErrInvalidConfig, err)
	}

	return &BatchProvider{
		logger:  logger.With(slog.String("component", "gemini_batch_provider")),
		client:  client,
		model:   cfg.ModelName,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}, nil
}

// Ensure BatchProvider implements batch.Provider
var _ batch.Provider = (*BatchProvider)(nil)

// SubmitBatch uploads all requests as one JSONL file and creates a batch
// job referencing it. Returns the provider-assigned batch job name.
func (p *BatchProvider) SubmitBatch(ctx context.Context, requests []batch.Request) (string, error) {
	if len(requests) == 0 {
		return "", fmt.Errorf("%w: empty request set", batch.ErrSubmitRejected)
	}

	payload, err := encodeRequestLines(requests)
	if err != nil {
		return "", fmt.Errorf("%w: %v", batch.ErrSubmitRejected, err)
	}

	file, err := p.client.Files.Upload(ctx, bytes.NewReader(payload), &genai.UploadFileConfig{
		MIMEType:    "application/jsonl",
		DisplayName: fmt.Sprintf("batch-input-%d-requests", len(requests)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: input upload failed: %v", batch.ErrSubmitRejected, err)
	}

	job, err := p.client.Batches.Create(ctx, p.model,
		&genai.BatchJobSource{
			Format:   "jsonl",
			FileName: file.Name,
		},
		&genai.CreateBatchJobConfig{
			DisplayName: fmt.Sprintf("weekly-summary-%d-requests", len(requests)),
		})
	if err != nil {
		return "", fmt.Errorf("%w: %v", batch.ErrSubmitRejected, err)
	}

	p.logger.InfoContext(ctx, "batch submitted",
		slog.String("batch_id", job.Name),
		slog.Int("request_count", len(requests)))

	return job.Name, nil
}

// CheckStatus queries the batch job's current state.
func (p *BatchProvider) CheckStatus(ctx context.Context, batchID string) (*batch.StatusSnapshot, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	job, err := p.client.Batches.Get(ctx, batchID, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", batch.ErrBatchNotFound, batchID)
		}
		return nil, fmt.Errorf("failed to query batch status: %w", err)
	}

	snapshot := &batch.StatusSnapshot{
		BatchID: job.Name,
		State:   mapJobState(job.State),
	}

	if job.Dest != nil {
		snapshot.OutputFileID = job.Dest.FileName
	}

	p.logger.DebugContext(ctx, "batch status checked",
		slog.String("batch_id", batchID),
		slog.String("provider_state", string(job.State)),
		slog.String("state", string(snapshot.State)))

	return snapshot, nil
}

// DownloadResults fetches the output artifact and parses its JSONL lines
// into per-item results. Malformed lines become error items rather than
// aborting the download; the caller decides how to account for them.
func (p *BatchProvider) DownloadResults(ctx context.Context, fileID string) ([]batch.ItemResult, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: empty file ID", batch.ErrOutputUnavailable)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	file, err := p.client.Files.Get(ctx, fileID, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", batch.ErrOutputUnavailable, err)
	}

	data, err := p.client.Files.Download(ctx, file, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", batch.ErrOutputUnavailable, err)
	}

	return parseResultLines(data)
}

// encodeRequestLines marshals requests into the JSONL upload payload.
func encodeRequestLines(requests []batch.Request) ([]byte, error) {
	var buf bytes.Buffer
	for _, req := range requests {
		line := requestLine{
			Key: req.CustomID,
			Request: requestBody{
				Contents: []requestContent{
					{Parts: []textPart{{Text: req.Prompt}}},
				},
			},
		}

		encoded, err := json.Marshal(line)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request %q: %w", req.CustomID, err)
		}

		buf.Write(encoded)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// parseResultLines decodes the output artifact one JSON record per line.
func parseResultLines(data []byte) ([]batch.ItemResult, error) {
	var results []batch.ItemResult

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Summaries can exceed the default 64KiB token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var line resultLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			results = append(results, batch.ItemResult{
				CustomID: line.Key,
				Err:      fmt.Sprintf("unparseable output line: %v", err),
			})
			continue
		}

		results = append(results, toItemResult(line))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", batch.ErrMalformedOutput, err)
	}

	return results, nil
}

// toItemResult maps one decoded output line onto the tagged result type.
func toItemResult(line resultLine) batch.ItemResult {
	if line.Error != nil {
		return batch.ItemResult{CustomID: line.Key, Err: line.Error.Message}
	}

	if line.Response == nil || len(line.Response.Candidates) == 0 {
		return batch.ItemResult{CustomID: line.Key, Err: "no content generated"}
	}

	var text strings.Builder
	for _, part := range line.Response.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	if text.Len() == 0 {
		return batch.ItemResult{CustomID: line.Key, Err: "empty response content"}
	}

	return batch.ItemResult{CustomID: line.Key, Summary: text.String()}
}

// mapJobState translates the SDK's job states onto the provider-neutral
// state set the poller drives its transition table from.
func mapJobState(state genai.JobState) batch.State {
	switch state {
	case genai.JobStatePending:
		return batch.StateValidating
	case genai.JobStateRunning:
		return batch.StateInProgress
	case genai.JobStateSucceeded:
		return batch.StateCompleted
	case genai.JobStateFailed, genai.JobStateExpired:
		return batch.StateFailed
	case genai.JobStateCancelled:
		return batch.StateCancelled
	default:
		// Unknown or transitional states read as still in flight; the next
		// poll cycle picks up whatever they settle into.
		return batch.StateInProgress
	}
}

// isNotFound sniffs the SDK error for a 404 on the batch resource.
func isNotFound(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404
	}
	return false
}
