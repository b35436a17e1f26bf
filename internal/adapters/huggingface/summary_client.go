package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/truthline/truthline/internal/ratelimit"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SummaryClient is an implementation of the SummaryProvider interface
// using the HuggingFace hosted inference API
type SummaryClient struct {
	baseURL       string
	apiToken      string
	modelName     string
	maxBodySize   int
	httpClient    *http.Client
	limiter       *rate.Limiter
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

type inferenceResult struct {
	SummaryText string `json:"summary_text"`
}

type inferenceError struct {
	Error string `json:"error"`
}

// NewSummaryClient creates a new HuggingFace summary client
func NewSummaryClient(
	baseURL string,
	apiToken string,
	modelName string,
	maxBodySize int,
	timeout time.Duration,
	requestsPerSecond float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *SummaryClient {
	return &SummaryClient{
		baseURL:       baseURL,
		apiToken:      apiToken,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		httpClient:    &http.Client{Timeout: timeout},
		limiter:       ratelimit.New(requestsPerSecond),
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Summarize condenses the text via the hosted summarization model
func (c *SummaryClient) Summarize(ctx context.Context, text string) (string, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	body, err := json.Marshal(inferenceRequest{
		Inputs: c.textProcessor.TruncateBody(text, c.maxBodySize),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal inference request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, c.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr inferenceError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return "", fmt.Errorf("inference error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("inference error: status %d", resp.StatusCode)
	}

	var results []inferenceResult
	if err := json.Unmarshal(respBody, &results); err != nil {
		return "", fmt.Errorf("failed to parse inference response: %w", err)
	}
	if len(results) == 0 || results[0].SummaryText == "" {
		return "", fmt.Errorf("no summary_text in inference response")
	}

	c.logger.Debug("Summary completed",
		zap.String("model", c.modelName),
		zap.Int("summary_length", len(results[0].SummaryText)))

	return results[0].SummaryText, nil
}
