package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/ratelimit"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClassificationClient is an implementation of the ClassificationProvider
// interface for any OpenAI-compatible chat completion endpoint (OpenAI
// itself, or Groq via its compatibility base URL).
type ClassificationClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	timeout       time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewClassificationClient creates a new chat-completion classification
// client. baseURL is optional; when empty the default OpenAI endpoint is
// used.
func NewClassificationClient(
	apiKey string,
	baseURL string,
	modelName string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	timeout time.Duration,
	requestsPerSecond float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ClassificationClient {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	return &ClassificationClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		maxBodySize:   maxBodySize,
		timeout:       timeout,
		limiter:       ratelimit.New(requestsPerSecond),
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Classify the following content into one of:
- phishing
- spam
- dark-pattern
- legitimate

Respond in JSON with:
{ "label": "...", "confidence": 0-1, "reasons": ["..."] }

Content:
%s`,
	}
}

// Classify labels the text via a chat completion call
func (c *ClassificationClient) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(c.promptFormat, c.textProcessor.TruncateBody(text, c.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	result, err := core.DecodeClassification(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Classification completed",
		zap.String("model", c.modelName),
		zap.String("label", string(result.Label)),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}
