package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/truthline/truthline/internal/ratelimit"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
)

// CleaningClient is an implementation of the CleaningProvider interface
// using Google Gemini
type CleaningClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	timeout       time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewCleaningClient creates a new Gemini cleaning client
func NewCleaningClient(
	apiKey string,
	modelName string,
	maxTokens int,
	maxBodySize int,
	timeout time.Duration,
	requestsPerSecond float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*CleaningClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &CleaningClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		timeout:       timeout,
		limiter:       ratelimit.New(requestsPerSecond),
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat: `Clean and normalize the following text for security analysis.
- Remove obvious signatures, greetings, and repeated whitespace.
- Keep URLs and email addresses.
- Return ONLY the cleaned text, no explanations.

Text:
%s`,
	}, nil
}

// Close closes the Gemini client
func (c *CleaningClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Clean asks the model to normalize the text, returning the cleaned text
func (c *CleaningClient) Clean(ctx context.Context, text string) (string, error) {
	if err := ratelimit.Wait(ctx, c.limiter); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(c.promptFormat, c.textProcessor.TruncateBody(text, c.maxBodySize))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	cleaned := strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
	return cleaned, nil
}
