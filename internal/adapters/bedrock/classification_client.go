package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/ratelimit"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClassificationClient is an implementation of the ClassificationProvider
// interface using Amazon Bedrock
type ClassificationClient struct {
	client        *bedrockruntime.Client
	modelID       string
	maxTokens     int
	temperature   float32
	maxBodySize   int
	timeout       time.Duration
	limiter       *rate.Limiter
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// NewClassificationClient creates a new Bedrock classification client
func NewClassificationClient(
	client *bedrockruntime.Client,
	modelID string,
	maxTokens int,
	temperature float32,
	maxBodySize int,
	timeout time.Duration,
	requestsPerSecond float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *ClassificationClient {
	return &ClassificationClient{
		client:        client,
		modelID:       modelID,
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
%s

Respond only with the JSON object and nothing else.`,
	}
}

// Classify labels the text via a Bedrock model invocation
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

	// Request body format depends on the model family
	var payload []byte
	var err error
	if c.isAnthropicModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":               fmt.Sprintf("\n\nHuman: %s\n\nAssistant:", prompt),
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
		})
	} else if c.isAmazonTitanModel() {
		payload, err = json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
			},
		})
	} else {
		payload, err = json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	responseText, err := c.extractResponseText(resp.Body)
	if err != nil {
		return nil, err
	}

	result, err := core.DecodeClassification(responseText)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Classification completed",
		zap.String("model", c.modelID),
		zap.String("label", string(result.Label)),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// extractResponseText pulls the generated text out of the model-specific
// response envelope
func (c *ClassificationClient) extractResponseText(body []byte) (string, error) {
	if c.isAnthropicModel() {
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil
	}

	if c.isAmazonTitanModel() {
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil
	}

	var genericResp struct {
		Output   string `json:"output"`
		Text     string `json:"text"`
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &genericResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
	}
	switch {
	case genericResp.Output != "":
		return genericResp.Output, nil
	case genericResp.Text != "":
		return genericResp.Text, nil
	case genericResp.Response != "":
		return genericResp.Response, nil
	default:
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *ClassificationClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *ClassificationClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
