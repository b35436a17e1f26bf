package factory

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/truthline/truthline/internal/adapters/bedrock"
	"github.com/truthline/truthline/internal/adapters/gemini"
	"github.com/truthline/truthline/internal/adapters/huggingface"
	"github.com/truthline/truthline/internal/adapters/openai"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
)

// ProviderFactory creates the stage providers from configuration.
// Missing credentials are a handled condition, not a startup failure: the
// stage is constructed without a provider and serves its fallback.
type ProviderFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ProviderFactory {
	return &ProviderFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateCleaningProvider creates the Gemini cleaning provider, or nil
// when it cannot be configured
func (f *ProviderFactory) CreateCleaningProvider() core.CleaningProvider {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		f.logger.Warn("Gemini API key missing; cleaning stage will use its local fallback")
		return nil
	}

	client, err := gemini.NewCleaningClient(
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.MaxBodySize,
		geminiCfg.Timeout,
		geminiCfg.RequestsPerSecond,
		f.logger,
		f.textProcessor,
	)
	if err != nil {
		f.logger.Error("Failed to create Gemini client; cleaning stage will use its local fallback", zap.Error(err))
		return nil
	}
	return client
}

// CreateClassificationProvider creates the configured classification
// provider, or nil when it cannot be configured
func (f *ProviderFactory) CreateClassificationProvider() core.ClassificationProvider {
	provider := f.cfg.GetClassifier().Provider

	switch provider {
	case "groq":
		groqCfg := f.cfg.GetGroq()
		if groqCfg.APIKey == "" {
			f.logger.Warn("Groq API key missing; classification stage will use its fallback verdict")
			return nil
		}
		return openai.NewClassificationClient(
			groqCfg.APIKey,
			groqCfg.BaseURL,
			groqCfg.ModelName,
			groqCfg.MaxTokens,
			groqCfg.Temperature,
			groqCfg.MaxBodySize,
			groqCfg.Timeout,
			groqCfg.RequestsPerSecond,
			f.logger,
			f.textProcessor,
		)
	case "openai":
		openaiCfg := f.cfg.GetOpenAI()
		if openaiCfg.APIKey == "" {
			f.logger.Warn("OpenAI API key missing; classification stage will use its fallback verdict")
			return nil
		}
		return openai.NewClassificationClient(
			openaiCfg.APIKey,
			openaiCfg.BaseURL,
			openaiCfg.ModelName,
			openaiCfg.MaxTokens,
			openaiCfg.Temperature,
			openaiCfg.MaxBodySize,
			openaiCfg.Timeout,
			openaiCfg.RequestsPerSecond,
			f.logger,
			f.textProcessor,
		)
	case "bedrock":
		bedrockCfg := f.cfg.GetBedrock()
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(bedrockCfg.Region))
		if err != nil {
			f.logger.Error("Failed to load AWS configuration; classification stage will use its fallback verdict", zap.Error(err))
			return nil
		}
		return bedrock.NewClassificationClient(
			bedrockruntime.NewFromConfig(awsCfg),
			bedrockCfg.ModelID,
			bedrockCfg.MaxTokens,
			bedrockCfg.Temperature,
			bedrockCfg.MaxBodySize,
			bedrockCfg.Timeout,
			bedrockCfg.RequestsPerSecond,
			f.logger,
			f.textProcessor,
		)
	default:
		f.logger.Error("Unsupported classification provider; classification stage will use its fallback verdict",
			zap.String("provider", provider))
		return nil
	}
}

// CreateSummaryProvider creates the HuggingFace summary provider, or nil
// when it cannot be configured
func (f *ProviderFactory) CreateSummaryProvider() core.SummaryProvider {
	hfCfg := f.cfg.GetHuggingFace()
	if hfCfg.APIToken == "" {
		f.logger.Warn("HuggingFace API token missing; summary stage will use truncated text")
		return nil
	}

	return huggingface.NewSummaryClient(
		hfCfg.BaseURL,
		hfCfg.APIToken,
		hfCfg.ModelName,
		hfCfg.MaxBodySize,
		hfCfg.Timeout,
		hfCfg.RequestsPerSecond,
		f.logger,
		f.textProcessor,
	)
}
