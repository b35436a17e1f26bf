package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/agents"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/factory"
	"github.com/truthline/truthline/internal/logging"
	"github.com/truthline/truthline/internal/utils"
)

var (
	// Classification provider flags
	classifier  = flag.String("classifier", "groq", "Classification provider (groq, openai, bedrock)")
	maxTokens   = flag.Int("max-tokens", 1000, "Maximum tokens for model responses")
	temperature = flag.Float64("temperature", 0.2, "Temperature for model generation")
	maxBodySize = flag.Int("max-body-size", 4096, "Maximum text size to send to a model")

	// Groq flags
	groqAPIKey = flag.String("groq-api-key", "", "API key for Groq")
	groqModel  = flag.String("groq-model", "llama-3.1-70b-versatile", "Groq model name")

	// OpenAI flags
	openaiAPIKey = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModel  = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-v2", "Bedrock model ID")

	// Gemini flags (cleaning stage)
	geminiAPIKey = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModel  = flag.String("gemini-model", "gemini-1.5-flash", "Gemini model name")

	// HuggingFace flags (summary stage)
	hfAPIToken = flag.String("hf-api-token", "", "API token for the HuggingFace inference API")
	hfModel    = flag.String("hf-model", "sshleifer/distilbart-cnn-12-6", "HuggingFace summarization model")

	// Input flags
	inputFile  = flag.String("file", "", "Input text file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	var cfg *config.Config
	var err error

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	if *configFile != "" {
		cfg, err = config.New()
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Build the pipeline without the container; a one-shot run has no
	// lifecycle to manage beyond Close below
	textProcessor := factory.NewTextProcessorFactory(logger).CreateTextProcessor()
	providerFactory := factory.NewProviderFactory(cfg, logger, textProcessor)
	cacheFactory := factory.NewCacheFactory(cfg, logger)

	stageCache, err := cacheFactory.CreateStageCache()
	if err != nil {
		logger.Fatal("Failed to create stage cache", zap.Error(err))
	}

	cleaningProvider := providerFactory.CreateCleaningProvider()
	classificationProvider := providerFactory.CreateClassificationProvider()
	summaryProvider := providerFactory.CreateSummaryProvider()

	orchestrator := agents.NewOrchestrator(
		agents.NewCleaningAgent(cleaningProvider, stageCache, logger),
		agents.NewClassificationAgent(classificationProvider, stageCache, logger),
		agents.NewExtractionAgent(stageCache, logger),
		agents.NewSummaryAgent(summaryProvider, stageCache, logger),
		logger,
	)
	service := core.NewAnalysisService(orchestrator, stageCache, logger, cacheFactory.IsCacheEnabled())

	// Read text from file or stdin
	var reader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		reader = file
		logger.Info("Reading text from file", zap.String("file", *inputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading text from stdin")
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}

	result, err := service.Process(context.Background(), utils.Normalize(string(raw)))
	if err != nil {
		logger.Fatal("Failed to analyze text", zap.Error(err))
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode result", zap.Error(err))
	}
	fmt.Println(string(output))

	// Close any resources that need closing
	if closer, ok := cleaningProvider.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close cleaning provider", zap.Error(err))
		}
	}
	if stopper, ok := stageCache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("classifier.provider", *classifier)

	switch *classifier {
	case "groq":
		v.Set("groq.api_key", *groqAPIKey)
		v.Set("groq.model_name", *groqModel)
		v.Set("groq.max_tokens", *maxTokens)
		v.Set("groq.temperature", *temperature)
		v.Set("groq.max_body_size", *maxBodySize)
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModel)
		v.Set("openai.max_tokens", *maxTokens)
		v.Set("openai.temperature", *temperature)
		v.Set("openai.max_body_size", *maxBodySize)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
		v.Set("bedrock.max_tokens", *maxTokens)
		v.Set("bedrock.temperature", *temperature)
		v.Set("bedrock.max_body_size", *maxBodySize)
	}

	v.Set("gemini.api_key", *geminiAPIKey)
	v.Set("gemini.model_name", *geminiModel)
	v.Set("gemini.max_tokens", *maxTokens)
	v.Set("gemini.max_body_size", *maxBodySize)

	v.Set("huggingface.api_token", *hfAPIToken)
	v.Set("huggingface.model_name", *hfModel)

	// One-shot runs keep the cache in memory
	v.Set("cache.type", "memory")
	v.Set("cache.enabled", true)
	v.Set("cache.ttl", "5m")
	v.Set("cache.cleanup_frequency", "0s")

	return config.NewFromViper(v)
}
