package config

import "time"

// ClassifierConfig selects the classification provider
type ClassifierConfig struct {
	Provider string
}

// GroqConfig represents the configuration for the Groq OpenAI-compatible endpoint
type GroqConfig struct {
	APIKey            string
	BaseURL           string
	ModelName         string
	MaxTokens         int
	Temperature       float32
	MaxBodySize       int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	ModelName         string
	MaxTokens         int
	Temperature       float32
	MaxBodySize       int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region            string
	ModelID           string
	MaxTokens         int
	Temperature       float32
	MaxBodySize       int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey            string
	ModelName         string
	MaxTokens         int
	MaxBodySize       int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// HuggingFaceConfig represents the configuration for the HuggingFace inference API
type HuggingFaceConfig struct {
	APIToken          string
	BaseURL           string
	ModelName         string
	MaxBodySize       int
	Timeout           time.Duration
	RequestsPerSecond float64
}

// AuthConfig represents the token-issuance configuration
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// GetClassifier returns the classifier selection configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
	}
}

// GetGroq returns the Groq configuration
func (c *Config) GetGroq() GroqConfig {
	timeout, _ := c.GetDuration("groq.timeout")
	return GroqConfig{
		APIKey:            c.GetString("groq.api_key"),
		BaseURL:           c.GetString("groq.base_url"),
		ModelName:         c.GetString("groq.model_name"),
		MaxTokens:         c.GetInt("groq.max_tokens"),
		Temperature:       float32(c.GetFloat64("groq.temperature")),
		MaxBodySize:       c.GetInt("groq.max_body_size"),
		Timeout:           timeout,
		RequestsPerSecond: c.GetFloat64("groq.requests_per_second"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	timeout, _ := c.GetDuration("openai.timeout")
	return OpenAIConfig{
		APIKey:            c.GetString("openai.api_key"),
		BaseURL:           c.GetString("openai.base_url"),
		ModelName:         c.GetString("openai.model_name"),
		MaxTokens:         c.GetInt("openai.max_tokens"),
		Temperature:       float32(c.GetFloat64("openai.temperature")),
		MaxBodySize:       c.GetInt("openai.max_body_size"),
		Timeout:           timeout,
		RequestsPerSecond: c.GetFloat64("openai.requests_per_second"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	timeout, _ := c.GetDuration("bedrock.timeout")
	return BedrockConfig{
		Region:            c.GetString("bedrock.region"),
		ModelID:           c.GetString("bedrock.model_id"),
		MaxTokens:         c.GetInt("bedrock.max_tokens"),
		Temperature:       float32(c.GetFloat64("bedrock.temperature")),
		MaxBodySize:       c.GetInt("bedrock.max_body_size"),
		Timeout:           timeout,
		RequestsPerSecond: c.GetFloat64("bedrock.requests_per_second"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	timeout, _ := c.GetDuration("gemini.timeout")
	return GeminiConfig{
		APIKey:            c.GetString("gemini.api_key"),
		ModelName:         c.GetString("gemini.model_name"),
		MaxTokens:         c.GetInt("gemini.max_tokens"),
		MaxBodySize:       c.GetInt("gemini.max_body_size"),
		Timeout:           timeout,
		RequestsPerSecond: c.GetFloat64("gemini.requests_per_second"),
	}
}

// GetHuggingFace returns the HuggingFace configuration
func (c *Config) GetHuggingFace() HuggingFaceConfig {
	timeout, _ := c.GetDuration("huggingface.timeout")
	return HuggingFaceConfig{
		APIToken:          c.GetString("huggingface.api_token"),
		BaseURL:           c.GetString("huggingface.base_url"),
		ModelName:         c.GetString("huggingface.model_name"),
		MaxBodySize:       c.GetInt("huggingface.max_body_size"),
		Timeout:           timeout,
		RequestsPerSecond: c.GetFloat64("huggingface.requests_per_second"),
	}
}

// GetAuth returns the auth configuration
func (c *Config) GetAuth() AuthConfig {
	accessTTL, err := c.GetDuration("auth.access_ttl")
	if err != nil {
		accessTTL = 15 * time.Minute
	}
	refreshTTL, err := c.GetDuration("auth.refresh_ttl")
	if err != nil {
		refreshTTL = 7 * 24 * time.Hour
	}
	return AuthConfig{
		AccessSecret:  c.GetString("auth.access_secret"),
		RefreshSecret: c.GetString("auth.refresh_secret"),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}
}
