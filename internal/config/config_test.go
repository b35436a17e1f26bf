package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "groq", cfg.GetClassifier().Provider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GetGroq().BaseURL)
	assert.Equal(t, "memory", cfg.GetString("cache.type"))
	assert.True(t, cfg.GetBool("cache.enabled"))

	ttl, err := cfg.GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)
}

func TestAuthDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	authCfg := cfg.GetAuth()
	assert.Equal(t, 15*time.Minute, authCfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, authCfg.RefreshTTL)
}

func TestProviderConfigsCarryTimeouts(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, 30*time.Second, cfg.GetGroq().Timeout)
	assert.Equal(t, 30*time.Second, cfg.GetGemini().Timeout)
	assert.Equal(t, 30*time.Second, cfg.GetHuggingFace().Timeout)
	assert.Equal(t, 30*time.Second, cfg.GetBedrock().Timeout)
}

func TestOverrides(t *testing.T) {
	v := NewEmptyViper()
	v.Set("classifier.provider", "bedrock")
	v.Set("bedrock.model_id", "amazon.titan-text-express-v1")
	cfg := NewFromViper(v)

	assert.Equal(t, "bedrock", cfg.GetClassifier().Provider)
	assert.Equal(t, "amazon.titan-text-express-v1", cfg.GetBedrock().ModelID)
}
