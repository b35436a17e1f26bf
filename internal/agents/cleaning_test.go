package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCleaningHappyPath(t *testing.T) {
	provider := &stubCleaningProvider{result: "cleaned body"}
	agent := NewCleaningAgent(provider, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "raw body with noise")

	assert.Equal(t, "cleaned body", result.CleanedText)
	assert.Equal(t, len("raw body with noise"), result.OriginalLength)
	assert.Equal(t, len("cleaned body"), result.CleanedLength)
	assert.False(t, result.Degraded)
}

func TestCleaningEmptyProviderResultKeepsOriginal(t *testing.T) {
	provider := &stubCleaningProvider{result: ""}
	agent := NewCleaningAgent(provider, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "original text")

	assert.Equal(t, "original text", result.CleanedText)
	assert.False(t, result.Degraded)
}

func TestCleaningFallbackTrims(t *testing.T) {
	provider := &stubCleaningProvider{err: errors.New("model unreachable")}
	agent := NewCleaningAgent(provider, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "  padded text \n")

	assert.Equal(t, "padded text", result.CleanedText)
	assert.Equal(t, len("  padded text \n"), result.OriginalLength)
	assert.Equal(t, len("padded text"), result.CleanedLength)
	assert.True(t, result.Degraded)
}

func TestCleaningFallbackWithoutProvider(t *testing.T) {
	agent := NewCleaningAgent(nil, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), " hello ")

	assert.Equal(t, "hello", result.CleanedText)
	assert.True(t, result.Degraded)
}

func TestCleaningServesRepeatFromCache(t *testing.T) {
	provider := &stubCleaningProvider{result: "cleaned"}
	agent := NewCleaningAgent(provider, newStubCache(), zap.NewNop())

	agent.Run(context.Background(), "raw")
	agent.Run(context.Background(), "raw")

	assert.Equal(t, 1, provider.calls)
}
