package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSummaryHappyPath(t *testing.T) {
	provider := &stubSummaryProvider{result: "a short summary"}
	agent := NewSummaryAgent(provider, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "a much longer body of text")

	assert.Equal(t, "a short summary", result.Summary)
	assert.False(t, result.Degraded)
}

func TestSummaryFallbackTruncatesAt280(t *testing.T) {
	provider := &stubSummaryProvider{err: errors.New("model unreachable")}
	agent := NewSummaryAgent(provider, newStubCache(), zap.NewNop())

	long := strings.Repeat("a", 500)
	result := agent.Run(context.Background(), long)

	assert.Equal(t, strings.Repeat("a", 280), result.Summary)
	assert.True(t, result.Degraded)
}

func TestSummaryFallbackCountsCharacters(t *testing.T) {
	agent := NewSummaryAgent(nil, newStubCache(), zap.NewNop())

	long := strings.Repeat("é", 300)
	result := agent.Run(context.Background(), long)

	// The 280 limit is characters, so multi-byte input keeps 280 whole runes
	assert.Equal(t, strings.Repeat("é", 280), result.Summary)
	assert.True(t, result.Degraded)
}

func TestSummaryFallbackKeepsShortInputWhole(t *testing.T) {
	agent := NewSummaryAgent(nil, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "short input")

	// No ellipsis or truncation marker on the degraded path
	assert.Equal(t, "short input", result.Summary)
	assert.True(t, result.Degraded)
}

func TestSummaryBlankProviderResultFallsBack(t *testing.T) {
	provider := &stubSummaryProvider{result: "   "}
	agent := NewSummaryAgent(provider, newStubCache(), zap.NewNop())

	result := agent.Run(context.Background(), "the input text")

	assert.Equal(t, "the input text", result.Summary)
	assert.True(t, result.Degraded)
}

func TestSummaryServesRepeatFromCache(t *testing.T) {
	provider := &stubSummaryProvider{result: "summary"}
	agent := NewSummaryAgent(provider, newStubCache(), zap.NewNop())

	agent.Run(context.Background(), "text")
	agent.Run(context.Background(), "text")

	assert.Equal(t, 1, provider.calls)
}
