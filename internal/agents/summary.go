package agents

import (
	"context"
	"errors"
	"strings"

	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/utils"
	"go.uber.org/zap"
)

// ErrEmptySummary is returned when the provider replies without usable text
var ErrEmptySummary = errors.New("empty summary from provider")

const summaryStage = "summary"

// summaryFallbackLength is how much of the input the degraded summary keeps
const summaryFallbackLength = 280

// SummaryAgent condenses text through a summarization model, degrading to
// a truncated copy of the input when the provider is unavailable.
type SummaryAgent struct {
	provider core.SummaryProvider
	cache    core.StageCache
	logger   *zap.Logger
}

// NewSummaryAgent creates a new summary agent. A nil provider is valid
// and makes every run take the fallback path.
func NewSummaryAgent(provider core.SummaryProvider, cache core.StageCache, logger *zap.Logger) *SummaryAgent {
	return &SummaryAgent{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Run summarizes the input text, serving identical inputs from cache
// within the TTL window. Failures degrade to the truncated input text.
func (a *SummaryAgent) Run(ctx context.Context, text string) *core.SummaryResult {
	key := core.CacheKey(summaryStage, text)
	if cached, ok := cacheLookup[core.SummaryResult](ctx, a.cache, key); ok {
		return cached
	}

	result, err := a.summarize(ctx, text)
	if err != nil {
		a.logger.Warn("Summary provider failed, using truncated text", zap.Error(err))
		result = &core.SummaryResult{
			Summary:  utils.Truncate(text, summaryFallbackLength),
			Degraded: true,
		}
	}

	cacheStore(ctx, a.cache, a.logger, key, result)
	return result
}

func (a *SummaryAgent) summarize(ctx context.Context, text string) (*core.SummaryResult, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}

	summary, err := a.provider.Summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return nil, ErrEmptySummary
	}

	return &core.SummaryResult{Summary: summary}, nil
}
