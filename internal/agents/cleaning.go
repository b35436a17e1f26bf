package agents

import (
	"context"
	"strings"

	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
)

const cleaningStage = "cleaning"

// CleaningAgent normalizes raw text through a generation model, degrading
// to a local trim when the provider is unavailable.
type CleaningAgent struct {
	provider core.CleaningProvider
	cache    core.StageCache
	logger   *zap.Logger
}

// NewCleaningAgent creates a new cleaning agent. A nil provider is valid
// and makes every run take the fallback path.
func NewCleaningAgent(provider core.CleaningProvider, cache core.StageCache, logger *zap.Logger) *CleaningAgent {
	return &CleaningAgent{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Run cleans the input text, serving identical inputs from cache within
// the TTL window. Errors never propagate; the fallback result is cached
// under the same key so repeated failures short-circuit too.
func (a *CleaningAgent) Run(ctx context.Context, text string) *core.CleaningResult {
	key := core.CacheKey(cleaningStage, text)
	if cached, ok := cacheLookup[core.CleaningResult](ctx, a.cache, key); ok {
		return cached
	}

	result, err := a.clean(ctx, text)
	if err != nil {
		a.logger.Warn("Cleaning provider failed, using local fallback", zap.Error(err))
		trimmed := strings.TrimSpace(text)
		result = &core.CleaningResult{
			CleanedText:    trimmed,
			OriginalLength: len(text),
			CleanedLength:  len(trimmed),
			Degraded:       true,
		}
	}

	cacheStore(ctx, a.cache, a.logger, key, result)
	return result
}

func (a *CleaningAgent) clean(ctx context.Context, text string) (*core.CleaningResult, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}

	cleaned, err := a.provider.Clean(ctx, text)
	if err != nil {
		return nil, err
	}

	// Never produce an empty cleaning result; keep the original text
	// when the model returns nothing.
	if cleaned == "" {
		cleaned = text
	}

	return &core.CleaningResult{
		CleanedText:    cleaned,
		OriginalLength: len(text),
		CleanedLength:  len(cleaned),
	}, nil
}
