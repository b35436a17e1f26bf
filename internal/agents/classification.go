package agents

import (
	"context"

	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
)

const classificationStage = "classification"

// fallbackReason is the single reason attached to a degraded verdict
const fallbackReason = "Model unavailable; using heuristic fallback."

// ClassificationAgent labels text through a chat model, degrading to a
// conservative unknown verdict when the provider is unavailable.
type ClassificationAgent struct {
	provider core.ClassificationProvider
	cache    core.StageCache
	logger   *zap.Logger
}

// NewClassificationAgent creates a new classification agent. A nil
// provider is valid and makes every run take the fallback path.
func NewClassificationAgent(provider core.ClassificationProvider, cache core.StageCache, logger *zap.Logger) *ClassificationAgent {
	return &ClassificationAgent{
		provider: provider,
		cache:    cache,
		logger:   logger,
	}
}

// Run classifies the input text, serving identical inputs from cache
// within the TTL window. Provider and parse failures degrade to a fixed
// unknown verdict instead of propagating.
func (a *ClassificationAgent) Run(ctx context.Context, text string) *core.ClassificationResult {
	key := core.CacheKey(classificationStage, text)
	if cached, ok := cacheLookup[core.ClassificationResult](ctx, a.cache, key); ok {
		return cached
	}

	result, err := a.classify(ctx, text)
	if err != nil {
		a.logger.Warn("Classification provider failed, using fallback", zap.Error(err))
		result = &core.ClassificationResult{
			Label:      core.LabelUnknown,
			Confidence: 0.3,
			Reasons:    []string{fallbackReason},
			Degraded:   true,
		}
	}

	cacheStore(ctx, a.cache, a.logger, key, result)
	return result
}

func (a *ClassificationAgent) classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	if a.provider == nil {
		return nil, ErrNoProvider
	}

	result, err := a.provider.Classify(ctx, text)
	if err != nil {
		return nil, err
	}
	if result.Reasons == nil {
		result.Reasons = []string{}
	}
	return result, nil
}
