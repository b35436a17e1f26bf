package agents

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
)

// ErrNoProvider signals a stage whose external provider is not configured.
// Stage agents treat it like any other provider failure.
var ErrNoProvider = errors.New("provider not configured")

func cacheLookup[T any](ctx context.Context, cache core.StageCache, key string) (*T, bool) {
	data, ok := cache.Get(ctx, key)
	if !ok {
		return nil, false
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, false
	}
	return &value, true
}

func cacheStore(ctx context.Context, cache core.StageCache, logger *zap.Logger, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		logger.Error("Failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := cache.Set(ctx, key, data); err != nil {
		logger.Error("Failed to update cache", zap.String("key", key), zap.Error(err))
	}
}
