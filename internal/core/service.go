package core

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// ErrEmptyInput is returned when the submitted payload is empty
var ErrEmptyInput = errors.New("input text is empty")

// AnalysisService wraps the orchestrator with a whole-pipeline cache
// entry. It is the single place a pipeline error can surface: every stage
// agent degrades to its fallback on its own, so an error escaping here
// means a failure in the orchestration glue itself.
type AnalysisService struct {
	orchestrator Orchestrator
	cache        StageCache
	logger       *zap.Logger
	cacheEnabled bool
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	orchestrator Orchestrator,
	cache StageCache,
	logger *zap.Logger,
	cacheEnabled bool,
) *AnalysisService {
	return &AnalysisService{
		orchestrator: orchestrator,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled,
	}
}

// Process runs the full pipeline for the given text, serving identical
// inputs from cache within the TTL window.
func (s *AnalysisService) Process(ctx context.Context, text string) (*AnalysisResult, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	key := CacheKey("orchestrator", text)
	if s.cacheEnabled {
		if data, ok := s.cache.Get(ctx, key); ok {
			var result AnalysisResult
			if err := json.Unmarshal(data, &result); err == nil {
				s.logger.Debug("Pipeline cache hit", zap.String("key", key))
				return &result, nil
			}
			s.logger.Warn("Discarding undecodable pipeline cache entry", zap.String("key", key))
		}
	}

	result, err := s.orchestrator.Run(ctx, text)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, key, data); err != nil {
				s.logger.Error("Failed to cache pipeline result", zap.Error(err))
			}
		}
	}

	return result, nil
}
