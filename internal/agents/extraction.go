package agents

import (
	"context"
	"regexp"
	"strings"

	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
)

const extractionStage = "extraction"

// Extraction is deliberately local and regex-based; it makes no network
// call and cannot degrade.
var (
	urlPattern   = regexp.MustCompile(`(?i)\bhttps?://[^\s/$.?#][^\s"]*`)
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
)

// ExtractionAgent pulls URLs, email addresses and heuristic indicators
// out of cleaned text.
type ExtractionAgent struct {
	cache  core.StageCache
	logger *zap.Logger
}

// NewExtractionAgent creates a new extraction agent
func NewExtractionAgent(cache core.StageCache, logger *zap.Logger) *ExtractionAgent {
	return &ExtractionAgent{
		cache:  cache,
		logger: logger,
	}
}

// Run extracts artifacts from the input text, serving identical inputs
// from cache within the TTL window.
func (a *ExtractionAgent) Run(ctx context.Context, text string) *core.ExtractionResult {
	key := core.CacheKey(extractionStage, text)
	if cached, ok := cacheLookup[core.ExtractionResult](ctx, a.cache, key); ok {
		return cached
	}

	urls := urlPattern.FindAllString(text, -1)
	if urls == nil {
		urls = []string{}
	}
	emails := emailPattern.FindAllString(text, -1)
	if emails == nil {
		emails = []string{}
	}

	// Every match becomes one entity, URLs first, duplicates kept
	entities := make([]core.Entity, 0, len(urls)+len(emails))
	for _, u := range urls {
		entities = append(entities, core.Entity{Type: "url", Value: u})
	}
	for _, e := range emails {
		entities = append(entities, core.Entity{Type: "email", Value: e})
	}

	// Independent substring checks, fixed order
	indicators := []string{}
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "password") {
		indicators = append(indicators, "Mentions password")
	}
	if strings.Contains(lowered, "bank") {
		indicators = append(indicators, "Mentions bank")
	}
	if strings.Contains(lowered, "urgent") {
		indicators = append(indicators, "Uses urgency language")
	}

	result := &core.ExtractionResult{
		URLs:       urls,
		Emails:     emails,
		Entities:   entities,
		Indicators: indicators,
	}

	cacheStore(ctx, a.cache, a.logger, key, result)
	return result
}
