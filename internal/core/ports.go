package core

import (
	"context"
)

// StageCache defines the interface for the per-stage result cache.
// Get returns the stored bytes and true only for a live entry; expired
// entries are discarded on lookup. Set always overwrites.
type StageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// CleaningProvider normalizes raw text via an external generation model
type CleaningProvider interface {
	Clean(ctx context.Context, text string) (string, error)
}

// ClassificationProvider labels text via an external chat model
type ClassificationProvider interface {
	Classify(ctx context.Context, text string) (*ClassificationResult, error)
}

// SummaryProvider condenses text via an external summarization model
type SummaryProvider interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Orchestrator runs the full stage pipeline for one input
type Orchestrator interface {
	Run(ctx context.Context, text string) (*AnalysisResult, error)
}
