package agents

import (
	"context"

	"github.com/truthline/truthline/internal/core"
)

type stubCache struct {
	entries map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, ok := c.entries[key]
	return value, ok
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte) error {
	c.entries[key] = value
	return nil
}

type stubCleaningProvider struct {
	calls  int
	result string
	err    error
}

func (p *stubCleaningProvider) Clean(ctx context.Context, text string) (string, error) {
	p.calls++
	return p.result, p.err
}

type stubClassificationProvider struct {
	calls  int
	result *core.ClassificationResult
	err    error
}

func (p *stubClassificationProvider) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type stubSummaryProvider struct {
	calls  int
	result string
	err    error
}

func (p *stubSummaryProvider) Summarize(ctx context.Context, text string) (string, error) {
	p.calls++
	return p.result, p.err
}
