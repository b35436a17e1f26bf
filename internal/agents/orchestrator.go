package agents

import (
	"context"

	"github.com/truthline/truthline/internal/core"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Orchestrator sequences the stage agents: cleaning first, then
// classification, extraction and summary fanned out over the cleaned
// text, then report aggregation. Implements core.Orchestrator.
type Orchestrator struct {
	cleaning       *CleaningAgent
	classification *ClassificationAgent
	extraction     *ExtractionAgent
	summary        *SummaryAgent
	logger         *zap.Logger
}

// NewOrchestrator creates a new pipeline orchestrator
func NewOrchestrator(
	cleaning *CleaningAgent,
	classification *ClassificationAgent,
	extraction *ExtractionAgent,
	summary *SummaryAgent,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cleaning:       cleaning,
		classification: classification,
		extraction:     extraction,
		summary:        summary,
		logger:         logger,
	}
}

// Run executes the full pipeline for one input. The middle stages share
// no mutable state beyond the concurrency-safe cache and only read the
// cleaned text, so they run concurrently; assembly is deterministic.
// Stage agents swallow their own failures, so Run itself cannot fail
// short of a programming error in the glue.
func (o *Orchestrator) Run(ctx context.Context, text string) (*core.AnalysisResult, error) {
	cleaning := o.cleaning.Run(ctx, text)

	var (
		classification *core.ClassificationResult
		extraction     *core.ExtractionResult
		summary        *core.SummaryResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		classification = o.classification.Run(gctx, cleaning.CleanedText)
		return nil
	})
	g.Go(func() error {
		extraction = o.extraction.Run(gctx, cleaning.CleanedText)
		return nil
	})
	g.Go(func() error {
		summary = o.summary.Run(gctx, cleaning.CleanedText)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := AggregateReport(classification, extraction, summary)

	o.logger.Debug("Pipeline run complete",
		zap.String("label", string(report.OverallLabel)),
		zap.Float64("risk_score", report.RiskScore),
		zap.Bool("cleaning_degraded", cleaning.Degraded),
		zap.Bool("classification_degraded", classification.Degraded),
		zap.Bool("summary_degraded", summary.Degraded))

	return &core.AnalysisResult{
		Cleaning:       *cleaning,
		Classification: *classification,
		Extraction:     *extraction,
		Summary:        *summary,
		Report:         report,
	}, nil
}
