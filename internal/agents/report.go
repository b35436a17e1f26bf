package agents

import (
	"fmt"
	"math"
	"strings"

	"github.com/truthline/truthline/internal/core"
)

// AggregateReport combines the classification, extraction and summary
// results into a single risk report. Pure and deterministic: no external
// call, no cache.
//
// The risk score starts from the classification confidence, is floored by
// label severity, then boosted 0.05 per indicator up to 0.2, capped at 1.
func AggregateReport(
	classification *core.ClassificationResult,
	extraction *core.ExtractionResult,
	summary *core.SummaryResult,
) core.ReportResult {
	base := classification.Confidence
	switch classification.Label {
	case core.LabelPhishing, core.LabelDarkPattern:
		base = math.Max(base, 0.8)
	case core.LabelSpam:
		base = math.Max(base, 0.6)
	}

	indicatorBoost := math.Min(float64(len(extraction.Indicators))*0.05, 0.2)
	riskScore := math.Min(1, base+indicatorBoost)

	sections := []core.ReportSection{
		{
			Title:   "Summary",
			Content: summary.Summary,
		},
		{
			Title: "Classification",
			Content: fmt.Sprintf("Label: %s (confidence: %.2f)\nReasons:\n- %s",
				classification.Label,
				classification.Confidence,
				strings.Join(classification.Reasons, "\n- ")),
		},
		{
			// Detected emails are not rendered here; they stay on the
			// extraction result only. Known limitation carried over
			// from the report format this mirrors.
			Title: "Indicators & Entities",
			Content: fmt.Sprintf("Indicators:\n- %s\n\nURLs:\n- %s",
				strings.Join(extraction.Indicators, "\n- "),
				strings.Join(extraction.URLs, "\n- ")),
		},
	}

	return core.ReportResult{
		RiskScore:    riskScore,
		OverallLabel: classification.Label,
		Sections:     sections,
	}
}
