package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truthline/truthline/internal/core"
)

func reportInputs(label core.ContentLabel, confidence float64, indicators []string) (*core.ClassificationResult, *core.ExtractionResult, *core.SummaryResult) {
	return &core.ClassificationResult{
			Label:      label,
			Confidence: confidence,
			Reasons:    []string{"reason one"},
		}, &core.ExtractionResult{
			URLs:       []string{"https://example.com/x"},
			Emails:     []string{"test@example.com"},
			Entities:   []core.Entity{},
			Indicators: indicators,
		}, &core.SummaryResult{Summary: "the summary"}
}

func TestReportLabelFloors(t *testing.T) {
	tests := []struct {
		label    core.ContentLabel
		expected float64
	}{
		{core.LabelPhishing, 0.8},
		{core.LabelDarkPattern, 0.8},
		{core.LabelSpam, 0.6},
		{core.LabelLegitimate, 0.1},
		{core.LabelUnknown, 0.1},
	}

	for _, tt := range tests {
		t.Run(string(tt.label), func(t *testing.T) {
			classification, extraction, summary := reportInputs(tt.label, 0.1, []string{})
			report := AggregateReport(classification, extraction, summary)
			assert.InDelta(t, tt.expected, report.RiskScore, 1e-9)
			assert.Equal(t, tt.label, report.OverallLabel)
		})
	}
}

func TestReportHighConfidenceAboveFloor(t *testing.T) {
	classification, extraction, summary := reportInputs(core.LabelPhishing, 0.95, []string{})
	report := AggregateReport(classification, extraction, summary)
	assert.InDelta(t, 0.95, report.RiskScore, 1e-9)
}

func TestReportIndicatorBoost(t *testing.T) {
	classification, extraction, summary := reportInputs(core.LabelUnknown, 0.3, []string{"Mentions password", "Uses urgency language"})
	report := AggregateReport(classification, extraction, summary)
	assert.InDelta(t, 0.4, report.RiskScore, 1e-9)
}

func TestReportIndicatorBoostCapped(t *testing.T) {
	many := []string{"a", "b", "c", "d", "e", "f", "g"}
	classification, extraction, summary := reportInputs(core.LabelUnknown, 0.3, many)
	report := AggregateReport(classification, extraction, summary)
	// Seven indicators would add 0.35 uncapped; the boost stops at 0.2
	assert.InDelta(t, 0.5, report.RiskScore, 1e-9)
}

func TestReportScoreNeverExceedsOne(t *testing.T) {
	classification, extraction, summary := reportInputs(core.LabelPhishing, 0.99, []string{"a", "b", "c", "d"})
	report := AggregateReport(classification, extraction, summary)
	assert.True(t, report.RiskScore <= 1)
	assert.InDelta(t, 1.0, report.RiskScore, 1e-9)
}

func TestReportMoreIndicatorsNeverLowerScore(t *testing.T) {
	indicators := []string{}
	previous := 0.0
	for i := 0; i < 6; i++ {
		classification, extraction, summary := reportInputs(core.LabelSpam, 0.6, indicators)
		report := AggregateReport(classification, extraction, summary)
		assert.GreaterOrEqual(t, report.RiskScore+1e-9, previous)
		previous = report.RiskScore
		indicators = append(indicators, "indicator")
	}
	assert.InDelta(t, 0.8, previous, 1e-9)
}

func TestReportSections(t *testing.T) {
	classification, extraction, summary := reportInputs(core.LabelPhishing, 0.9, []string{"Mentions password"})
	report := AggregateReport(classification, extraction, summary)

	require.Len(t, report.Sections, 3)

	assert.Equal(t, "Summary", report.Sections[0].Title)
	assert.Equal(t, "the summary", report.Sections[0].Content)

	assert.Equal(t, "Classification", report.Sections[1].Title)
	assert.Contains(t, report.Sections[1].Content, "Label: phishing (confidence: 0.90)")
	assert.Contains(t, report.Sections[1].Content, "- reason one")

	assert.Equal(t, "Indicators & Entities", report.Sections[2].Title)
	assert.Contains(t, report.Sections[2].Content, "- Mentions password")
	assert.Contains(t, report.Sections[2].Content, "- https://example.com/x")
	// Extracted emails stay on the extraction result and are not rendered
	assert.NotContains(t, report.Sections[2].Content, "test@example.com")
}
