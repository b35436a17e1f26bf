package core

import (
	"strings"
)

// ContentLabel is the closed set of verdicts the classifier can produce
type ContentLabel string

const (
	LabelPhishing    ContentLabel = "phishing"
	LabelSpam        ContentLabel = "spam"
	LabelDarkPattern ContentLabel = "dark-pattern"
	LabelLegitimate  ContentLabel = "legitimate"
	LabelUnknown     ContentLabel = "unknown"
)

// ParseLabel leniently maps a raw model label onto a ContentLabel.
// Matching is by substring containment in fixed priority order; anything
// unrecognized maps to LabelUnknown.
func ParseLabel(raw string) ContentLabel {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(normalized, "phishing"):
		return LabelPhishing
	case strings.Contains(normalized, "spam"):
		return LabelSpam
	case strings.Contains(normalized, "dark"):
		return LabelDarkPattern
	case strings.Contains(normalized, "legit"):
		return LabelLegitimate
	default:
		return LabelUnknown
	}
}

// CleaningResult is the output of the cleaning stage
type CleaningResult struct {
	CleanedText    string `json:"cleanedText"`
	OriginalLength int    `json:"originalLength"`
	CleanedLength  int    `json:"cleanedLength"`
	Degraded       bool   `json:"degraded"`
}

// ClassificationResult is the output of the classification stage
type ClassificationResult struct {
	Label      ContentLabel `json:"label"`
	Confidence float64      `json:"confidence"`
	Reasons    []string     `json:"reasons"`
	Degraded   bool         `json:"degraded"`
}

// Entity is a single extracted artifact tagged with its kind
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ExtractionResult is the output of the extraction stage
type ExtractionResult struct {
	URLs       []string `json:"urls"`
	Emails     []string `json:"emails"`
	Entities   []Entity `json:"entities"`
	Indicators []string `json:"indicators"`
	Degraded   bool     `json:"degraded"`
}

// SummaryResult is the output of the summary stage
type SummaryResult struct {
	Summary  string `json:"summary"`
	Degraded bool   `json:"degraded"`
}

// ReportSection is one titled block of the rendered report
type ReportSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ReportResult is the aggregated risk report. It is always computed fresh
// from the upstream stage results and never persisted on its own.
type ReportResult struct {
	RiskScore    float64         `json:"riskScore"`
	OverallLabel ContentLabel    `json:"overallLabel"`
	Sections     []ReportSection `json:"sections"`
}

// AnalysisResult is the full pipeline output: the unit cached by the
// analysis service and returned to HTTP callers.
type AnalysisResult struct {
	Cleaning       CleaningResult       `json:"cleaning"`
	Classification ClassificationResult `json:"classification"`
	Extraction     ExtractionResult     `json:"extraction"`
	Summary        SummaryResult        `json:"summary"`
	Report         ReportResult         `json:"report"`
}
