package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeClassification parses a model chat response into a
// ClassificationResult. Parsing is tolerant of partially-valid payloads:
// the label is matched leniently, a non-numeric confidence defaults to
// 0.6 and a non-array reasons field defaults to empty. A response that is
// not JSON at all, even after extracting an embedded object, is an error.
func DecodeClassification(responseText string) (*ClassificationResult, error) {
	var raw struct {
		Label      string          `json:"label"`
		Confidence json.RawMessage `json:"confidence"`
		Reasons    json.RawMessage `json:"reasons"`
	}

	if err := json.Unmarshal([]byte(responseText), &raw); err != nil {
		// Models sometimes wrap the object in prose; retry on the
		// outermost brace span.
		start := strings.Index(responseText, "{")
		end := strings.LastIndex(responseText, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("failed to extract JSON from model response: %w", err)
		}
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse model response as JSON: %w", err)
		}
	}

	result := &ClassificationResult{
		Label:      ParseLabel(raw.Label),
		Confidence: 0.6,
		Reasons:    []string{},
	}

	if len(raw.Confidence) > 0 {
		var confidence float64
		if err := json.Unmarshal(raw.Confidence, &confidence); err == nil {
			result.Confidence = confidence
		}
	}
	if len(raw.Reasons) > 0 {
		var reasons []string
		if err := json.Unmarshal(raw.Reasons, &reasons); err == nil && reasons != nil {
			result.Reasons = reasons
		}
	}

	return result, nil
}
