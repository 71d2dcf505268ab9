package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
)

// LoadTestCases reads fixtures from a JSON file holding either a single
// TestCase object or an array of them.
func LoadTestCases(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("fixture file %s is empty", path)
	}

	if trimmed[0] == '{' {
		var tc TestCase
		if err := json.Unmarshal(trimmed, &tc); err != nil {
			return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
		}
		return []TestCase{tc}, nil
	}

	var cases []TestCase
	if err := json.Unmarshal(trimmed, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures %s: %w", path, err)
	}
	return cases, nil
}

// CaseResult pairs a fixture name with its validation result.
type CaseResult struct {
	Name   string `json:"name"`
	Result Result `json:"result"`
}

// SuiteSummary aggregates validation over several fixtures.
type SuiteSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`

	// MeanAccuracy is the mean overall accuracy across cases, 1 for an
	// empty suite.
	MeanAccuracy       float64 `json:"mean_accuracy"`
	MeanRegionAccuracy float64 `json:"mean_region_accuracy"`

	Cases []CaseResult `json:"cases"`
}

// ValidateSuite runs detect on every case and validates its output.
func ValidateSuite(cases []TestCase, tolerance float64, detect func(TestCase) []detection.DetectionResult) SuiteSummary {
	summary := SuiteSummary{
		Total:              len(cases),
		MeanAccuracy:       1,
		MeanRegionAccuracy: 1,
		Cases:              make([]CaseResult, 0, len(cases)),
	}
	if len(cases) == 0 {
		return summary
	}

	overall := make([]float64, 0, len(cases))
	regions := make([]float64, 0, len(cases))
	for _, tc := range cases {
		res := ValidateWithTolerance(detect(tc), tc, tolerance)
		if res.Passed {
			summary.Passed++
		}
		overall = append(overall, res.Accuracy.Overall)
		regions = append(regions, res.RegionAccuracy)
		summary.Cases = append(summary.Cases, CaseResult{Name: tc.Name, Result: res})
	}

	summary.MeanAccuracy = stat.Mean(overall, nil)
	summary.MeanRegionAccuracy = stat.Mean(regions, nil)
	return summary
}
