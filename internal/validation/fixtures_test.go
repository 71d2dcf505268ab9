package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
)

func writeFixture(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTestCases_Array(t *testing.T) {
	path := writeFixture(t, `[
		{
			"name": "level_33_1080p",
			"resolution": "1920x1080",
			"width": 1920,
			"height": 1080,
			"image": "level_33.png",
			"expected_items": ["Moldy Cheese"],
			"expected_weapons": ["Bow"],
			"expected_tomes": [],
			"expected_character": "CL4NK",
			"annotated_regions": [{"type": "item", "x": 10, "y": 20, "width": 64, "height": 64}]
		},
		{"name": "empty"}
	]`)

	cases, err := LoadTestCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	tc := cases[0]
	assert.Equal(t, "level_33_1080p", tc.Name)
	assert.Equal(t, 1920, tc.Width)
	assert.Equal(t, "level_33.png", tc.Image)
	assert.Equal(t, []string{"Moldy Cheese"}, tc.ExpectedItems)
	assert.Equal(t, "CL4NK", tc.ExpectedCharacter)
	require.Len(t, tc.AnnotatedRegions, 1)
	assert.Equal(t, "item", tc.AnnotatedRegions[0].Type)
	assert.Equal(t, 20, tc.AnnotatedRegions[0].Y)
	assert.Equal(t, 64, tc.AnnotatedRegions[0].Width)
}

func TestLoadTestCases_SingleObject(t *testing.T) {
	path := writeFixture(t, `  {"name": "solo", "expected_items": ["A"]}`)

	cases, err := LoadTestCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "solo", cases[0].Name)
}

func TestLoadTestCases_Errors(t *testing.T) {
	_, err := LoadTestCases(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadTestCases(writeFixture(t, "   "))
	assert.Error(t, err)

	_, err = LoadTestCases(writeFixture(t, `[{"name": 5}]`))
	assert.Error(t, err)
}

func TestValidateSuite(t *testing.T) {
	cases := []TestCase{
		{Name: "pass", ExpectedItems: []string{"A"}},
		{Name: "half", ExpectedItems: []string{"A", "B"}},
	}
	detect := func(tc TestCase) []detection.DetectionResult {
		return []detection.DetectionResult{det(detection.CategoryItem, "A", 0.9)}
	}

	summary := ValidateSuite(cases, DefaultRegionTolerance, detect)

	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Passed)
	assert.InDelta(t, 0.75, summary.MeanAccuracy, 1e-9)
	assert.InDelta(t, 1.0, summary.MeanRegionAccuracy, 1e-9)
	require.Len(t, summary.Cases, 2)
	assert.Equal(t, "half", summary.Cases[1].Name)
	assert.Equal(t, []string{"B"}, summary.Cases[1].Result.Missed.Items)
}

func TestValidateSuite_Empty(t *testing.T) {
	summary := ValidateSuite(nil, DefaultRegionTolerance, nil)

	assert.Equal(t, 0, summary.Total)
	assert.InDelta(t, 1.0, summary.MeanAccuracy, 1e-9)
	assert.Empty(t, summary.Cases)
}
