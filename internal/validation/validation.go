package validation

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// DefaultRegionTolerance is how far, in pixels, a detected position's
// top-left corner may lie from an annotated one and still count as a match.
const DefaultRegionTolerance = 50.0

// TestCase is a ground-truth fixture for one screenshot.
type TestCase struct {
	Name       string `json:"name"`
	Resolution string `json:"resolution"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`

	// Image is the screenshot path, relative to the fixture file.
	Image string `json:"image,omitempty"`

	ExpectedItems     []string `json:"expected_items"`
	ExpectedWeapons   []string `json:"expected_weapons"`
	ExpectedTomes     []string `json:"expected_tomes"`
	ExpectedCharacter string   `json:"expected_character,omitempty"`

	AnnotatedRegions []AnnotatedRegion `json:"annotated_regions,omitempty"`
}

// AnnotatedRegion marks where an entity of the given type is on screen.
// Type is a category name such as "item" or "weapons".
type AnnotatedRegion struct {
	Type string `json:"type"`
	imaging.Region
}

// Names holds entity names per category.
type Names struct {
	Items     []string `json:"items"`
	Weapons   []string `json:"weapons"`
	Tomes     []string `json:"tomes"`
	Character string   `json:"character,omitempty"`
}

// Empty reports whether no names are set in any category.
func (n Names) Empty() bool {
	return len(n.Items) == 0 && len(n.Weapons) == 0 && len(n.Tomes) == 0 && n.Character == ""
}

// Accuracy holds per-category accuracies and their mean.
type Accuracy struct {
	Items     float64 `json:"items"`
	Weapons   float64 `json:"weapons"`
	Tomes     float64 `json:"tomes"`
	Character float64 `json:"character"`
	Overall   float64 `json:"overall"`
}

// Result is the outcome of checking one set of detections against a TestCase.
type Result struct {
	Matched        Names    `json:"matched"`
	Missed         Names    `json:"missed"`
	FalsePositives Names    `json:"false_positives"`
	Accuracy       Accuracy `json:"accuracy"`
	RegionAccuracy float64  `json:"region_accuracy"`
	Passed         bool     `json:"passed"`
}

// Validate checks results against tc using DefaultRegionTolerance.
func Validate(results []detection.DetectionResult, tc TestCase) Result {
	return ValidateWithTolerance(results, tc, DefaultRegionTolerance)
}

// ValidateWithTolerance checks results against tc.
//
// Names are compared case-insensitively with set semantics: repeated names on
// either side count once. Accuracy for a category is matched/expected, or 1
// when nothing was expected. Overall is the mean over the categories that
// expected something, or 1 when none did. The character is single-valued;
// if several characters were detected the most confident one is used.
// Detections in unknown categories are ignored.
func ValidateWithTolerance(results []detection.DetectionResult, tc TestCase, tolerance float64) Result {
	detected := map[detection.Category][]string{}
	var character *detection.DetectionResult
	for i := range results {
		r := &results[i]
		name := entityName(*r)
		if name == "" {
			continue
		}
		switch r.Category {
		case detection.CategoryItem, detection.CategoryWeapon, detection.CategoryTome:
			detected[r.Category] = append(detected[r.Category], name)
		case detection.CategoryCharacter:
			if character == nil || r.Confidence > character.Confidence {
				character = r
			}
		}
	}

	var res Result
	var defined []float64

	res.Matched.Items, res.Missed.Items, res.FalsePositives.Items, res.Accuracy.Items =
		compareSet(tc.ExpectedItems, detected[detection.CategoryItem])
	res.Matched.Weapons, res.Missed.Weapons, res.FalsePositives.Weapons, res.Accuracy.Weapons =
		compareSet(tc.ExpectedWeapons, detected[detection.CategoryWeapon])
	res.Matched.Tomes, res.Missed.Tomes, res.FalsePositives.Tomes, res.Accuracy.Tomes =
		compareSet(tc.ExpectedTomes, detected[detection.CategoryTome])

	for _, c := range []struct {
		expected []string
		acc      float64
	}{
		{tc.ExpectedItems, res.Accuracy.Items},
		{tc.ExpectedWeapons, res.Accuracy.Weapons},
		{tc.ExpectedTomes, res.Accuracy.Tomes},
	} {
		if len(uniqueNames(c.expected)) > 0 {
			defined = append(defined, c.acc)
		}
	}

	expectedChar := strings.TrimSpace(tc.ExpectedCharacter)
	detectedChar := ""
	if character != nil {
		detectedChar = entityName(*character)
	}
	res.Accuracy.Character = 1
	switch {
	case expectedChar != "" && strings.EqualFold(expectedChar, detectedChar):
		res.Matched.Character = expectedChar
	case expectedChar != "":
		res.Missed.Character = expectedChar
		res.Accuracy.Character = 0
		if detectedChar != "" {
			res.FalsePositives.Character = detectedChar
		}
	case detectedChar != "":
		res.FalsePositives.Character = detectedChar
	}
	if expectedChar != "" {
		defined = append(defined, res.Accuracy.Character)
	}

	res.Accuracy.Overall = 1
	if len(defined) > 0 {
		res.Accuracy.Overall = stat.Mean(defined, nil)
	}

	res.RegionAccuracy = regionAccuracy(results, tc.AnnotatedRegions, tolerance)
	res.Passed = res.Missed.Empty() && res.FalsePositives.Empty() &&
		(expectedChar == "" || res.Matched.Character != "")
	return res
}

// compareSet returns matched and missed in expected order (expected
// spelling), false positives in detection order (detected spelling), and
// the accuracy ratio.
func compareSet(expected, detected []string) (matched, missed, falsePositives []string, accuracy float64) {
	exp := uniqueNames(expected)
	det := uniqueNames(detected)

	detSet := make(map[string]bool, len(det))
	for _, d := range det {
		detSet[strings.ToLower(d)] = true
	}
	expSet := make(map[string]bool, len(exp))
	for _, e := range exp {
		expSet[strings.ToLower(e)] = true
	}

	matched, missed, falsePositives = []string{}, []string{}, []string{}
	for _, e := range exp {
		if detSet[strings.ToLower(e)] {
			matched = append(matched, e)
		} else {
			missed = append(missed, e)
		}
	}
	for _, d := range det {
		if !expSet[strings.ToLower(d)] {
			falsePositives = append(falsePositives, d)
		}
	}

	if len(exp) == 0 {
		return matched, missed, falsePositives, 1
	}
	return matched, missed, falsePositives, float64(len(matched)) / float64(len(exp))
}

// uniqueNames trims names, drops blanks and keeps the first spelling of
// each case-insensitive duplicate.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func entityName(d detection.DetectionResult) string {
	if n := strings.TrimSpace(d.Entity.Name); n != "" {
		return n
	}
	return strings.TrimSpace(d.Entity.ID)
}

// regionAccuracy is the fraction of annotations that claim a detected
// position of the same category within tolerance. Annotations are
// processed in order and each takes the nearest unclaimed position, so no
// detection satisfies two annotations.
func regionAccuracy(results []detection.DetectionResult, annotations []AnnotatedRegion, tolerance float64) float64 {
	if len(annotations) == 0 {
		return 1
	}

	claimed := make([]bool, len(results))
	hits := 0
	for _, a := range annotations {
		want := annotationCategory(a.Type)
		best, bestDist := -1, math.Inf(1)
		for i, r := range results {
			if claimed[i] || r.Position == nil || r.Category != want {
				continue
			}
			d := math.Hypot(float64(r.Position.X-a.X), float64(r.Position.Y-a.Y))
			if d <= tolerance && d < bestDist {
				best, bestDist = i, d
			}
		}
		if best >= 0 {
			claimed[best] = true
			hits++
		}
	}
	return float64(hits) / float64(len(annotations))
}

func annotationCategory(t string) detection.Category {
	if c, ok := detection.ParseCategory(t); ok {
		return c
	}
	return detection.Category(strings.ToLower(strings.TrimSpace(t)))
}
