package ocr

import (
	"strings"

	"github.com/ironsheep/inventory-scan-mcp/internal/dataset"
	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
)

// RecognizeEntities turns OCR words into catalog detections.
//
// Words are scanned in order. At each position the longest run of words
// (up to the longest catalog name) whose joined text matches an entity
// name wins, and those words are consumed. Categories are tried in the
// order given. A match's confidence is the mean confidence of its words and
// its position is the union of their bounds.
func RecognizeEntities(words []Word, catalog *dataset.Catalog, categories []detection.Category) []detection.DetectionResult {
	if catalog == nil || len(words) == 0 {
		return []detection.DetectionResult{}
	}
	if len(categories) == 0 {
		categories = detection.Categories
	}

	maxRun := catalog.MaxNameWords()
	out := []detection.DetectionResult{}

	for i := 0; i < len(words); {
		matched := false
		for n := minInt(maxRun, len(words)-i); n >= 1 && !matched; n-- {
			run := words[i : i+n]
			text := joinWords(run)
			for _, cat := range categories {
				e, ok := catalog.Match(cat, text)
				if !ok {
					continue
				}
				bounds := unionBounds(run).Region()
				out = append(out, detection.DetectionResult{
					Category:   cat,
					Entity:     e.Ref(),
					Confidence: meanConfidence(run),
					Method:     detection.MethodOCR,
					Position:   &bounds,
				})
				i += n
				matched = true
				break
			}
		}
		if !matched {
			i++
		}
	}
	return out
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func unionBounds(words []Word) Bounds {
	b := words[0].Bounds
	for _, w := range words[1:] {
		if w.Bounds.X1 < b.X1 {
			b.X1 = w.Bounds.X1
		}
		if w.Bounds.Y1 < b.Y1 {
			b.Y1 = w.Bounds.Y1
		}
		if w.Bounds.X2 > b.X2 {
			b.X2 = w.Bounds.X2
		}
		if w.Bounds.Y2 > b.Y2 {
			b.Y2 = w.Bounds.Y2
		}
	}
	return b
}

func meanConfidence(words []Word) float64 {
	sum := 0.0
	for _, w := range words {
		sum += w.Confidence
	}
	return sum / float64(len(words))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
