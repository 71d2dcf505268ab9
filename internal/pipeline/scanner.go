// Package pipeline runs one captured frame through fusion, stack counting
// and diagnostics.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// Category used for pipeline log entries.
const logCategory = "pipeline"

// Input holds the raw classifier hits for one frame.
type Input struct {
	// TemplateHits are template-match detections.
	TemplateHits []detection.DetectionResult `json:"template_hits"`

	// OCRHits are detections produced from recognized text.
	OCRHits []detection.DetectionResult `json:"ocr_hits"`

	// ScreenHeight is the capture height used to scale the expected digit
	// size. 0 uses the frame height.
	ScreenHeight int `json:"screen_height,omitempty"`
}

// Output is the fused result for one frame.
type Output struct {
	FrameID    string                      `json:"frame_id"`
	Detections []detection.DetectionResult `json:"detections"`

	// Counts lists the count reads attempted for item slots, in detection
	// order.
	Counts []detection.CountDetectionResult `json:"counts"`

	ProcessingTime time.Duration `json:"processing_time_ns"`
}

// Scanner processes frames and reports them to a diagnostics handle.
type Scanner struct {
	diag *diagnostics.Diagnostics
	now  func() time.Time
}

// New creates a Scanner. A nil handle gets a private in-memory one.
func New(diag *diagnostics.Diagnostics) *Scanner {
	if diag == nil {
		diag = diagnostics.New(diagnostics.Options{})
	}
	return &Scanner{diag: diag, now: time.Now}
}

// Diagnostics returns the handle the scanner reports to.
func (s *Scanner) Diagnostics() *diagnostics.Diagnostics {
	return s.diag
}

// Process fuses the hits of one frame.
//
// Both sources are reduced to one detection per entity and combined. Only
// the strongest character survives. Item detections that carry a slot
// position but no count get one read from the frame; the read is snapped to
// a common stack size when its confidence is low, and attached only when
// digits were actually found. f may be nil, in which case no counts are read.
func (s *Scanner) Process(f *imaging.Frame, in Input) Output {
	start := s.now()
	frameID := uuid.NewString()

	combined := detection.CombineDetections(in.OCRHits, in.TemplateHits)
	combined = strongestCharacter(combined)

	counts := []detection.CountDetectionResult{}
	for i, d := range combined {
		if d.Category != detection.CategoryItem || !d.HasPosition() || d.HasCount() || f.Empty() {
			continue
		}
		res := detection.DetectCount(f, *d.Position, in.ScreenHeight)
		counts = append(counts, res)
		if res.Method == detection.MethodNone {
			continue
		}
		combined[i] = d.WithCount(detection.CorrectToCommonStack(res.Count, res.Confidence))
	}

	elapsed := s.now().Sub(start)
	rec := diagnostics.DetectionRecord{ProcessingTime: elapsed}
	for _, d := range combined {
		switch d.Category {
		case detection.CategoryItem:
			rec.Items++
		case detection.CategoryWeapon:
			rec.Weapons++
		case detection.CategoryTome:
			rec.Tomes++
		case detection.CategoryCharacter:
			rec.Character = true
		}
		rec.Confidences = append(rec.Confidences, d.Confidence)
	}
	s.diag.RecordDetection(rec)

	s.diag.Info(logCategory, "frame processed", map[string]interface{}{
		"frame_id":      frameID,
		"template_hits": len(in.TemplateHits),
		"ocr_hits":      len(in.OCRHits),
		"detections":    len(combined),
		"counts_read":   len(counts),
		"elapsed_ms":    float64(elapsed) / float64(time.Millisecond),
	})

	return Output{
		FrameID:        frameID,
		Detections:     combined,
		Counts:         counts,
		ProcessingTime: elapsed,
	}
}

// strongestCharacter drops every character detection but the one with the
// highest confidence, earliest on ties. Order is otherwise preserved.
func strongestCharacter(dets []detection.DetectionResult) []detection.DetectionResult {
	best := -1
	for i, d := range dets {
		if d.Category != detection.CategoryCharacter {
			continue
		}
		if best < 0 || d.Confidence > dets[best].Confidence {
			best = i
		}
	}

	out := make([]detection.DetectionResult, 0, len(dets))
	for i, d := range dets {
		if d.Category == detection.CategoryCharacter && i != best {
			continue
		}
		out = append(out, d)
	}
	return out
}
