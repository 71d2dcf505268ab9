package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// DefaultScale is the upscale factor applied to a region before OCR. HUD
// labels are small; Tesseract reads them far better at twice the size.
const DefaultScale = 2.0

// Bounds represents a rectangular bounding box in source-frame pixel
// coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// Region converts the bounds to an imaging.Region.
func (b Bounds) Region() imaging.Region {
	return imaging.Region{X: b.X1, Y: b.Y1, Width: b.X2 - b.X1, Height: b.Y2 - b.Y1}
}

// Word is one recognized word with its location and OCR confidence.
type Word struct {
	// Text is the recognized word.
	Text string `json:"text"`

	// Confidence is the OCR confidence score (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Bounds is the bounding box around the word in the source frame.
	Bounds Bounds `json:"bounds"`
}

// Result contains the text recognized in one region.
type Result struct {
	// FullText is all recognized text with the engine's spacing and newlines.
	FullText string `json:"full_text"`

	// Words lists individual words in reading order. It may be empty when
	// word boxes are unavailable even though FullText is not.
	Words []Word `json:"words"`

	// Region is the analyzed region after clipping.
	Region imaging.Region `json:"region"`
}

// Engine runs Tesseract over frame regions.
//
// An Engine holds only settings; each call creates and closes its own
// Tesseract client, so one Engine may be shared between goroutines.
type Engine struct {
	// Language is the Tesseract language code, "eng" when empty.
	Language string

	// Whitelist restricts recognized characters when non-empty.
	Whitelist string

	// Scale is the upscale factor applied before OCR; DefaultScale when <= 0.
	Scale float64
}

// NewEngine creates an Engine for the given language.
func NewEngine(language string) *Engine {
	return &Engine{Language: language, Scale: DefaultScale}
}

// Version returns the linked Tesseract version.
func Version() string {
	return gosseract.Version()
}

// RecognizeRegion runs OCR on one region of a frame.
//
// The region is clipped to the frame, cropped and upscaled with Lanczos, then
// handed to Tesseract as an in-memory PNG. Word bounds are mapped back to
// source-frame coordinates.
//
// If word-level boxes cannot be extracted the full text is still returned
// with an empty Words slice.
func (e *Engine) RecognizeRegion(f *imaging.Frame, region imaging.Region) (*Result, error) {
	clipped := region.Clip(f)
	scale := e.Scale
	if scale <= 0 {
		scale = DefaultScale
	}

	crop, err := imaging.CropScaled(f, clipped, scale)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(crop)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	language := e.Language
	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if e.Whitelist != "" {
		if err := client.SetWhitelist(e.Whitelist); err != nil {
			return nil, fmt.Errorf("failed to set whitelist: %w", err)
		}
	}
	if err := client.SetPageSegMode(gosseract.PSM_SPARSE_TEXT); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	result := &Result{FullText: text, Words: []Word{}, Region: clipped}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		result.Words = append(result.Words, Word{
			Text:       word,
			Confidence: box.Confidence / 100.0,
			Bounds: Bounds{
				X1: clipped.X + int(float64(box.Box.Min.X)/scale),
				Y1: clipped.Y + int(float64(box.Box.Min.Y)/scale),
				X2: clipped.X + int(float64(box.Box.Max.X)/scale+0.5),
				Y2: clipped.Y + int(float64(box.Box.Max.Y)/scale+0.5),
			},
		})
	}

	return result, nil
}
