package ocr

import (
	"image"
	"image/color"
	"image/draw"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

// drawText draws text on an image using basicfont
func drawText(img *image.RGBA, x, y int, text string, col color.Color) {
	point := fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}

// frameWithText renders text at 1x and scales it up with nearest neighbour
// so the glyphs stay crisp for Tesseract.
func frameWithText(t *testing.T, text string, scale int) *imaging.Frame {
	t.Helper()

	width := len(text)*7 + 40
	height := 40

	small := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(small, small.Bounds(), image.White, image.Point{}, draw.Src)
	drawText(small, 20, 25, text, color.Black)

	big := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	for y := 0; y < height*scale; y++ {
		for x := 0; x < width*scale; x++ {
			big.Set(x, y, small.At(x/scale, y/scale))
		}
	}
	return imaging.FrameFromImage(big)
}

func skipIfNoTesseract(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		return
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "tesseract") ||
		strings.Contains(msg, "library") ||
		strings.Contains(msg, "language") {
		t.Skip("Tesseract not available")
	}
}

func TestRecognizeRegion_EmptyRegion(t *testing.T) {
	f := imaging.FrameFromImage(image.NewRGBA(image.Rect(0, 0, 50, 50)))

	_, err := NewEngine("eng").RecognizeRegion(f, imaging.Region{X: 100, Y: 100, Width: 10, Height: 10})
	if err == nil {
		t.Error("RecognizeRegion should fail for a region outside the frame")
	}
}

func TestRecognizeRegion_EmptyFrame(t *testing.T) {
	_, err := NewEngine("eng").RecognizeRegion(imaging.NewFrame(0, 0, nil), imaging.Region{Width: 10, Height: 10})
	if err == nil {
		t.Error("RecognizeRegion should fail for an empty frame")
	}
}

func TestRecognizeRegion_BlankImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	f := imaging.FrameFromImage(img)

	result, err := NewEngine("eng").RecognizeRegion(f, imaging.Region{X: 0, Y: 0, Width: 200, Height: 100})
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}

	if len(result.Words) != 0 {
		t.Errorf("expected no words on a blank image, got %v", result.Words)
	}
	if result.Words == nil {
		t.Error("Words should be an empty slice, not nil")
	}
}

func TestRecognizeRegion_RealText(t *testing.T) {
	f := frameWithText(t, "HELLO WORLD", 4)

	result, err := NewEngine("eng").RecognizeRegion(f, imaging.Region{X: 0, Y: 0, Width: f.Width, Height: f.Height})
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}

	t.Logf("Extracted text: %q", result.FullText)
	t.Logf("Number of words: %d", len(result.Words))

	for _, w := range result.Words {
		if w.Confidence < 0 || w.Confidence > 1 {
			t.Errorf("word %q confidence %f outside [0,1]", w.Text, w.Confidence)
		}
		if w.Bounds.X1 < 0 || w.Bounds.Y1 < 0 || w.Bounds.X2 > f.Width+1 || w.Bounds.Y2 > f.Height+1 {
			t.Errorf("word %q bounds %+v outside frame %dx%d", w.Text, w.Bounds, f.Width, f.Height)
		}
	}
}

func TestRecognizeRegion_CoordinateOffset(t *testing.T) {
	// Text sits in the lower-right quadrant of a larger frame.
	text := frameWithText(t, "AGILITY", 3)
	canvas := image.NewRGBA(image.Rect(0, 0, text.Width+100, text.Height+80))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(100, 80, 100+text.Width, 80+text.Height), text.Image(), image.Point{}, draw.Src)
	f := imaging.FrameFromImage(canvas)

	region := imaging.Region{X: 100, Y: 80, Width: text.Width, Height: text.Height}
	result, err := NewEngine("eng").RecognizeRegion(f, region)
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}

	if result.Region != region {
		t.Errorf("Region = %+v, want %+v", result.Region, region)
	}
	for _, w := range result.Words {
		if w.Bounds.X1 < region.X || w.Bounds.Y1 < region.Y {
			t.Errorf("word %q bounds %+v not offset into region %+v", w.Text, w.Bounds, region)
		}
	}
}

func TestRecognizeRegion_Whitelist(t *testing.T) {
	f := frameWithText(t, "x12", 4)
	e := &Engine{Language: "eng", Whitelist: "0123456789x"}

	result, err := e.RecognizeRegion(f, imaging.Region{Width: f.Width, Height: f.Height})
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}

	for _, r := range strings.TrimSpace(result.FullText) {
		if !strings.ContainsRune("0123456789x \n", r) {
			t.Errorf("unexpected rune %q outside whitelist in %q", r, result.FullText)
		}
	}
}

func TestRecognizeRegion_ZeroScaleUsesDefault(t *testing.T) {
	f := frameWithText(t, "TOME", 2)
	e := &Engine{Scale: 0}

	result, err := e.RecognizeRegion(f, imaging.Region{Width: f.Width, Height: f.Height})
	skipIfNoTesseract(t, err)
	if err != nil {
		t.Fatalf("RecognizeRegion failed: %v", err)
	}
	if result == nil {
		t.Fatal("RecognizeRegion returned nil result")
	}
}

func TestBoundsRegion(t *testing.T) {
	b := Bounds{X1: 10, Y1: 20, X2: 110, Y2: 70}
	r := b.Region()

	if r.X != 10 || r.Y != 20 || r.Width != 100 || r.Height != 50 {
		t.Errorf("Region() = %+v", r)
	}
}

func TestNewEngine(t *testing.T) {
	e := NewEngine("deu")
	if e.Language != "deu" {
		t.Errorf("Language = %q, want deu", e.Language)
	}
	if e.Scale != DefaultScale {
		t.Errorf("Scale = %f, want %f", e.Scale, DefaultScale)
	}
}
