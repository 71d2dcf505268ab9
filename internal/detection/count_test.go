package detection

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
)

var (
	slotBackground = color.RGBA{R: 40, G: 32, B: 48, A: 255}
	overlayWhite   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// newFrame creates a frame filled with a single color.
func newFrame(width, height int, c color.RGBA) *imaging.Frame {
	pix := make([]uint8, width*height*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
	}
	return imaging.NewFrame(width, height, pix)
}

// fillRect paints a rectangle, silently skipping pixels outside the frame.
func fillRect(f *imaging.Frame, x, y, w, h int, c color.RGBA) {
	for py := y; py < y+h; py++ {
		for px := x; px < x+w; px++ {
			if px < 0 || py < 0 || px >= f.Width || py >= f.Height {
				continue
			}
			i := (py*f.Width + px) * 4
			f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
}

// drawCount renders text with the 3x5 digit glyphs, each glyph pixel a
// scale x scale block, digits separated by one block.
func drawCount(f *imaging.Frame, x, y, scale int, text string) {
	for i, ch := range text {
		glyph := digitGlyphs[ch-'0']
		ox := x + i*(glyphCols+1)*scale
		for gy, row := range glyph {
			for gx, cell := range row {
				if cell == '1' {
					fillRect(f, ox+gx*scale, y+gy*scale, scale, scale, overlayWhite)
				}
			}
		}
	}
}

// slotWithCount builds a 64x64 slot with text drawn at 3x scale in the
// bottom-right corner, which gives 15px tall digits.
func slotWithCount(text string) *imaging.Frame {
	f := newFrame(64, 64, slotBackground)
	width := len(text)*(glyphCols+1)*3 - 3
	drawCount(f, 61-width, 44, 3, text)
	return f
}

var fullSlot = imaging.Region{X: 0, Y: 0, Width: 64, Height: 64}

func TestHasCountOverlay(t *testing.T) {
	tests := []struct {
		name   string
		frame  func() *imaging.Frame
		region imaging.Region
		want   bool
	}{
		{
			name:   "dark slot",
			frame:  func() *imaging.Frame { return newFrame(64, 64, slotBackground) },
			region: fullSlot,
			want:   false,
		},
		{
			name:   "slot with digits",
			frame:  func() *imaging.Frame { return slotWithCount("12") },
			region: fullSlot,
			want:   true,
		},
		{
			name: "coverage exactly half a percent of 4000 pixels",
			frame: func() *imaging.Frame {
				f := newFrame(100, 40, slotBackground)
				fillRect(f, 0, 0, 20, 1, overlayWhite)
				return f
			},
			region: imaging.Region{Width: 100, Height: 40},
			want:   false,
		},
		{
			name: "coverage just above half a percent",
			frame: func() *imaging.Frame {
				f := newFrame(100, 40, slotBackground)
				fillRect(f, 0, 0, 21, 1, overlayWhite)
				return f
			},
			region: imaging.Region{Width: 100, Height: 40},
			want:   true,
		},
		{
			name: "gray at threshold is not overlay",
			frame: func() *imaging.Frame {
				return newFrame(20, 20, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			},
			region: imaging.Region{Width: 20, Height: 20},
			want:   false,
		},
		{
			name:   "entirely out of bounds",
			frame:  func() *imaging.Frame { return slotWithCount("12") },
			region: imaging.Region{X: 500, Y: 500, Width: 64, Height: 64},
			want:   false,
		},
		{
			name: "coverage measured over in-bounds pixels only",
			frame: func() *imaging.Frame {
				f := newFrame(10, 10, slotBackground)
				fillRect(f, 0, 0, 2, 1, overlayWhite)
				return f
			},
			// 2 bright of 100 in-bounds pixels; the full request would be 2 of 10000.
			region: imaging.Region{X: 0, Y: 0, Width: 100, Height: 100},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasCountOverlay(tt.frame(), tt.region))
		})
	}
}

func TestDetectCount_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		frame      *imaging.Frame
		region     imaging.Region
		confidence float64
	}{
		{
			name:       "zero width",
			frame:      slotWithCount("12"),
			region:     imaging.Region{X: 0, Y: 0, Width: 0, Height: 64},
			confidence: 0,
		},
		{
			name:       "negative size",
			frame:      slotWithCount("12"),
			region:     imaging.Region{X: 10, Y: 10, Width: -5, Height: -5},
			confidence: 0,
		},
		{
			name:       "out of bounds",
			frame:      slotWithCount("12"),
			region:     imaging.Region{X: 100, Y: 100, Width: 64, Height: 64},
			confidence: 0,
		},
		{
			name:       "no overlay",
			frame:      newFrame(64, 64, slotBackground),
			region:     fullSlot,
			confidence: 0.8,
		},
		{
			name:       "cell too small",
			frame:      newFrame(8, 8, overlayWhite),
			region:     imaging.Region{Width: 8, Height: 8},
			confidence: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCount(tt.frame, tt.region, 1080)

			assert.Equal(t, 1, got.Count)
			assert.Equal(t, MethodNone, got.Method)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.GreaterOrEqual(t, got.Region.Width, 0)
			assert.GreaterOrEqual(t, got.Region.Height, 0)
		})
	}
}

func TestDetectCount_ReadsDigits(t *testing.T) {
	for _, text := range []string{"1", "2", "7", "12", "35", "48", "50", "69", "99"} {
		t.Run(text, func(t *testing.T) {
			got := DetectCount(slotWithCount(text), fullSlot, 1080)

			assert.Equal(t, MethodTemplateMatch, got.Method)
			assert.Equal(t, text, got.RawText)
			assert.Equal(t, text, fmt.Sprint(got.Count))
			assert.InDelta(t, 1.0, got.Confidence, 1e-9)
			assert.Equal(t, fullSlot, got.Region)
		})
	}
}

func TestDetectCount_SmallSingleDigits(t *testing.T) {
	// 2x glyphs give 10px digits; a lone 1 or 7 lights under 1% of the slot.
	for _, text := range []string{"1", "7", "4", "17"} {
		t.Run(text, func(t *testing.T) {
			f := newFrame(64, 64, slotBackground)
			width := len(text)*(glyphCols+1)*2 - 2
			drawCount(f, 61-width, 50, 2, text)

			require.True(t, HasCountOverlay(f, fullSlot))
			got := DetectCount(f, fullSlot, 1080)
			assert.Equal(t, MethodTemplateMatch, got.Method)
			assert.Equal(t, text, got.RawText)
			assert.InDelta(t, 1.0, got.Confidence, 1e-9)
		})
	}
}

func TestDetectCount_ClampsToMinimum(t *testing.T) {
	got := DetectCount(slotWithCount("0"), fullSlot, 1080)

	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "0", got.RawText)
	assert.Equal(t, MethodTemplateMatch, got.Method)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
}

func TestDetectCount_IgnoresIconOutsideCorner(t *testing.T) {
	f := slotWithCount("5")
	fillRect(f, 4, 4, 24, 24, overlayWhite)

	got := DetectCount(f, fullSlot, 1080)
	assert.Equal(t, 5, got.Count)
	assert.Equal(t, "5", got.RawText)
}

func TestDetectCount_SizePenalty(t *testing.T) {
	// 15px digits on a 4320-line screen are a quarter of the expected size.
	got := DetectCount(slotWithCount("12"), fullSlot, 4320)
	assert.Equal(t, 12, got.Count)
	assert.InDelta(t, sizePenalty, got.Confidence, 1e-9)

	// Double the reference height is still within tolerance.
	got = DetectCount(slotWithCount("12"), fullSlot, 2160)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestDetectCount_ScreenHeightDefaultsToFrame(t *testing.T) {
	f := newFrame(64, 1080, slotBackground)
	drawCount(f, 40, 44, 3, "12")

	got := DetectCount(f, fullSlot, 0)
	assert.Equal(t, 12, got.Count)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestDetectCount_OffsetCell(t *testing.T) {
	f := newFrame(200, 100, slotBackground)
	drawCount(f, 100+40, 20+44, 3, "25")

	got := DetectCount(f, imaging.Region{X: 100, Y: 20, Width: 64, Height: 64}, 1080)
	assert.Equal(t, 25, got.Count)
}

func TestDetectCounts_PreservesOrder(t *testing.T) {
	f := newFrame(192, 64, slotBackground)
	drawCount(f, 40, 44, 3, "12")
	drawCount(f, 128+46, 44, 3, "3")

	cells := []imaging.Region{
		{X: 0, Y: 0, Width: 64, Height: 64},
		{X: 64, Y: 0, Width: 64, Height: 64},
		{X: 128, Y: 0, Width: 64, Height: 64},
		{X: 0, Y: 0, Width: 0, Height: 0},
	}
	got := DetectCounts(f, cells, 1080)
	require.Len(t, got, len(cells))

	assert.Equal(t, 12, got[0].Count)
	assert.Equal(t, MethodNone, got[1].Method)
	assert.InDelta(t, 0.8, got[1].Confidence, 1e-9)
	assert.Equal(t, 3, got[2].Count)
	assert.InDelta(t, 0.0, got[3].Confidence, 1e-9)

	assert.Empty(t, DetectCounts(f, nil, 1080))
}

func TestCorrectToCommonStack(t *testing.T) {
	tests := []struct {
		count      int
		confidence float64
		want       int
	}{
		{9, 0.5, 10},
		{11, 0.5, 10},
		{2, 0.5, 1},
		{4, 0.5, 3},
		{7, 0.5, 7},
		{49, 0.5, 50},
		{98, 0.5, 99},
		{30, 0.5, 30},
		{4, 0.8, 3},  // 0.8 is not strictly above the trust threshold
		{4, 0.81, 4}, // trusted
		{0, 0.2, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d@%.2f", tt.count, tt.confidence), func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectToCommonStack(tt.count, tt.confidence))
		})
	}
}

func TestCorrectToCommonStack_TrustedIsIdentity(t *testing.T) {
	for count := MinStackCount; count <= MaxStackCount; count++ {
		for _, conf := range []float64{0.81, 0.9, 1.0} {
			if got := CorrectToCommonStack(count, conf); got != count {
				t.Errorf("CorrectToCommonStack(%d, %v) = %d, want identity", count, conf, got)
			}
		}
	}
}

func TestMatchDigit_AllGlyphs(t *testing.T) {
	for d := 0; d < 10; d++ {
		f := newFrame(12, 20, slotBackground)
		drawCount(f, 0, 0, 4, fmt.Sprint(d))
		mask := imaging.Binarize(f, OverlayThreshold)

		got, score := matchDigit(mask, 0, 0, 12, 20)
		assert.Equal(t, d, got)
		assert.InDelta(t, 1.0, score, 1e-9)
	}
}

func TestFindComponents(t *testing.T) {
	mask := [][]bool{
		{true, true, false, false, false},
		{false, true, false, false, true},
		{false, false, true, false, false},
		{false, false, false, false, false},
		{true, false, false, true, true},
	}

	comps := findComponents(mask, 1)
	require.Len(t, comps, 4)

	// Diagonal neighbors join the first component.
	assert.Len(t, comps[0].points, 4)
	assert.Equal(t, 3, comps[0].width())
	assert.Equal(t, 3, comps[0].height())

	assert.Len(t, findComponents(mask, 2), 2)
	assert.Nil(t, findComponents(nil, 1))
}
