package imaging

import (
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// MaxDominantColors is the number of color buckets reported by
// AnalyzeRegionColors.
const MaxDominantColors = 5

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// Hex formats the color as "#RRGGBB".
func (c RGBColor) Hex() string {
	return strings.ToUpper(toColorful(c.R, c.G, c.B).Hex())
}

// ColorFrequency represents a quantized color and how much of a region it covers.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Percentage of sampled pixels (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// RegionColors summarizes the color content of a region.
//
// Slot backgrounds in the inventory HUD carry rarity colors, so these numbers
// are the cheapest evidence available for a cell before any classifier runs.
type RegionColors struct {
	// DominantColors holds up to MaxDominantColors quantized colors, most
	// common first. Never nil.
	DominantColors []ColorFrequency `json:"dominant_colors"`

	// AverageColor is the per-channel mean over the sampled pixels.
	AverageColor RGBColor `json:"average_color"`

	// Brightness is the mean of (R+G+B)/3 over the sampled pixels (0-255).
	Brightness float64 `json:"brightness"`

	// Saturation is the mean HSV saturation, (max-min)/max, over the sampled
	// pixels (0-1). Black pixels count as zero saturation.
	Saturation float64 `json:"saturation"`
}

// AnalyzeRegionColors extracts dominant colors, average color, brightness and
// saturation from a region of a frame.
//
// Parameters:
//   - f: The source frame.
//   - region: The area to sample. It is clipped to the frame first, so only
//     in-bounds pixels are sampled.
//
// Zero-area and fully out-of-bounds regions return a zero RegionColors with an
// empty DominantColors slice rather than an error.
//
// # Color Quantization
//
// Colors are grouped by dividing each component by 16 and rounding down:
//
//	quantized = (original / 16) * 16
//
// Ties in frequency are broken by hex string so the output is deterministic.
func AnalyzeRegionColors(f *Frame, region Region) RegionColors {
	r := region.Clip(f)
	result := RegionColors{DominantColors: []ColorFrequency{}}
	if r.Empty() {
		return result
	}

	counts := make(map[RGBColor]int)
	var sumR, sumG, sumB, sumBright, sumSat float64
	total := 0

	for y := r.Y; y < r.Y+r.Height; y++ {
		for x := r.X; x < r.X+r.Width; x++ {
			pr, pg, pb := f.RGB(x, y)

			counts[RGBColor{R: pr / 16 * 16, G: pg / 16 * 16, B: pb / 16 * 16}]++

			sumR += float64(pr)
			sumG += float64(pg)
			sumB += float64(pb)
			sumBright += (float64(pr) + float64(pg) + float64(pb)) / 3

			_, s, _ := toColorful(pr, pg, pb).Hsv()
			sumSat += s
			total++
		}
	}

	n := float64(total)
	result.AverageColor = RGBColor{
		R: uint8(sumR/n + 0.5),
		G: uint8(sumG/n + 0.5),
		B: uint8(sumB/n + 0.5),
	}
	result.Brightness = sumBright / n
	result.Saturation = sumSat / n

	colors := make([]ColorFrequency, 0, len(counts))
	for c, cnt := range counts {
		colors = append(colors, ColorFrequency{
			Hex:        c.Hex(),
			Percentage: float64(cnt) / n * 100,
			RGB:        c,
		})
	}
	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})
	if len(colors) > MaxDominantColors {
		colors = colors[:MaxDominantColors]
	}
	result.DominantColors = colors

	return result
}

func toColorful(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}
