package imaging

// DefaultBinarizeThreshold is the grayscale cut used when callers have no
// better value.
const DefaultBinarizeThreshold = 128

// Binarize converts a frame into an on/off mask indexed as [y][x].
//
// Grayscale is the plain average of R, G and B (not luminance-weighted). A
// pixel is on only when its gray value is strictly greater than threshold,
// so a pixel exactly at the threshold is off.
//
// An empty frame yields an empty, non-nil slice.
func Binarize(f *Frame, threshold int) [][]bool {
	if f.Empty() {
		return [][]bool{}
	}
	return BinarizeRegion(f, Region{Width: f.Width, Height: f.Height}, threshold)
}

// BinarizeRegion binarizes only the part of the frame covered by region.
// The mask is indexed relative to the clipped region's top-left corner.
func BinarizeRegion(f *Frame, region Region, threshold int) [][]bool {
	r := region.Clip(f)
	if r.Empty() {
		return [][]bool{}
	}

	t := float64(threshold)
	mask := make([][]bool, r.Height)
	for dy := 0; dy < r.Height; dy++ {
		row := make([]bool, r.Width)
		for dx := 0; dx < r.Width; dx++ {
			row[dx] = f.Gray(r.X+dx, r.Y+dy) > t
		}
		mask[dy] = row
	}
	return mask
}

// OnRatio returns the fraction of on pixels in a mask, or 0 for an empty mask.
func OnRatio(mask [][]bool) float64 {
	on, total := 0, 0
	for _, row := range mask {
		for _, v := range row {
			if v {
				on++
			}
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(on) / float64(total)
}
