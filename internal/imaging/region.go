package imaging

import "image"

// Region is a region of interest in source-frame pixel coordinates.
//
// (X, Y) is the top-left corner; Width and Height extend right and down.
// Regions coming from callers may have negative sizes or lie partly or
// entirely outside the frame; use Clip before touching pixels.
type Region struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the region covers no pixels.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Area returns Width*Height, or 0 for an empty region.
func (r Region) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Clip normalizes the region against a frame.
//
// Negative widths and heights are clamped to zero, then the region is
// intersected with the frame extent. The result never has negative size; a
// region entirely outside the frame comes back with zero width and height
// anchored at the nearest frame edge.
//
// This is the single place region inputs are sanitized. Every analyzer in
// this package and in the detection package goes through it.
func (r Region) Clip(f *Frame) Region {
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	if f.Empty() {
		return Region{}
	}

	x1 := clamp(r.X, 0, f.Width)
	y1 := clamp(r.Y, 0, f.Height)
	x2 := clamp(r.X+r.Width, 0, f.Width)
	y2 := clamp(r.Y+r.Height, 0, f.Height)

	return Region{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

// RegionFromRect converts an image.Rectangle to a Region.
func RegionFromRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, Width: rect.Dx(), Height: rect.Dy()}
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
