package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// Frame is a captured screen frame held as raw RGBA bytes.
//
// Pix is row-major with 4 bytes per pixel (R, G, B, A), the same layout as a
// browser ImageData buffer. The pixel at (x, y) starts at Pix[(y*Width+x)*4].
//
// A Frame with Width or Height of zero is valid and simply has no pixels.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewFrame wraps an existing RGBA byte slice.
//
// Dimensions that do not agree with len(pix) are reduced to the number of
// complete rows actually present, so a short buffer never causes an
// out-of-range read later on.
func NewFrame(width, height int, pix []uint8) *Frame {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if width > 0 && len(pix) < width*height*4 {
		height = len(pix) / (width * 4)
	}
	if width == 0 || height == 0 {
		return &Frame{Width: width, Height: height, Pix: []uint8{}}
	}
	return &Frame{Width: width, Height: height, Pix: pix[:width*height*4]}
}

// FrameFromImage converts any decoded image into a Frame.
//
// The image is normalized to straight RGBA first, so paletted PNGs, YCbCr
// JPEGs and 16-bit images all land in the same byte layout. The frame origin
// is always (0, 0) regardless of the source bounds.
func FrameFromImage(img image.Image) *Frame {
	if img == nil {
		return &Frame{Pix: []uint8{}}
	}
	rgba := clone.AsRGBA(img)
	b := rgba.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		copy(pix[y*w*4:(y+1)*w*4], rgba.Pix[y*rgba.Stride:y*rgba.Stride+w*4])
	}
	return NewFrame(w, h, pix)
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f == nil || f.Width <= 0 || f.Height <= 0
}

// Bounds returns the frame extent as an image.Rectangle anchored at (0, 0).
func (f *Frame) Bounds() image.Rectangle {
	if f.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(0, 0, f.Width, f.Height)
}

// RGB returns the color channels at (x, y). The caller must ensure the
// coordinate is inside the frame.
func (f *Frame) RGB(x, y int) (r, g, b uint8) {
	i := (y*f.Width + x) * 4
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Gray returns the unweighted grayscale value at (x, y): the arithmetic mean
// of R, G and B.
func (f *Frame) Gray(x, y int) float64 {
	r, g, b := f.RGB(x, y)
	return (float64(r) + float64(g) + float64(b)) / 3
}

// Image returns the frame as an *image.RGBA sharing the same pixel buffer.
func (f *Frame) Image() *image.RGBA {
	if f.Empty() {
		return image.NewRGBA(image.Rectangle{})
	}
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}
