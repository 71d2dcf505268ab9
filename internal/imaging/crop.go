package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// DefaultTemplateSize is the square edge length item templates are scaled to
// before they are handed to a template matcher.
const DefaultTemplateSize = 64

// CropScaled extracts a region from a frame and optionally rescales it.
//
// The region is clipped to the frame first. A scale of 1 (or anything <= 0)
// returns the crop unscaled; other values resize with a Lanczos filter, which
// keeps thin HUD glyphs legible when upscaling for OCR.
func CropScaled(f *Frame, region Region, scale float64) (image.Image, error) {
	r := region.Clip(f)
	if r.Empty() {
		return nil, fmt.Errorf("crop region %+v is empty after clipping to %dx%d frame", region, f.Width, f.Height)
	}

	cropped := imaging.Crop(f.Image(), r.Rect())

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}

// PrepareTemplate scales an entity icon to a size x size square.
//
// Icons in the dataset ship at 32x32; upscaling them once with Lanczos gives
// the matcher templates close to the on-screen slot size. Images already at
// the target size are returned unchanged.
func PrepareTemplate(img image.Image, size int) image.Image {
	if size <= 0 {
		size = DefaultTemplateSize
	}
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img
	}
	return imaging.Resize(img, size, size, imaging.Lanczos)
}

// EncodePNG encodes an image as PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
