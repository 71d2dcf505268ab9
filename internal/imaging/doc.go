// Package imaging provides the pixel-level half of the inventory scanner.
//
// Captured frames are held as flat RGBA byte buffers (Frame). On top of that
// the package offers region normalization, binarization, region color
// analysis, crop/scale helpers used to feed OCR and template matching, and a
// cache for decoded frames and prepared templates.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. A Region is {X, Y, Width,
// Height}; its right and bottom edges are exclusive.
//
// # Malformed Regions
//
// Capture data is live and occasionally nonsense. Analyzers never return an
// error for a bad region: negative sizes collapse to zero, out-of-bounds
// pixels are ignored, and an empty region produces a neutral zero result.
// Region.Clip is the single place this normalization happens.
//
// # Grayscale
//
// Grayscale here is the arithmetic mean of R, G and B, not a luminance
// weighting. HUD text is white on colored backgrounds, and the unweighted
// mean treats saturated red and blue backgrounds the same way.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Every other function is stateless
// and may be called concurrently as long as the frame is not being mutated.
package imaging
