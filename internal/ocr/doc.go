// Package ocr reads HUD text with Tesseract and maps it onto catalog
// entities.
//
// Engine wraps the Tesseract engine (via gosseract/v2). RecognizeRegion
// crops a region of a captured frame, upscales it, and returns the words
// found together with their bounds in frame coordinates. RecognizeEntities
// is the pure second half: it matches word runs against the dataset catalog
// and produces MethodOCR detections for the fusion stage.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language used
// (tesseract-ocr-eng for English).
//
// # Error Handling
//
// RecognizeRegion returns errors for empty regions, unknown languages and
// engine failures. If word bounding boxes cannot be extracted the full text
// is still returned with an empty Words slice.
package ocr
