// Package detection holds the detection data model and the two stages that
// sit between raw recognizer output and a final inventory: the stack-count
// heuristic and OCR/template fusion.
//
// # Data Model
//
// A DetectionResult names an entity from the static dataset (EntityRef), the
// Category it belongs to, how it was found (Method) and with what confidence.
// Position and Count are optional and are nil when unknown; Clone gives a
// copy that shares neither pointer.
//
// Two detections refer to the same entity when their Key matches: category
// plus entity ID, falling back to the lower-cased name.
//
// # Stack Counts
//
// DetectCount reads the white block digits the HUD draws in the bottom-right
// corner of a slot. It binarizes that quadrant at OverlayThreshold, groups
// bright pixels into 8-connected components, grows a digit cluster from the
// brightest one and matches every digit cell against a built-in 3x5 glyph
// set. It never fails; a cell with nothing legible reads as count 1 with
// MethodNone. CorrectToCommonStack then snaps low-confidence readings onto
// CommonStackSizes.
//
// # Fusion
//
// AggregateDuplicates collapses repeated hits of one entity within a pass.
// CombineDetections merges the OCR and template-match passes; entities seen
// by both become MethodHybrid with a noisy-OR confidence (HybridConfidence).
//
// All functions are pure and safe for concurrent use.
package detection
