// Package server implements the MCP (Model Context Protocol) server for the
// inventory detection pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes region analysis,
// detection fusion, validation and diagnostics through the MCP protocol.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Pixel Region Analysis:
//   - frame_load: Load a screenshot and get metadata
//   - region_binarize: Threshold a region and measure coverage
//   - region_colors: Dominant colors, brightness and saturation
//   - slot_counts: Read stack-count overlays of inventory cells
//   - template_prepare: Upscale an entity template to 64x64
//
// Detection Fusion:
//   - detections_aggregate: Collapse duplicate detections
//   - detections_combine: Fuse OCR and template-match detections
//   - frame_scan: Full per-frame pipeline
//   - ocr_region: Tesseract text plus catalog matches
//
// Validation:
//   - validate_detections: Score detections against one test case
//   - validate_fixtures: Score a fixture file
//
// Diagnostics:
//   - debug_set_enabled, debug_logs, debug_logs_export, debug_logs_clear
//   - debug_stats, debug_stats_reset
//
// # Frame Caching
//
// Screenshots and prepared templates are cached by path for the lifetime of
// the process. Template lookups feed the cache hit rate in debug_stats.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// Each failure is also logged as a warn diagnostic entry.
package server
