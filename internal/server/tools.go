package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the screenshot file",
}

// regionProperty describes an {x, y, width, height} object.
func regionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer"},
			"y":      map[string]interface{}{"type": "integer"},
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

// detectionsProperty describes an array of detection results.
func detectionsProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"category": map[string]interface{}{
					"type": "string",
					"enum": []string{"item", "weapon", "tome", "character"},
				},
				"entity": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":   map[string]interface{}{"type": "string"},
						"name": map[string]interface{}{"type": "string"},
					},
				},
				"confidence": map[string]interface{}{"type": "number"},
				"method": map[string]interface{}{
					"type": "string",
					"enum": []string{"template_match", "ocr", "hybrid", "none"},
				},
				"position": regionProperty("Slot position in the frame"),
				"count":    map[string]interface{}{"type": "integer"},
			},
			"required": []string{"category", "entity", "confidence", "method"},
		},
	}
}

var categoriesProperty = map[string]interface{}{
	"type":        "array",
	"description": "Categories to match OCR text against (default all)",
	"items": map[string]interface{}{
		"type": "string",
		"enum": []string{"item", "weapon", "tome", "character"},
	},
}

var emptySchema = map[string]interface{}{
	"type":       "object",
	"properties": map[string]interface{}{},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pixel Region Analysis
		{
			Name:        "frame_load",
			Description: "Load a screenshot and return its dimensions, format and resolution label. The frame is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "region_binarize",
			Description: "Threshold a region to an on/off mask by gray level and report the fraction of on pixels. Optionally returns the mask rows.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"region": regionProperty("Region to binarize; clipped to the frame"),
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Gray level a pixel must exceed to be on (default 200)",
						"default":     200,
					},
					"include_mask": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the mask as rows of '#' and '.'",
						"default":     false,
					},
				},
				"required": []string{"path", "region"},
			},
		},
		{
			Name:        "region_colors",
			Description: "Summarize the colors of a region: up to five dominant quantized colors, average color, brightness and saturation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"region": regionProperty("Region to sample; clipped to the frame"),
				},
				"required": []string{"path", "region"},
			},
		},
		{
			Name:        "slot_counts",
			Description: "Read the stack-count overlay of each inventory cell. Cells without a readable count report count 1 with method 'none'.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"cells": map[string]interface{}{
						"type":        "array",
						"description": "Inventory cells to read",
						"items":       regionProperty("One inventory cell"),
					},
					"screen_height": map[string]interface{}{
						"type":        "integer",
						"description": "Capture height used to scale the expected digit size (default frame height)",
					},
				},
				"required": []string{"path", "cells"},
			},
		},
		{
			Name:        "template_prepare",
			Description: "Load an entity template image and upscale it to a square with Lanczos. Returns base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type": "string",
						"enum": []string{"item", "weapon", "tome", "character"},
					},
					"entity": map[string]interface{}{
						"type":        "string",
						"description": "Catalog entity ID or name",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Template image path; overrides category/entity lookup",
					},
					"size": map[string]interface{}{
						"type":        "integer",
						"description": "Edge length in pixels (default 64)",
						"default":     64,
					},
				},
			},
		},

		// Detection Fusion
		{
			Name:        "detections_aggregate",
			Description: "Collapse repeated detections of the same entity into one record with an occurrence count, keeping the strongest.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"detections": detectionsProperty("Raw detections"),
				},
				"required": []string{"detections"},
			},
		},
		{
			Name:        "detections_combine",
			Description: "Fuse OCR and template-match detections. Entities seen by both become hybrid detections with boosted confidence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"ocr":      detectionsProperty("Detections from OCR"),
					"template": detectionsProperty("Detections from template matching"),
				},
			},
		},
		{
			Name:        "frame_scan",
			Description: "Run the full per-frame pipeline: fuse hits, keep one character, read stack counts for item slots, and record diagnostics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":          pathProperty,
					"template_hits": detectionsProperty("Template-match detections"),
					"ocr_hits":      detectionsProperty("OCR detections"),
					"screen_height": map[string]interface{}{
						"type":        "integer",
						"description": "Capture height (default frame height)",
					},
					"ocr_regions": map[string]interface{}{
						"type":        "array",
						"description": "Regions to read with Tesseract and match against the catalog",
						"items":       regionProperty("Text region"),
					},
					"categories": categoriesProperty,
				},
			},
		},
		{
			Name:        "ocr_region",
			Description: "Read text in a region with Tesseract and match the words against the entity catalog.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty,
					"region": regionProperty("Region to read"),
					"language": map[string]interface{}{
						"type":    "string",
						"default": "eng",
					},
					"whitelist": map[string]interface{}{
						"type":        "string",
						"description": "Characters Tesseract may emit",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Upscale factor before OCR (default 2.0)",
						"default":     2.0,
					},
					"categories": categoriesProperty,
				},
				"required": []string{"path", "region"},
			},
		},

		// Validation
		{
			Name:        "validate_detections",
			Description: "Score detections against one ground-truth test case: matched, missed and false-positive names, per-category accuracy and region accuracy.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"detections": detectionsProperty("Detections to score"),
					"test_case": map[string]interface{}{
						"type":        "object",
						"description": "Ground truth: expected_items, expected_weapons, expected_tomes, expected_character, annotated_regions",
					},
					"tolerance": map[string]interface{}{
						"type":        "number",
						"description": "Region match distance in pixels (default 50)",
						"default":     50,
					},
				},
				"required": []string{"detections", "test_case"},
			},
		},
		{
			Name:        "validate_fixtures",
			Description: "Validate every test case in a fixture file and summarize pass count and mean accuracy.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Fixture JSON file holding one test case or an array",
					},
					"detections": map[string]interface{}{
						"type":        "object",
						"description": "Template-match detections keyed by test case name",
					},
					"ocr": map[string]interface{}{
						"type":        "boolean",
						"description": "Also OCR each fixture screenshot",
						"default":     false,
					},
					"tolerance": map[string]interface{}{
						"type":    "number",
						"default": 50,
					},
				},
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "debug_set_enabled",
			Description: "Enable or disable mirroring of diagnostic entries to stderr. The setting persists across restarts.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"enabled": map[string]interface{}{"type": "boolean"},
				},
				"required": []string{"enabled"},
			},
		},
		{
			Name:        "debug_logs",
			Description: "Return buffered diagnostic entries, oldest first, optionally filtered by category and level.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{"type": "string"},
					"level": map[string]interface{}{
						"type": "string",
						"enum": []string{"debug", "info", "warn", "error"},
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Keep only the newest N entries",
					},
				},
			},
		},
		{
			Name:        "debug_logs_export",
			Description: "Export the diagnostic buffer as a JSON document.",
			InputSchema: emptySchema,
		},
		{
			Name:        "debug_logs_clear",
			Description: "Empty the diagnostic buffer.",
			InputSchema: emptySchema,
		},
		{
			Name:        "debug_stats",
			Description: "Return detection statistics: totals, rolling confidence and processing-time averages, template cache hit rate.",
			InputSchema: emptySchema,
		},
		{
			Name:        "debug_stats_reset",
			Description: "Zero the detection statistics. The log buffer is kept.",
			InputSchema: emptySchema,
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
