package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/inventory-scan-mcp/internal/dataset"
	"github.com/ironsheep/inventory-scan-mcp/internal/detection"
	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
	"github.com/ironsheep/inventory-scan-mcp/internal/ocr"
	"github.com/ironsheep/inventory-scan-mcp/internal/pipeline"
	"github.com/ironsheep/inventory-scan-mcp/internal/validation"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "frame_load", "frame_scan").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.diag.Warn("server", "tool failed", map[string]string{"tool": params.Name, "error": err.Error()})
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads frames from cache as needed
//  4. Calls the appropriate imaging/detection/validation function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Pixel Region Analysis
	case "frame_load":
		return s.handleFrameLoad(args)
	case "region_binarize":
		return s.handleRegionBinarize(args)
	case "region_colors":
		return s.handleRegionColors(args)
	case "slot_counts":
		return s.handleSlotCounts(args)
	case "template_prepare":
		return s.handleTemplatePrepare(args)

	// Detection Fusion
	case "detections_aggregate":
		return s.handleDetectionsAggregate(args)
	case "detections_combine":
		return s.handleDetectionsCombine(args)
	case "frame_scan":
		return s.handleFrameScan(args)
	case "ocr_region":
		return s.handleOCRRegion(args)

	// Validation
	case "validate_detections":
		return s.handleValidateDetections(args)
	case "validate_fixtures":
		return s.handleValidateFixtures(args)

	// Diagnostics
	case "debug_set_enabled":
		return s.handleDebugSetEnabled(args)
	case "debug_logs":
		return s.handleDebugLogs(args)
	case "debug_logs_export":
		return s.handleDebugLogsExport(args)
	case "debug_logs_clear":
		s.diag.ClearLogs()
		return map[string]interface{}{"cleared": true}, nil
	case "debug_stats":
		return s.diag.Stats(), nil
	case "debug_stats_reset":
		s.diag.ResetStats()
		return s.diag.Stats(), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func parseCategories(names []string) ([]detection.Category, error) {
	cats := make([]detection.Category, 0, len(names))
	for _, n := range names {
		c, ok := detection.ParseCategory(n)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", n)
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// === Pixel Region Handlers ===

type frameLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleFrameLoad(args json.RawMessage) (interface{}, error) {
	var a frameLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadFrameInfo(s.cache, a.Path)
}

type regionBinarizeArgs struct {
	Path        string         `json:"path"`
	Region      imaging.Region `json:"region"`
	Threshold   int            `json:"threshold"`
	IncludeMask bool           `json:"include_mask"`
}

type regionBinarizeResult struct {
	Region    imaging.Region `json:"region"`
	Threshold int            `json:"threshold"`
	OnRatio   float64        `json:"on_ratio"`

	// Mask rows use '#' for on pixels and '.' for off pixels.
	Mask []string `json:"mask,omitempty"`
}

func (s *Server) handleRegionBinarize(args json.RawMessage) (interface{}, error) {
	var a regionBinarizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == 0 {
		a.Threshold = detection.OverlayThreshold
	}
	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	clipped := a.Region.Clip(f)
	mask := imaging.BinarizeRegion(f, clipped, a.Threshold)
	res := regionBinarizeResult{
		Region:    clipped,
		Threshold: a.Threshold,
		OnRatio:   imaging.OnRatio(mask),
	}
	if a.IncludeMask {
		res.Mask = make([]string, len(mask))
		for y, row := range mask {
			var b strings.Builder
			for _, on := range row {
				if on {
					b.WriteByte('#')
				} else {
					b.WriteByte('.')
				}
			}
			res.Mask[y] = b.String()
		}
	}
	return res, nil
}

type regionArgs struct {
	Path   string         `json:"path"`
	Region imaging.Region `json:"region"`
}

func (s *Server) handleRegionColors(args json.RawMessage) (interface{}, error) {
	var a regionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.AnalyzeRegionColors(f, a.Region), nil
}

type slotCountsArgs struct {
	Path         string           `json:"path"`
	Cells        []imaging.Region `json:"cells"`
	ScreenHeight int              `json:"screen_height"`
}

type slotCount struct {
	detection.CountDetectionResult
	HasOverlay bool `json:"has_overlay"`

	// CorrectedCount is Count after common-stack correction.
	CorrectedCount int `json:"corrected_count"`
}

func (s *Server) handleSlotCounts(args json.RawMessage) (interface{}, error) {
	var a slotCountsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	reads := detection.DetectCounts(f, a.Cells, a.ScreenHeight)
	out := make([]slotCount, len(reads))
	for i, r := range reads {
		out[i] = slotCount{
			CountDetectionResult: r,
			HasOverlay:           detection.HasCountOverlay(f, a.Cells[i]),
			CorrectedCount:       detection.CorrectToCommonStack(r.Count, r.Confidence),
		}
	}
	return out, nil
}

type templatePrepareArgs struct {
	Category string `json:"category"`
	Entity   string `json:"entity"`
	Path     string `json:"path"`
	Size     int    `json:"size"`
}

type templatePrepareResult struct {
	Entity      *detection.EntityRef `json:"entity,omitempty"`
	Path        string               `json:"path"`
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	ImageBase64 string               `json:"image_base64"`
}

func (s *Server) handleTemplatePrepare(args json.RawMessage) (interface{}, error) {
	var a templatePrepareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Size == 0 {
		a.Size = s.templateSize
	}

	res := templatePrepareResult{Path: a.Path}
	if res.Path == "" {
		e, err := s.lookupEntity(a.Category, a.Entity)
		if err != nil {
			return nil, err
		}
		ref := e.Ref()
		res.Entity = &ref
		res.Path = s.catalog.TemplatePath(e)
		if res.Path == "" {
			return nil, fmt.Errorf("%s %q has no template image", e.Category, e.ID)
		}
	}

	tmpl, err := s.cache.LoadTemplate(res.Path, a.Size)
	if err != nil {
		return nil, err
	}
	data, err := imaging.EncodePNG(tmpl)
	if err != nil {
		return nil, err
	}

	res.Width = tmpl.Bounds().Dx()
	res.Height = tmpl.Bounds().Dy()
	res.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	return res, nil
}

func (s *Server) lookupEntity(category, entity string) (dataset.Entity, error) {
	cat, ok := detection.ParseCategory(category)
	if !ok {
		return dataset.Entity{}, fmt.Errorf("unknown category %q", category)
	}
	e, ok := s.catalog.Lookup(cat, entity)
	if !ok {
		return dataset.Entity{}, fmt.Errorf("no %s named %q in catalog", cat, entity)
	}
	return e, nil
}

// === Detection Fusion Handlers ===

type detectionsAggregateArgs struct {
	Detections []detection.DetectionResult `json:"detections"`
}

func (s *Server) handleDetectionsAggregate(args json.RawMessage) (interface{}, error) {
	var a detectionsAggregateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return detection.AggregateDuplicates(a.Detections), nil
}

type detectionsCombineArgs struct {
	OCR      []detection.DetectionResult `json:"ocr"`
	Template []detection.DetectionResult `json:"template"`
}

func (s *Server) handleDetectionsCombine(args json.RawMessage) (interface{}, error) {
	var a detectionsCombineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return detection.CombineDetections(a.OCR, a.Template), nil
}

type frameScanArgs struct {
	Path string `json:"path"`
	pipeline.Input

	// OCRRegions are read with Tesseract and matched against the catalog;
	// the resulting hits join OCRHits.
	OCRRegions []imaging.Region `json:"ocr_regions"`
	Categories []string         `json:"categories"`
}

func (s *Server) handleFrameScan(args json.RawMessage) (interface{}, error) {
	var a frameScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cats, err := parseCategories(a.Categories)
	if err != nil {
		return nil, err
	}

	var f *imaging.Frame
	if a.Path != "" {
		if f, err = s.cache.Load(a.Path); err != nil {
			return nil, err
		}
	}
	if len(a.OCRRegions) > 0 && f == nil {
		return nil, fmt.Errorf("ocr_regions require a frame path")
	}

	in := a.Input
	for _, r := range a.OCRRegions {
		res, err := s.ocr.RecognizeRegion(f, r)
		if err != nil {
			return nil, fmt.Errorf("OCR of region %+v failed: %w", r, err)
		}
		in.OCRHits = append(in.OCRHits, ocr.RecognizeEntities(res.Words, s.catalog, cats)...)
	}

	return s.scanner.Process(f, in), nil
}

type ocrRegionArgs struct {
	Path       string         `json:"path"`
	Region     imaging.Region `json:"region"`
	Language   string         `json:"language"`
	Whitelist  string         `json:"whitelist"`
	Scale      float64        `json:"scale"`
	Categories []string       `json:"categories"`
}

type ocrRegionResult struct {
	*ocr.Result
	Detections []detection.DetectionResult `json:"detections"`
}

func (s *Server) handleOCRRegion(args json.RawMessage) (interface{}, error) {
	var a ocrRegionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	cats, err := parseCategories(a.Categories)
	if err != nil {
		return nil, err
	}
	f, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	engine := *s.ocr
	if a.Language != "" {
		engine.Language = a.Language
	}
	if a.Whitelist != "" {
		engine.Whitelist = a.Whitelist
	}
	if a.Scale > 0 {
		engine.Scale = a.Scale
	}

	res, err := engine.RecognizeRegion(f, a.Region)
	if err != nil {
		return nil, err
	}
	return ocrRegionResult{
		Result:     res,
		Detections: ocr.RecognizeEntities(res.Words, s.catalog, cats),
	}, nil
}

// === Validation Handlers ===

type validateDetectionsArgs struct {
	Detections []detection.DetectionResult `json:"detections"`
	TestCase   validation.TestCase         `json:"test_case"`
	Tolerance  float64                     `json:"tolerance"`
}

func (s *Server) handleValidateDetections(args json.RawMessage) (interface{}, error) {
	var a validateDetectionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Tolerance <= 0 {
		a.Tolerance = s.tolerance
	}
	return validation.ValidateWithTolerance(a.Detections, a.TestCase, a.Tolerance), nil
}

type validateFixturesArgs struct {
	Path string `json:"path"`

	// Detections holds template-match hits per fixture name.
	Detections map[string][]detection.DetectionResult `json:"detections"`

	// OCR reads each fixture's screenshot in full and adds the recognized
	// entities as OCR hits.
	OCR       bool    `json:"ocr"`
	Tolerance float64 `json:"tolerance"`
}

func (s *Server) handleValidateFixtures(args json.RawMessage) (interface{}, error) {
	var a validateFixturesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Tolerance <= 0 {
		a.Tolerance = s.tolerance
	}

	cases, err := validation.LoadTestCases(a.Path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(a.Path)

	detect := func(tc validation.TestCase) []detection.DetectionResult {
		in := pipeline.Input{TemplateHits: a.Detections[tc.Name], ScreenHeight: tc.Height}

		var f *imaging.Frame
		if tc.Image != "" {
			path := tc.Image
			if !filepath.IsAbs(path) {
				path = filepath.Join(dir, path)
			}
			loaded, err := s.cache.Load(path)
			if err != nil {
				s.diag.Warn("validation", "failed to load fixture image", map[string]string{
					"case":  tc.Name,
					"error": err.Error(),
				})
			} else {
				f = loaded
			}
		}

		if a.OCR && f != nil {
			res, err := s.ocr.RecognizeRegion(f, imaging.Region{Width: f.Width, Height: f.Height})
			if err != nil {
				s.diag.Warn("validation", "fixture OCR failed", map[string]string{
					"case":  tc.Name,
					"error": err.Error(),
				})
			} else {
				in.OCRHits = ocr.RecognizeEntities(res.Words, s.catalog, nil)
			}
		}

		return s.scanner.Process(f, in).Detections
	}

	summary := validation.ValidateSuite(cases, a.Tolerance, detect)
	s.diag.Info("validation", "fixture suite validated", map[string]interface{}{
		"path":          a.Path,
		"total":         summary.Total,
		"passed":        summary.Passed,
		"mean_accuracy": summary.MeanAccuracy,
	})
	return summary, nil
}

// === Diagnostics Handlers ===

type debugSetEnabledArgs struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleDebugSetEnabled(args json.RawMessage) (interface{}, error) {
	var a debugSetEnabledArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	s.diag.SetEnabled(a.Enabled)
	return map[string]interface{}{"enabled": s.diag.Enabled()}, nil
}

type debugLogsArgs struct {
	Category string `json:"category"`
	Level    string `json:"level"`

	// Limit keeps only the newest entries when > 0.
	Limit int `json:"limit"`
}

func (s *Server) handleDebugLogs(args json.RawMessage) (interface{}, error) {
	var a debugLogsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	var level diagnostics.Level
	if a.Level != "" {
		l, ok := diagnostics.ParseLevel(a.Level)
		if !ok {
			return nil, fmt.Errorf("unknown level %q", a.Level)
		}
		level = l
	}

	var entries []diagnostics.LogEntry
	switch {
	case a.Category != "":
		entries = s.diag.LogsByCategory(a.Category)
		if level != "" {
			kept := entries[:0]
			for _, e := range entries {
				if e.Level == level {
					kept = append(kept, e)
				}
			}
			entries = kept
		}
	case level != "":
		entries = s.diag.LogsByLevel(level)
	default:
		entries = s.diag.Logs()
	}
	if a.Limit > 0 && len(entries) > a.Limit {
		entries = entries[len(entries)-a.Limit:]
	}
	return entries, nil
}

func (s *Server) handleDebugLogsExport(args json.RawMessage) (interface{}, error) {
	export, err := s.diag.ExportLogs()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"export": export}, nil
}
