package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ironsheep/inventory-scan-mcp/internal/dataset"
	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
	"github.com/ironsheep/inventory-scan-mcp/internal/imaging"
	"github.com/ironsheep/inventory-scan-mcp/internal/logger"
	"github.com/ironsheep/inventory-scan-mcp/internal/ocr"
	"github.com/ironsheep/inventory-scan-mcp/internal/pipeline"
	"github.com/ironsheep/inventory-scan-mcp/internal/validation"
)

const logModule = "server"

// Options configure a Server. Zero values select defaults.
type Options struct {
	// Diagnostics receives pipeline logs and statistics. A private
	// in-memory handle is created when nil.
	Diagnostics *diagnostics.Diagnostics

	// Catalog resolves template_prepare entities and OCR text. An empty
	// catalog is used when nil.
	Catalog *dataset.Catalog

	// OCR runs ocr_region and OCR-backed scans. An English engine is used
	// when nil.
	OCR *ocr.Engine

	TemplateSize    int
	RegionTolerance float64

	// Version is reported in the initialize handshake.
	Version string
}

// Server handles MCP protocol communication
type Server struct {
	cache   *imaging.ImageCache
	diag    *diagnostics.Diagnostics
	scanner *pipeline.Scanner
	catalog *dataset.Catalog
	ocr     *ocr.Engine

	templateSize int
	tolerance    float64
	version      string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	if opts.Diagnostics == nil {
		opts.Diagnostics = diagnostics.New(diagnostics.Options{})
	}
	if opts.Catalog == nil {
		opts.Catalog = dataset.NewCatalog("", nil)
	}
	if opts.OCR == nil {
		opts.OCR = ocr.NewEngine("eng")
	}
	if opts.TemplateSize <= 0 {
		opts.TemplateSize = imaging.DefaultTemplateSize
	}
	if opts.RegionTolerance <= 0 {
		opts.RegionTolerance = validation.DefaultRegionTolerance
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	diag := opts.Diagnostics
	return &Server{
		cache:        imaging.NewImageCache(diag.RecordCacheAccess),
		diag:         diag,
		scanner:      pipeline.New(diag),
		catalog:      opts.Catalog,
		ocr:          opts.OCR,
		templateSize: opts.TemplateSize,
		tolerance:    opts.RegionTolerance,
		version:      opts.Version,
	}
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve reads one JSON-RPC request per line from r and writes responses to
// w until r is exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	// Fixture and detection payloads can be large
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			logger.Warn(logModule, "Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				logger.Error(logModule, "Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	logger.Debug(logModule, "request %s", req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "inventory-scan-mcp",
				"version": s.version,
			},
		},
	}
}
