package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/inventory-scan-mcp/internal/config"
	"github.com/ironsheep/inventory-scan-mcp/internal/dataset"
	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
	"github.com/ironsheep/inventory-scan-mcp/internal/logger"
	"github.com/ironsheep/inventory-scan-mcp/internal/metrics"
	"github.com/ironsheep/inventory-scan-mcp/internal/ocr"
	"github.com/ironsheep/inventory-scan-mcp/internal/server"
	"github.com/ironsheep/inventory-scan-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("inventory-scan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			fmt.Printf("  Tesseract:  %s\n", ocr.Version())
			return
		case "--help", "-h", "help":
			fmt.Println("inventory-scan-mcp - MCP server for game inventory detection")
			fmt.Println()
			fmt.Println("Usage: inventory-scan-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  INVENTORY_MCP_CONFIG=path.json       JSON config file")
			fmt.Println("  INVENTORY_MCP_LOG_LEVEL=debug        Log level (debug, info, warn, error, off)")
			fmt.Println("  INVENTORY_MCP_SETTINGS_DB=path.db    SQLite file for persisted settings")
			fmt.Println("                                       (default <user config dir>/inventory-scan-mcp/settings.db,")
			fmt.Println("                                       :memory: to keep them in-process)")
			fmt.Println("  INVENTORY_MCP_METRICS_ADDR=:9464     Serve Prometheus metrics on this address")
			fmt.Println("  INVENTORY_MCP_DATASET_DIR=data       Entity catalog directory")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.FromEnv(os.Getenv)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	logger.SetDefault(logger.New(cfg.GetLogLevel(), os.Stderr, false))
	logger.Info("main", "Inventory MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)

	diag, closeSettings := openDiagnostics(cfg, diagnostics.ConsoleSink{Logger: logger.Default()})
	defer closeSettings()

	catalog, err := dataset.Load(cfg.GetDatasetDir())
	if err != nil {
		log.Fatalf("Dataset error: %v", err)
	}
	logger.Info("main", "catalog loaded from %s: %d entities", catalog.Dir(), catalog.Len())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := cfg.GetMetricsAddr(); addr != "" {
		m := metrics.New(diag)
		go func() {
			logger.Info("main", "metrics listening on %s", addr)
			if err := m.Serve(ctx, addr); err != nil {
				logger.Error("main", "metrics server: %v", err)
			}
		}()
	}

	srv := server.New(server.Options{
		Diagnostics:     diag,
		Catalog:         catalog,
		OCR:             ocr.NewEngine(cfg.GetOCRLanguage()),
		TemplateSize:    cfg.GetTemplateSize(),
		RegionTolerance: cfg.GetRegionTolerancePx(),
		Version:         Version,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// openDiagnostics builds the diagnostics handle over the settings store. When
// the store cannot be opened the debug flag falls back to process memory and
// the failure is recorded through the handle itself.
func openDiagnostics(cfg *config.Config, sink diagnostics.Sink) (*diagnostics.Diagnostics, func()) {
	var flags diagnostics.FlagStore
	closeFn := func() {}

	path := cfg.GetSettingsDB()
	settings, storeErr := store.Open(path)
	if storeErr != nil {
		logger.Warn("main", "settings store unavailable, debug flag will not persist: %v", storeErr)
		flags = diagnostics.NewMemoryStore()
	} else {
		flags = settings
		closeFn = func() { settings.Close() }
	}

	diag := diagnostics.New(diagnostics.Options{
		LogCapacity:     cfg.GetLogCapacity(),
		HistoryCapacity: cfg.GetHistoryCapacity(),
		Store:           flags,
		Sink:            sink,
	})
	if storeErr != nil {
		diag.Warn("diagnostics", "settings store unavailable", map[string]string{
			"path":  path,
			"error": storeErr.Error(),
		})
	}
	return diag, closeFn
}
