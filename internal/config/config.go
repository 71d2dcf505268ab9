// Package config loads server settings from an optional JSON file and the
// environment.
//
// Every field is a pointer so a partial file only overrides what it names;
// the Get* methods supply defaults for the rest.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/inventory-scan-mcp/internal/logger"
)

// Environment variables read by FromEnv.
const (
	EnvConfigPath  = "INVENTORY_MCP_CONFIG"
	EnvLogLevel    = "INVENTORY_MCP_LOG_LEVEL"
	EnvSettingsDB  = "INVENTORY_MCP_SETTINGS_DB"
	EnvMetricsAddr = "INVENTORY_MCP_METRICS_ADDR"
	EnvDatasetDir  = "INVENTORY_MCP_DATASET_DIR"
)

// Defaults.
const (
	DefaultLogLevel          = "info"
	MemorySettingsDB         = ":memory:"
	DefaultDatasetDir        = "data"
	DefaultOCRLanguage       = "eng"
	DefaultTemplateSize      = 64
	DefaultRegionTolerancePx = 50.0
	DefaultLogCapacity       = 500
	DefaultHistoryCapacity   = 100
)

const maxFileSize = 1 * 1024 * 1024 // 1MB

var userConfigDir = os.UserConfigDir

// DefaultSettingsDB returns settings.db under the user config directory, or
// MemorySettingsDB when the platform has none.
func DefaultSettingsDB() string {
	dir, err := userConfigDir()
	if err != nil || dir == "" {
		return MemorySettingsDB
	}
	return filepath.Join(dir, "inventory-scan-mcp", "settings.db")
}

// Config holds the server settings.
type Config struct {
	LogLevel *string `json:"log_level,omitempty"`

	// SettingsDB is the SQLite file holding persisted settings such as the
	// debug flag. Defaults to DefaultSettingsDB(); ":memory:" keeps them for
	// the life of the process only.
	SettingsDB *string `json:"settings_db,omitempty"`

	// MetricsAddr enables the Prometheus endpoint when non-empty
	// (for example "127.0.0.1:9464").
	MetricsAddr *string `json:"metrics_addr,omitempty"`

	// DatasetDir holds items.json, weapons.json, tomes.json and
	// characters.json.
	DatasetDir *string `json:"dataset_dir,omitempty"`

	OCRLanguage *string `json:"ocr_language,omitempty"`

	// Template params
	TemplateSize      *int     `json:"template_size,omitempty"`
	RegionTolerancePx *float64 `json:"region_tolerance_px,omitempty"`

	// Diagnostics params
	LogCapacity     *int `json:"log_capacity,omitempty"`
	HistoryCapacity *int `json:"history_capacity,omitempty"`
}

func ptrString(v string) *string { return &v }

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a Config from a JSON file and validates it.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the Config for the server: the file named by
// INVENTORY_MCP_CONFIG if set, then the individual environment overrides.
// getenv is usually os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Empty()
	if path := getenv(EnvConfigPath); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		env   string
		field **string
	}{
		{EnvLogLevel, &cfg.LogLevel},
		{EnvSettingsDB, &cfg.SettingsDB},
		{EnvMetricsAddr, &cfg.MetricsAddr},
		{EnvDatasetDir, &cfg.DatasetDir},
	}
	for _, o := range overrides {
		if v := getenv(o.env); v != "" {
			*o.field = ptrString(v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the set values are usable.
func (c *Config) Validate() error {
	if c.LogLevel != nil {
		if _, err := logger.ParseLevel(*c.LogLevel); err != nil {
			return fmt.Errorf("log_level: %w", err)
		}
	}
	if c.TemplateSize != nil {
		if *c.TemplateSize < 8 || *c.TemplateSize > 512 {
			return fmt.Errorf("template_size must be between 8 and 512, got %d", *c.TemplateSize)
		}
	}
	if c.RegionTolerancePx != nil && *c.RegionTolerancePx < 0 {
		return fmt.Errorf("region_tolerance_px must be non-negative, got %f", *c.RegionTolerancePx)
	}
	if c.LogCapacity != nil && *c.LogCapacity < 1 {
		return fmt.Errorf("log_capacity must be positive, got %d", *c.LogCapacity)
	}
	if c.HistoryCapacity != nil && *c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be positive, got %d", *c.HistoryCapacity)
	}
	return nil
}

// GetLogLevel returns the parsed log level or the default.
func (c *Config) GetLogLevel() logger.Level {
	if c.LogLevel == nil {
		return logger.INFO
	}
	level, err := logger.ParseLevel(*c.LogLevel)
	if err != nil {
		return logger.INFO
	}
	return level
}

// GetSettingsDB returns the settings database path or the default.
func (c *Config) GetSettingsDB() string {
	if c.SettingsDB == nil || *c.SettingsDB == "" {
		return DefaultSettingsDB()
	}
	return *c.SettingsDB
}

// GetMetricsAddr returns the metrics listen address; empty means disabled.
func (c *Config) GetMetricsAddr() string {
	if c.MetricsAddr == nil {
		return ""
	}
	return *c.MetricsAddr
}

// GetDatasetDir returns the dataset directory or the default.
func (c *Config) GetDatasetDir() string {
	if c.DatasetDir == nil || *c.DatasetDir == "" {
		return DefaultDatasetDir
	}
	return *c.DatasetDir
}

// GetOCRLanguage returns the Tesseract language or the default.
func (c *Config) GetOCRLanguage() string {
	if c.OCRLanguage == nil || *c.OCRLanguage == "" {
		return DefaultOCRLanguage
	}
	return *c.OCRLanguage
}

// GetTemplateSize returns the template edge length or the default.
func (c *Config) GetTemplateSize() int {
	if c.TemplateSize == nil {
		return DefaultTemplateSize
	}
	return *c.TemplateSize
}

// GetRegionTolerancePx returns the validation region tolerance or the default.
func (c *Config) GetRegionTolerancePx() float64 {
	if c.RegionTolerancePx == nil {
		return DefaultRegionTolerancePx
	}
	return *c.RegionTolerancePx
}

// GetLogCapacity returns the debug log capacity or the default.
func (c *Config) GetLogCapacity() int {
	if c.LogCapacity == nil {
		return DefaultLogCapacity
	}
	return *c.LogCapacity
}

// GetHistoryCapacity returns the rolling statistics window or the default.
func (c *Config) GetHistoryCapacity() int {
	if c.HistoryCapacity == nil {
		return DefaultHistoryCapacity
	}
	return *c.HistoryCapacity
}
