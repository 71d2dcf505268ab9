package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/inventory-scan-mcp/internal/config"
	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
)

func settingsConfig(path string) *config.Config {
	cfg := config.Empty()
	cfg.SettingsDB = &path
	return cfg
}

func storeWarnings(d *diagnostics.Diagnostics) []diagnostics.LogEntry {
	var out []diagnostics.LogEntry
	for _, e := range d.LogsByCategory("diagnostics") {
		if e.Level == diagnostics.LevelWarn && e.Message == "settings store unavailable" {
			out = append(out, e)
		}
	}
	return out
}

func TestOpenDiagnostics_StoreUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, "settings.db")

	diag, closeFn := openDiagnostics(settingsConfig(path), nil)
	defer closeFn()

	warns := storeWarnings(diag)
	require.Len(t, warns, 1)
	assert.Contains(t, string(warns[0].Data), "settings.db")

	diag.SetEnabled(true)
	assert.True(t, diag.Enabled(), "flag still works from memory")
}

func TestOpenDiagnostics_PersistsFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.db")

	diag, closeFn := openDiagnostics(settingsConfig(path), nil)
	assert.Empty(t, storeWarnings(diag))
	diag.SetEnabled(true)
	closeFn()

	diag, closeFn = openDiagnostics(settingsConfig(path), nil)
	defer closeFn()
	assert.True(t, diag.Enabled())
}
