// Package metrics exposes scanner statistics in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/inventory-scan-mcp/internal/diagnostics"
)

// StatsSource provides the statistics snapshot the collectors read on every
// scrape. *diagnostics.Diagnostics satisfies it.
type StatsSource interface {
	Stats() diagnostics.Stats
}

// Metrics owns a private Prometheus registry fed from a StatsSource.
type Metrics struct {
	source   StatsSource
	registry *prometheus.Registry
}

// New creates a Metrics instance with its collectors registered.
func New(source StatsSource) *Metrics {
	m := &Metrics{
		source:   source,
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counter := func(name, help string, read func(diagnostics.Stats) int) {
		m.registry.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(read(m.source.Stats())) },
		))
	}
	gauge := func(name, help string, read func(diagnostics.Stats) float64) {
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: name, Help: help},
			func() float64 { return read(m.source.Stats()) },
		))
	}

	// Counters
	counter("inventory_detections_total", "Frames processed by the detection pipeline",
		func(s diagnostics.Stats) int { return s.TotalDetections })
	counter("inventory_successful_matches_total", "Entities matched across all processed frames",
		func(s diagnostics.Stats) int { return s.SuccessfulMatches })
	counter("inventory_template_cache_hits_total", "Template cache hits",
		func(s diagnostics.Stats) int { return s.TemplateCacheHits })
	counter("inventory_template_cache_misses_total", "Template cache misses",
		func(s diagnostics.Stats) int { return s.TemplateCacheMisses })

	// Rolling averages
	gauge("inventory_average_confidence", "Mean detection confidence over recent samples",
		func(s diagnostics.Stats) float64 { return s.AverageConfidence })
	gauge("inventory_average_processing_ms", "Mean frame processing time in milliseconds over recent frames",
		func(s diagnostics.Stats) float64 { return s.AverageProcessingMs })
	gauge("inventory_template_cache_hit_ratio", "Template cache hits divided by lookups",
		func(s diagnostics.Stats) float64 { return s.CacheHitRate })

	// Buffer usage
	gauge("inventory_log_entries", "Entries currently held in the debug log buffer",
		func(s diagnostics.Stats) float64 { return float64(s.LogEntries) })
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
