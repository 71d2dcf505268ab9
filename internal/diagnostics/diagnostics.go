package diagnostics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Default capacities.
const (
	DefaultLogCapacity     = 500
	DefaultHistoryCapacity = 100
)

// DebugEnabledKey is the FlagStore key holding the debug-enabled flag.
const DebugEnabledKey = "debug_enabled"

// category used for entries the handle writes about itself.
const selfCategory = "diagnostics"

// Level is the severity of a log entry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel accepts a level name in any case ("warning" is an alias for
// warn).
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	}
	return "", false
}

// LogEntry is one buffered diagnostic message.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`

	// Data is the payload passed to Log, serialized when the entry was
	// written. It is nil when no payload was given.
	Data json.RawMessage `json:"data,omitempty"`
}

// FlagStore persists the debug-enabled flag across restarts.
type FlagStore interface {
	Bool(key string) (bool, error)
	SetBool(key string, v bool) error
}

// Sink receives entries while debugging is enabled.
type Sink interface {
	Emit(entry LogEntry)
}

// DetectionRecord summarizes one processed frame for the statistics.
type DetectionRecord struct {
	Items     int
	Weapons   int
	Tomes     int
	Character bool

	// Confidences of every emitted detection; each one enters the rolling
	// confidence average.
	Confidences []float64

	ProcessingTime time.Duration
}

// Stats is a point-in-time snapshot of the detection statistics.
type Stats struct {
	TotalDetections     int     `json:"total_detections"`
	SuccessfulMatches   int     `json:"successful_matches"`
	TemplateCacheHits   int     `json:"template_cache_hits"`
	TemplateCacheMisses int     `json:"template_cache_misses"`
	AverageConfidence   float64 `json:"average_confidence"`
	AverageProcessingMs float64 `json:"average_processing_ms"`

	// CacheHitRate is hits/(hits+misses), 0 before any access.
	CacheHitRate float64 `json:"cache_hit_rate"`

	ConfidenceSamples int `json:"confidence_samples"`
	ProcessingSamples int `json:"processing_samples"`
	LogEntries        int `json:"log_entries"`
}

// Options configure a Diagnostics handle. Zero values select defaults.
type Options struct {
	LogCapacity     int
	HistoryCapacity int

	// Store holds the debug flag. A MemoryStore is used when nil.
	Store FlagStore

	// Sink mirrors entries while enabled. Nothing is mirrored when nil.
	Sink Sink

	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Diagnostics buffers log entries and accumulates detection statistics.
//
// It is the only long-lived mutable state of the scanner and is safe for
// concurrent use. The sink and the flag store are called outside the lock.
type Diagnostics struct {
	mu      sync.Mutex
	logs    *ring[LogEntry]
	enabled bool

	store FlagStore
	sink  Sink
	now   func() time.Time

	totalDetections   int
	successfulMatches int
	cacheHits         int
	cacheMisses       int
	confidence        *window
	processing        *window
}

// New creates a handle and restores the debug flag from the store.
func New(opts Options) *Diagnostics {
	if opts.LogCapacity <= 0 {
		opts.LogCapacity = DefaultLogCapacity
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = DefaultHistoryCapacity
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &Diagnostics{
		logs:       newRing[LogEntry](opts.LogCapacity),
		store:      opts.Store,
		sink:       opts.Sink,
		now:        opts.Now,
		confidence: newWindow(opts.HistoryCapacity),
		processing: newWindow(opts.HistoryCapacity),
	}

	enabled, err := d.store.Bool(DebugEnabledKey)
	if err != nil {
		d.Warn(selfCategory, "failed to read debug flag", map[string]string{"error": err.Error()})
		return d
	}
	d.enabled = enabled
	return d
}

// Enabled reports whether entries are mirrored to the sink.
func (d *Diagnostics) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// SetEnabled toggles mirroring and persists the flag. If the store fails the
// new state still applies for this process and a warn entry is logged.
func (d *Diagnostics) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	d.mu.Unlock()

	if err := d.store.SetBool(DebugEnabledKey, enabled); err != nil {
		d.Warn(selfCategory, "failed to persist debug flag", map[string]interface{}{
			"enabled": enabled,
			"error":   err.Error(),
		})
	}
	d.Info(selfCategory, fmt.Sprintf("debug logging enabled=%t", enabled), nil)
}

// Log appends an entry to the buffer, evicting the oldest once full, and
// mirrors it to the sink when enabled.
//
// data may be nil, a json.RawMessage, or any JSON-serializable value. The
// level is normalized with ParseLevel; an unknown level is recorded as info.
func (d *Diagnostics) Log(category, message string, data interface{}, level Level) {
	if l, ok := ParseLevel(string(level)); ok {
		level = l
	} else {
		level = LevelInfo
	}
	entry := LogEntry{
		Timestamp: d.now().UTC(),
		Category:  category,
		Level:     level,
		Message:   message,
		Data:      encodeData(data),
	}

	d.mu.Lock()
	d.logs.push(entry)
	mirror := d.enabled && d.sink != nil
	sink := d.sink
	d.mu.Unlock()

	if mirror {
		sink.Emit(entry)
	}
}

// Debug logs at debug level.
func (d *Diagnostics) Debug(category, message string, data interface{}) {
	d.Log(category, message, data, LevelDebug)
}

// Info logs at info level.
func (d *Diagnostics) Info(category, message string, data interface{}) {
	d.Log(category, message, data, LevelInfo)
}

// Warn logs at warn level.
func (d *Diagnostics) Warn(category, message string, data interface{}) {
	d.Log(category, message, data, LevelWarn)
}

// Error logs at error level.
func (d *Diagnostics) Error(category, message string, data interface{}) {
	d.Log(category, message, data, LevelError)
}

func encodeData(data interface{}) json.RawMessage {
	if data == nil {
		return nil
	}

	var raw []byte
	switch v := data.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			b, _ = json.Marshal(fmt.Sprintf("%v", v))
		}
		raw = b
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		b, _ := json.Marshal(string(raw))
		return b
	}
	return buf.Bytes()
}

// Logs returns every buffered entry, oldest first.
func (d *Diagnostics) Logs() []LogEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logs.items()
}

// LogsByCategory returns the buffered entries with the given category.
func (d *Diagnostics) LogsByCategory(category string) []LogEntry {
	return d.filter(func(e LogEntry) bool { return e.Category == category })
}

// LogsByLevel returns the buffered entries at the given level.
func (d *Diagnostics) LogsByLevel(level Level) []LogEntry {
	return d.filter(func(e LogEntry) bool { return e.Level == level })
}

func (d *Diagnostics) filter(keep func(LogEntry) bool) []LogEntry {
	all := d.Logs()
	out := make([]LogEntry, 0, len(all))
	for _, e := range all {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// ClearLogs empties the buffer and records that it was cleared, so the
// buffer is never empty right after a clear.
func (d *Diagnostics) ClearLogs() {
	d.mu.Lock()
	d.logs.reset()
	d.mu.Unlock()

	d.Info(selfCategory, "logs cleared", nil)
}

// ExportLogs serializes the buffer as a JSON array that ParseLogs reads
// back unchanged.
func (d *Diagnostics) ExportLogs() (string, error) {
	b, err := json.Marshal(d.Logs())
	if err != nil {
		return "", fmt.Errorf("failed to export logs: %w", err)
	}
	return string(b), nil
}

// ParseLogs decodes the output of ExportLogs.
func ParseLogs(s string) ([]LogEntry, error) {
	var entries []LogEntry
	if err := json.Unmarshal([]byte(s), &entries); err != nil {
		return nil, fmt.Errorf("failed to parse logs: %w", err)
	}
	if entries == nil {
		entries = []LogEntry{}
	}
	return entries, nil
}

// RecordDetection folds one processed frame into the statistics.
func (d *Diagnostics) RecordDetection(rec DetectionRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.totalDetections++
	d.successfulMatches += rec.Items + rec.Weapons + rec.Tomes
	if rec.Character {
		d.successfulMatches++
	}
	for _, c := range rec.Confidences {
		d.confidence.add(c)
	}
	d.processing.add(float64(rec.ProcessingTime) / float64(time.Millisecond))
}

// RecordCacheAccess counts one template cache hit or miss.
func (d *Diagnostics) RecordCacheAccess(hit bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if hit {
		d.cacheHits++
	} else {
		d.cacheMisses++
	}
}

// Stats returns a snapshot of the statistics.
func (d *Diagnostics) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{
		TotalDetections:     d.totalDetections,
		SuccessfulMatches:   d.successfulMatches,
		TemplateCacheHits:   d.cacheHits,
		TemplateCacheMisses: d.cacheMisses,
		AverageConfidence:   d.confidence.mean(),
		AverageProcessingMs: d.processing.mean(),
		ConfidenceSamples:   d.confidence.samples.len(),
		ProcessingSamples:   d.processing.samples.len(),
		LogEntries:          d.logs.len(),
	}
	if total := d.cacheHits + d.cacheMisses; total > 0 {
		s.CacheHitRate = float64(d.cacheHits) / float64(total)
	}
	return s
}

// ResetStats zeroes the counters and clears both rolling histories. The log
// buffer is left alone.
func (d *Diagnostics) ResetStats() {
	d.mu.Lock()
	d.totalDetections = 0
	d.successfulMatches = 0
	d.cacheHits = 0
	d.cacheMisses = 0
	d.confidence.reset()
	d.processing.reset()
	d.mu.Unlock()

	d.Info(selfCategory, "stats reset", nil)
}
