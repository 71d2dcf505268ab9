package diagnostics

import (
	"sync"

	"github.com/ironsheep/inventory-scan-mcp/internal/logger"
)

// MemoryStore is a FlagStore that lives only as long as the process.
type MemoryStore struct {
	mu    sync.Mutex
	flags map[string]bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[string]bool)}
}

// Bool returns the stored value, false when unset.
func (s *MemoryStore) Bool(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flags[key], nil
}

// SetBool stores v under key.
func (s *MemoryStore) SetBool(key string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[key] = v
	return nil
}

// ConsoleSink writes mirrored entries through a leveled logger, using the
// entry category as the module tag.
type ConsoleSink struct {
	Logger *logger.Logger
}

// Emit writes one entry. The payload, if any, follows the message.
func (s ConsoleSink) Emit(e LogEntry) {
	l := s.Logger
	if l == nil {
		l = logger.Default()
	}

	level := logger.INFO
	switch e.Level {
	case LevelDebug:
		level = logger.DEBUG
	case LevelWarn:
		level = logger.WARN
	case LevelError:
		level = logger.ERROR
	}

	if len(e.Data) > 0 {
		l.Logf(level, e.Category, "%s %s", e.Message, e.Data)
		return
	}
	l.Logf(level, e.Category, "%s", e.Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(LogEntry)

// Emit calls f(e).
func (f SinkFunc) Emit(e LogEntry) { f(e) }
