package diag

import (
	"log/slog"
	"sync"
)

// FailureSink receives one diagnostic per failed item. It is for auditing,
// never for control flow.
type FailureSink interface {
	Failure(key string, err error)
}

// LogSink reports failures as warn-level log lines.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Failure(key string, err error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("item failed", "key", key, "code", string(Classify(err)), "error", err)
}

// FailureEntry is one recorded failure.
type FailureEntry struct {
	Key  string
	Code Code
	Err  error
}

// MemorySink keeps failures in memory in arrival order.
type MemorySink struct {
	mu      sync.Mutex
	entries []FailureEntry
}

func (s *MemorySink) Failure(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, FailureEntry{Key: key, Code: Classify(err), Err: err})
}

func (s *MemorySink) Entries() []FailureEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]FailureEntry, len(s.entries))
	copy(cp, s.entries)
	return cp
}

// Keys returns the failed keys in arrival order.
func (s *MemorySink) Keys() []string {
	entries := s.Entries()
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}

// MultiSink fans each failure out to every sink in order.
type MultiSink []FailureSink

func (m MultiSink) Failure(key string, err error) {
	for _, s := range m {
		if s != nil {
			s.Failure(key, err)
		}
	}
}
