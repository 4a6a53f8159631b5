package logging

import "sync"

// LogStore holds all log entries in memory for the UI. It is thread-safe.
type LogStore struct {
	mu      sync.RWMutex
	entries []LogEntry
}

func newLogStore() *LogStore {
	return &LogStore{
		entries: make([]LogEntry, 0, 1024),
	}
}

// Add appends a new entry to the store.
func (s *LogStore) Add(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// GetAll returns a copy of all log entries.
func (s *LogStore) GetAll() []LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entriesCopy := make([]LogEntry, len(s.entries))
	copy(entriesCopy, s.entries)
	return entriesCopy
}

// CountAtLeast returns how many entries have the given level or a more severe one.
func (s *LogStore) CountAtLeast(level LogLevel) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if e.Level >= level {
			n++
		}
	}
	return n
}
