package dd

import (
	"sync"
	"time"
)

// Round is a record of one mutation and the outcome reported for it.
type Round struct {
	Pass      int
	Stage     Stage
	Direction string
	Removed   int
	Remaining int
	Outcome   Outcome
	Rollback  Rollback
	Cached    bool
	At        time.Time
}

// ExecutionLog records a linear history of all rounds for display. The UI
// reads it while the reducer appends, so access is synchronized.
type ExecutionLog struct {
	mu      sync.RWMutex
	entries []Round
}

// NewExecutionLog creates a new, empty log.
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{
		entries: make([]Round, 0),
	}
}

// Log adds a new round to the log.
func (el *ExecutionLog) Log(r Round) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.entries = append(el.entries, r)
}

// GetEntries returns a copy of all recorded entries.
func (el *ExecutionLog) GetEntries() []Round {
	el.mu.RLock()
	defer el.mu.RUnlock()
	entriesCopy := make([]Round, len(el.entries))
	copy(entriesCopy, el.entries)
	return entriesCopy
}

// Clear resets the log.
func (el *ExecutionLog) Clear() {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.entries = make([]Round, 0)
}

// Size returns the number of entries.
func (el *ExecutionLog) Size() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.entries)
}

// GetLast returns the most recent round, if one exists.
func (el *ExecutionLog) GetLast() (Round, bool) {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if len(el.entries) == 0 {
		return Round{}, false
	}
	return el.entries[len(el.entries)-1], true
}
