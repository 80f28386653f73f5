package ledger

import (
	"sort"
	"sync"
)

// MemoryLedger is an in-memory ledger for tests. It mirrors the file
// ledger's semantics without touching disk.
type MemoryLedger struct {
	mu   sync.RWMutex
	done map[string]bool

	// RecordErr, when set, is returned by every Record call. Lets tests
	// exercise the fatal-on-ledger-write-failure path.
	RecordErr error
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{done: make(map[string]bool)}
}

// IsComplete reports whether jobKey has been recorded
func (m *MemoryLedger) IsComplete(jobKey string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.done[jobKey]
}

// Record marks jobKey as complete
func (m *MemoryLedger) Record(jobKey string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.done[jobKey] = true
	return nil
}

// CompletedKeys returns all recorded keys, sorted
func (m *MemoryLedger) CompletedKeys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.done))
	for k := range m.done {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
