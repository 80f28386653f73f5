package store

import (
	"errors"
	"sync"

	"github.com/psantana5/mlbatch/pkg/models"
)

var ErrRunNotFound = errors.New("run not found")

// MemoryStore is an in-memory implementation of the run-history store
type MemoryStore struct {
	mu      sync.RWMutex
	runs    map[string]*RunInfo
	order   []string // run IDs in creation order
	records map[string][]*models.JobRecord
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:    make(map[string]*RunInfo),
		records: make(map[string][]*models.JobRecord),
	}
}

// CreateRun registers a new run
func (s *MemoryStore) CreateRun(run *RunInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	s.order = append(s.order, run.ID)
	return nil
}

// UpdateRunState updates the lifecycle state of a run
func (s *MemoryStore) UpdateRunState(id, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return ErrRunNotFound
	}
	run.State = state
	return nil
}

// GetRun retrieves a run by ID
func (s *MemoryStore) GetRun(id string) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

// ListRuns returns all runs in creation order
func (s *MemoryStore) ListRuns() ([]*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	runs := make([]*RunInfo, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.runs[id]
		runs = append(runs, &cp)
	}
	return runs, nil
}

// AppendJobRecord adds one executed-job record to its run's history
func (s *MemoryStore) AppendJobRecord(rec *models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.RunID] = append(s.records[rec.RunID], &cp)
	return nil
}

// GetJobRecords returns a run's job records in append order
func (s *MemoryStore) GetJobRecords(runID string) ([]*models.JobRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := make([]*models.JobRecord, 0, len(s.records[runID]))
	for _, r := range s.records[runID] {
		cp := *r
		recs = append(recs, &cp)
	}
	return recs, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
