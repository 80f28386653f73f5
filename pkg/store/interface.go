package store

import (
	"github.com/psantana5/mlbatch/pkg/models"
)

// RunInfo describes one pipeline invocation
type RunInfo struct {
	ID         string `json:"id"`
	Experiment string `json:"experiment"`
	StartedAt  string `json:"started_at"`
	State      string `json:"state"`
}

// Store defines the interface for run-history persistence. History is
// diagnostic only: completion markers remain the sole resume signal, so a
// lost history database never causes re-work or skipped work.
// Both SQLite and the in-memory store implement this interface.
type Store interface {
	// Run operations
	CreateRun(run *RunInfo) error
	UpdateRunState(id, state string) error
	GetRun(id string) (*RunInfo, error)
	ListRuns() ([]*RunInfo, error)

	// Job record operations
	AppendJobRecord(rec *models.JobRecord) error
	GetJobRecords(runID string) ([]*models.JobRecord, error)

	Close() error
}
