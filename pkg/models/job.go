package models

import (
	"strconv"
	"strings"
	"time"
)

// JobStatus represents the status of a job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusSkipped   JobStatus = "skipped" // filtered out on resume, not executed
)

// NoFold marks a job descriptor without a CV fold dimension
const NoFold = -1

// JobDescriptor identifies one schedulable unit of work within a phase.
// Descriptors are built per phase invocation and consumed once by the
// executor; only their completion is persisted (as a marker file).
type JobDescriptor struct {
	Phase     Phase
	Dataset   string     // dataset name; empty for run-level phases
	Fold      int        // CV fold index, or NoFold
	Algorithm *Algorithm // nil when the phase has no algorithm dimension
}

// Tag returns the file tag for this job: the algorithm tag for
// algorithm-dimension phases, the phase tag otherwise. This matches the
// marker naming convention where e.g. a MultiSURF scoring job is recorded
// as job_multisurf_<dataset>_<fold>.txt.
func (j JobDescriptor) Tag() string {
	if j.Algorithm != nil {
		return j.Algorithm.Tag
	}
	return j.Phase.Tag
}

// Key returns the deterministic unique key for this job. Unset dimensions
// are omitted, so two runs over the same inputs produce identical keys.
func (j JobDescriptor) Key() string {
	parts := []string{j.Tag()}
	if j.Dataset != "" {
		parts = append(parts, j.Dataset)
	}
	if j.Fold != NoFold {
		parts = append(parts, strconv.Itoa(j.Fold))
	}
	return strings.Join(parts, "_")
}

// JobRecord is one row of run history: the outcome of a single executed job
type JobRecord struct {
	RunID      string        `json:"run_id"`
	JobKey     string        `json:"job_key"`
	Phase      string        `json:"phase"`
	Dataset    string        `json:"dataset,omitempty"`
	Status     JobStatus     `json:"status"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	FinishedAt time.Time     `json:"finished_at"`
}
