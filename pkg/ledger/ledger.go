// Package ledger records durable proof that individual pipeline jobs
// finished. Marker presence is the sole resume signal: a missing, empty or
// partial marker means "not complete" and the job is re-run from scratch.
package ledger

// CompletePayload is the fixed content of every completion marker
const CompletePayload = "complete"

// Ledger defines the completion-record interface.
// Both the file-backed and in-memory implementations satisfy it.
type Ledger interface {
	// IsComplete reports whether a completion marker exists for jobKey.
	// Safe for concurrent use; read-only.
	IsComplete(jobKey string) bool

	// Record durably writes the marker for jobKey. It must be called only
	// after the job's output artifacts are already durably written (the
	// marker is the last write). A Record failure is fatal for the job.
	Record(jobKey string) error

	// CompletedKeys returns every recorded job key, sorted.
	CompletedKeys() ([]string, error)
}
