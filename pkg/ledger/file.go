package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psantana5/mlbatch/pkg/layout"
)

// FileLedger is the filesystem-backed ledger: one marker file per job key
// under <experimentRoot>/jobsCompleted/. Distinct jobs write distinct keys,
// so no in-process locking is needed beyond what the filesystem provides.
type FileLedger struct {
	layout *layout.Layout
}

// NewFileLedger creates a ledger over the given artifact layout
func NewFileLedger(l *layout.Layout) *FileLedger {
	return &FileLedger{layout: l}
}

// IsComplete reports whether a valid marker exists for jobKey. A zero-byte
// or partial marker left by a crash mid-write reads as incomplete.
func (f *FileLedger) IsComplete(jobKey string) bool {
	data, err := os.ReadFile(f.layout.MarkerPath(jobKey))
	if err != nil {
		return false
	}
	return string(data) == CompletePayload
}

// Record writes the marker for jobKey. The payload is written to a
// temporary file and renamed into place so a crash never leaves a partial
// marker under the final name.
func (f *FileLedger) Record(jobKey string) error {
	dir := f.layout.JobsCompletedDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create marker directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "job_"+jobKey+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create marker temp file for %s: %w", jobKey, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(CompletePayload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write marker for %s: %w", jobKey, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync marker for %s: %w", jobKey, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close marker for %s: %w", jobKey, err)
	}
	if err := os.Rename(tmpName, f.layout.MarkerPath(jobKey)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize marker for %s: %w", jobKey, err)
	}
	return nil
}

// CompletedKeys lists every recorded job key, sorted
func (f *FileLedger) CompletedKeys() ([]string, error) {
	entries, err := os.ReadDir(f.layout.JobsCompletedDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list markers: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "job_") || filepath.Ext(name) != ".txt" {
			continue
		}
		key := strings.TrimSuffix(strings.TrimPrefix(name, "job_"), ".txt")
		if f.IsComplete(key) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
