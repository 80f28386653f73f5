package layout

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// WriteRuntime exports the elapsed wall-clock time for one job as a decimal
// seconds string. Records are diagnostic only and never read back by the
// pipeline.
func (l *Layout) WriteRuntime(dataset, tag string, fold int, elapsed time.Duration) error {
	if err := os.MkdirAll(l.RuntimeDir(dataset), 0755); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}
	path := l.RuntimePath(dataset, tag, fold)
	payload := strconv.FormatFloat(elapsed.Seconds(), 'f', -1, 64)
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		return fmt.Errorf("failed to write runtime record %s: %w", path, err)
	}
	return nil
}
