package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live-tail job completions for a running experiment",
	Long: `Watches the experiment's jobsCompleted directory and prints each job
key as its completion marker appears. Useful for following a long run from
another terminal or a login node.

Example:
  mlbatch watch --experiment-dir ./experiment`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	lay := layout.New(viper.GetString("experiment_dir"))
	dir := lay.JobsCompletedDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	led := ledger.NewFileLedger(lay)
	existing, err := led.CompletedKeys()
	if err != nil {
		return err
	}
	fmt.Printf("Watching %s (%d jobs already complete)\n", dir, len(existing))

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Base(event.Name)
			if !strings.HasPrefix(name, "job_") || !strings.HasSuffix(name, ".txt") {
				continue
			}
			key := strings.TrimSuffix(strings.TrimPrefix(name, "job_"), ".txt")
			fmt.Printf("[%s] complete: %s\n", time.Now().Format("15:04:05"), key)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "watch error: %v\n", err)
		case <-sigCh:
			fmt.Println("\nStopped watching")
			return nil
		}
	}
}
