package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
	"github.com/psantana5/mlbatch/pkg/logging"
	"github.com/psantana5/mlbatch/pkg/metrics"
	"github.com/psantana5/mlbatch/pkg/models"
	"github.com/psantana5/mlbatch/pkg/pipeline"
	"github.com/psantana5/mlbatch/pkg/store"
	"github.com/psantana5/mlbatch/pkg/tasks"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full phase sequence, resuming completed work",
	Long: `Runs every phase in order over the datasets found in the input
directory. Jobs with an existing completion marker are skipped, so
re-invoking after an interruption only executes the remaining work.`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("input-dir", "", "directory of input datasets (csv/tsv/txt)")
	runCmd.Flags().Int("workers", 0, "worker budget per phase (default: environment or host cores)")
	runCmd.Flags().String("metrics-listen", "", "serve Prometheus metrics on this address during the run")
	viper.BindPFlag("input_dir", runCmd.Flags().Lookup("input-dir"))
	viper.BindPFlag("workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("metrics_listen", runCmd.Flags().Lookup("metrics-listen"))
}

func runPipeline(cmd *cobra.Command, args []string) error {
	root := viper.GetString("experiment_dir")
	lay := layout.New(root)
	if err := lay.Ensure(); err != nil {
		return err
	}

	log, err := logging.NewFileLogger(lay.LogsDir(), logging.ParseLevel(viper.GetString("log_level")), false)
	if err != nil {
		return err
	}
	defer log.Close()

	// Configuration errors surface here, before any job is scheduled
	datasets, err := dataset.Discover(viper.GetString("input_dir"))
	if err != nil {
		return err
	}
	featureAlgs, err := tasks.ResolveFeatureAlgorithms(viper.GetStringSlice("feature_algorithms"))
	if err != nil {
		return err
	}
	modelAlgs, err := tasks.ResolveModelAlgorithms(viper.GetStringSlice("model_algorithms"))
	if err != nil {
		return err
	}

	byName := make(map[string]dataset.Dataset, len(datasets))
	for _, ds := range datasets {
		if err := lay.EnsureDataset(ds.Name); err != nil {
			return err
		}
		byName[ds.Name] = ds
	}

	led := ledger.NewFileLedger(lay)
	runID := uuid.New().String()

	var history store.Store
	if viper.GetBool("history") {
		history, err = store.NewSQLiteStore(filepath.Join(root, "history.db"))
		if err != nil {
			// History is diagnostic only; a broken database must not block the run
			log.Warn("Run history unavailable", map[string]interface{}{"error": err.Error()})
			history = nil
		} else {
			defer history.Close()
			history.CreateRun(&store.RunInfo{
				ID:         runID,
				Experiment: root,
				StartedAt:  time.Now().Format(time.RFC3339),
				State:      string(models.RunNotStarted),
			})
		}
	}

	var m *metrics.Metrics
	if addr := viper.GetString("metrics_listen"); addr != "" {
		m = metrics.New()
		m.Serve(addr)
		log.Info("Metrics endpoint started", map[string]interface{}{"addr": addr})
	}

	runner := &tasks.Runner{
		Layout:            lay,
		Ledger:            led,
		Datasets:          byName,
		ClassLabel:        viper.GetString("class_label"),
		InstanceLabel:     viper.GetString("instance_label"),
		Folds:             viper.GetInt("cv_folds"),
		Seed:              viper.GetInt64("seed"),
		FeatureAlgorithms: featureAlgs,
		ModelAlgorithms:   modelAlgs,
	}

	seq := &pipeline.Sequencer{
		Phases:            models.StandardPhases(),
		Datasets:          datasets,
		Layout:            lay,
		Ledger:            led,
		Tasks:             runner,
		Log:               log,
		FeatureAlgorithms: featureAlgs,
		ModelAlgorithms:   modelAlgs,
		Exclude:           viper.GetStringSlice("exclude"),
		WorkerOverride:    viper.GetInt("workers"),
		RunID:             runID,
		Metrics:           m,
		History:           history,
	}

	log.Info("Pipeline starting", map[string]interface{}{
		"run_id":   runID,
		"datasets": len(datasets),
	})
	start := time.Now()
	runErr := seq.Run()

	printRunSummary(history, runID, time.Since(start))
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", runID, runErr)
	}
	fmt.Printf("\nRun %s complete in %s\n", runID, time.Since(start).Round(time.Second))
	return nil
}

// printRunSummary renders per-phase outcome counts from the run history
func printRunSummary(history store.Store, runID string, elapsed time.Duration) {
	if history == nil {
		return
	}
	records, err := history.GetJobRecords(runID)
	if err != nil || len(records) == 0 {
		return
	}

	type counts struct{ completed, skipped, failed int }
	perPhase := make(map[string]*counts)
	var order []string
	for _, rec := range records {
		c, ok := perPhase[rec.Phase]
		if !ok {
			c = &counts{}
			perPhase[rec.Phase] = c
			order = append(order, rec.Phase)
		}
		switch rec.Status {
		case models.JobStatusCompleted:
			c.completed++
		case models.JobStatusSkipped:
			c.skipped++
		case models.JobStatusFailed:
			c.failed++
		}
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Phase", "Completed", "Skipped", "Failed")
	for _, phase := range order {
		c := perPhase[phase]
		table.Append(phase, strconv.Itoa(c.completed), strconv.Itoa(c.skipped), strconv.Itoa(c.failed))
	}
	table.Render()
}
