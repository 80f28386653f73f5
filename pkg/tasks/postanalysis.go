package tasks

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// foldAccuracy reads one model's accuracy metric if the modeling job
// produced it. Absence is a valid result: the algorithm may be excluded.
func (r *Runner) foldAccuracy(ds, algTag string, fold int) (float64, bool, error) {
	path := r.Layout.ModelMetricsPath(ds, algTag, fold)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	table, err := r.cvTable(path)
	if err != nil {
		return 0, false, err
	}
	for _, row := range table.Rows {
		if len(row) == 2 && row[0] == "accuracy" {
			v, err := strconv.ParseFloat(row[1], 64)
			if err != nil {
				return 0, false, fmt.Errorf("bad accuracy value in %s: %w", path, err)
			}
			return v, true, nil
		}
	}
	return 0, false, nil
}

// runStats aggregates per-fold model metrics into a cross-fold summary for
// one dataset: mean and standard deviation of accuracy per algorithm.
func (r *Runner) runStats(d models.JobDescriptor) error {
	folds, err := dataset.FoldCount(r.Layout.CVDatasetsDir(d.Dataset), d.Dataset)
	if err != nil {
		return err
	}

	var rows [][]string
	for _, alg := range r.ModelAlgorithms {
		var accs []float64
		for fold := 0; fold < folds; fold++ {
			acc, ok, err := r.foldAccuracy(d.Dataset, alg.Tag, fold)
			if err != nil {
				return err
			}
			if ok {
				accs = append(accs, acc)
			}
		}
		if len(accs) == 0 {
			continue
		}
		rows = append(rows, []string{
			alg.Tag,
			strconv.FormatFloat(mean(accs), 'f', 6, 64),
			strconv.FormatFloat(stddev(accs), 'f', 6, 64),
			strconv.Itoa(len(accs)),
		})
	}
	if len(rows) == 0 {
		return fmt.Errorf("dataset %s has no model metrics to summarize", d.Dataset)
	}

	if err := os.MkdirAll(r.Layout.StatsDir(d.Dataset), 0755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}
	return dataset.WriteCSV(r.Layout.StatsSummaryPath(d.Dataset),
		[]string{"algorithm", "mean_accuracy", "std_accuracy", "folds"}, rows)
}

// runCompare joins every dataset's cross-fold summary into one run-level
// comparison table
func (r *Runner) runCompare(models.JobDescriptor) error {
	names := make([]string, 0, len(r.Datasets))
	for name := range r.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows [][]string
	for _, ds := range names {
		table, err := r.cvTable(r.Layout.StatsSummaryPath(ds))
		if err != nil {
			return err
		}
		for _, row := range table.Rows {
			if len(row) >= 2 {
				rows = append(rows, []string{ds, row[0], row[1]})
			}
		}
	}
	return dataset.WriteCSV(r.Layout.ComparePath(),
		[]string{"dataset", "algorithm", "mean_accuracy"}, rows)
}

// reportManifest is the run-level summary emitted by the report phase
type reportManifest struct {
	Datasets          []reportDataset `yaml:"datasets"`
	FeatureAlgorithms []string        `yaml:"feature_algorithms"`
	ModelAlgorithms   []string        `yaml:"model_algorithms"`
	CompletedJobs     int             `yaml:"completed_jobs"`
}

type reportDataset struct {
	Name  string `yaml:"name"`
	Folds int    `yaml:"folds"`
}

// runReport writes the run manifest: datasets, fold counts, algorithm lists
// and how many jobs the ledger has recorded
func (r *Runner) runReport(models.JobDescriptor) error {
	names := make([]string, 0, len(r.Datasets))
	for name := range r.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	manifest := reportManifest{}
	for _, ds := range names {
		folds, err := dataset.FoldCount(r.Layout.CVDatasetsDir(ds), ds)
		if err != nil {
			return err
		}
		manifest.Datasets = append(manifest.Datasets, reportDataset{Name: ds, Folds: folds})
	}
	for _, alg := range r.FeatureAlgorithms {
		manifest.FeatureAlgorithms = append(manifest.FeatureAlgorithms, alg.Tag)
	}
	for _, alg := range r.ModelAlgorithms {
		manifest.ModelAlgorithms = append(manifest.ModelAlgorithms, alg.Tag)
	}
	keys, err := r.Ledger.CompletedKeys()
	if err != nil {
		return err
	}
	manifest.CompletedJobs = len(keys)

	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal report manifest: %w", err)
	}
	if err := os.WriteFile(r.Layout.SummaryPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write report manifest: %w", err)
	}
	return nil
}
