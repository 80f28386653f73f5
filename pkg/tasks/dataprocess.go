package tasks

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// runDataProcess drops rows with a missing outcome and writes the k CV
// train/test partition files. Later phases discover the fold count by
// scanning the CVDatasets directory, so these files are the dimension
// source for every fold-level job matrix.
func (r *Runner) runDataProcess(d models.JobDescriptor) error {
	ds, err := r.input(d)
	if err != nil {
		return err
	}
	table, err := ds.Load()
	if err != nil {
		return err
	}
	classIdx := table.ColumnIndex(r.ClassLabel)
	if classIdx < 0 {
		return fmt.Errorf("dataset %s: %w: %s", d.Dataset, dataset.ErrMissingLabel, r.ClassLabel)
	}

	// Basic cleaning: drop instances with a missing outcome value
	var rows [][]string
	for _, row := range table.Rows {
		if classIdx < len(row) && row[classIdx] != "" && row[classIdx] != "NA" {
			rows = append(rows, row)
		}
	}
	if len(rows) < r.Folds {
		return fmt.Errorf("dataset %s has %d usable instances, fewer than %d folds", d.Dataset, len(rows), r.Folds)
	}

	// Deterministic shuffle so re-runs reproduce identical partitions
	rng := rand.New(rand.NewSource(r.Seed))
	shuffled := make([][]string, len(rows))
	copy(shuffled, rows)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if err := os.MkdirAll(r.Layout.CVDatasetsDir(d.Dataset), 0755); err != nil {
		return fmt.Errorf("failed to create CV directory: %w", err)
	}

	// Fold i takes every k-th row as its test partition; the rest train.
	for fold := 0; fold < r.Folds; fold++ {
		var train, test [][]string
		for i, row := range shuffled {
			if i%r.Folds == fold {
				test = append(test, row)
			} else {
				train = append(train, row)
			}
		}
		if err := dataset.WriteCSV(r.Layout.CVTrainPath(d.Dataset, fold), table.Header, train); err != nil {
			return err
		}
		if err := dataset.WriteCSV(r.Layout.CVTestPath(d.Dataset, fold), table.Header, test); err != nil {
			return err
		}
	}
	return nil
}
