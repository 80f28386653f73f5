package tasks

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// lookupScoreSet loads one fold's score handoff if it exists. A missing
// blob is an explicit "not present" result, not an error: an algorithm may
// have been excluded in the run that produced the artifacts.
func (r *Runner) lookupScoreSet(ds, algTag string, fold int) (*ScoreSet, bool, error) {
	path := r.Layout.ScoreHandoffPath(ds, algTag, fold)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	var set ScoreSet
	if err := readGob(path, &set); err != nil {
		return nil, false, err
	}
	return &set, true, nil
}

// runFeatureSelection aggregates the per-fold, per-algorithm importance
// scores written by phase 3 into a single ranked list and keeps the top
// half, which the modeling phase uses as its feature subset.
func (r *Runner) runFeatureSelection(d models.JobDescriptor) error {
	folds, err := dataset.FoldCount(r.Layout.CVDatasetsDir(d.Dataset), d.Dataset)
	if err != nil {
		return err
	}
	if folds == 0 {
		return fmt.Errorf("dataset %s has no CV partitions", d.Dataset)
	}

	totals := make(map[string]float64)
	counts := make(map[string]int)
	loaded := 0
	for _, alg := range r.FeatureAlgorithms {
		for fold := 0; fold < folds; fold++ {
			set, ok, err := r.lookupScoreSet(d.Dataset, alg.Tag, fold)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			loaded++
			for name, score := range set.Scores {
				totals[name] += score
				counts[name]++
			}
		}
	}
	if loaded == 0 {
		return fmt.Errorf("dataset %s has no importance scores to aggregate", d.Dataset)
	}

	avg := make(map[string]float64, len(totals))
	for name, total := range totals {
		avg[name] = total / float64(counts[name])
	}
	ranked := rankFeatures(avg)

	// Keep the better-scoring half, at least one feature
	keep := len(ranked) / 2
	if keep < 1 {
		keep = 1
	}
	selected := ranked[:keep]
	sort.Strings(selected)

	var rows [][]string
	for _, name := range selected {
		rows = append(rows, []string{name, strconv.FormatFloat(avg[name], 'f', 6, 64)})
	}
	return dataset.WriteCSV(r.Layout.SelectedFeaturesPath(d.Dataset),
		[]string{"feature", "mean_score"}, rows)
}

// selectedFeatures reads back the feature subset chosen by phase 4
func (r *Runner) selectedFeatures(ds string) ([]string, error) {
	table, err := r.cvTable(r.Layout.SelectedFeaturesPath(ds))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, row := range table.Rows {
		if len(row) > 0 {
			names = append(names, row[0])
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("dataset %s has an empty selected-feature list", ds)
	}
	return names, nil
}
