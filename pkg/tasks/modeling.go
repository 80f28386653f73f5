package tasks

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// Model is the serialized result of one modeling job: a fitted
// nearest-centroid classifier over the selected feature subset. The
// classifier is a uniform stand-in body; each configured algorithm tag gets
// its own fitted artifact and metrics file.
type Model struct {
	Algorithm string
	Features  []string
	Centroids map[float64][]float64 // class value -> per-feature means
}

// runModeling fits a model on one CV training partition, evaluates it on
// the matching test partition and serializes both the model and its
// metrics.
func (r *Runner) runModeling(d models.JobDescriptor) error {
	if d.Algorithm == nil {
		return fmt.Errorf("modeling job %s has no algorithm", d.Key())
	}
	features, err := r.selectedFeatures(d.Dataset)
	if err != nil {
		return err
	}
	train, err := r.cvTable(r.Layout.CVTrainPath(d.Dataset, d.Fold))
	if err != nil {
		return err
	}
	test, err := r.cvTable(r.Layout.CVTestPath(d.Dataset, d.Fold))
	if err != nil {
		return err
	}

	model, err := fit(d.Algorithm.Tag, train, features, r.ClassLabel)
	if err != nil {
		return fmt.Errorf("dataset %s fold %d: %w", d.Dataset, d.Fold, err)
	}
	accuracy, err := evaluate(model, test, r.ClassLabel)
	if err != nil {
		return fmt.Errorf("dataset %s fold %d: %w", d.Dataset, d.Fold, err)
	}

	if err := os.MkdirAll(r.Layout.ModelsDir(d.Dataset), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	if err := writeGob(r.Layout.ModelPath(d.Dataset, d.Algorithm.Tag, d.Fold), model); err != nil {
		return err
	}
	return dataset.WriteCSV(r.Layout.ModelMetricsPath(d.Dataset, d.Algorithm.Tag, d.Fold),
		[]string{"metric", "value"},
		[][]string{{"accuracy", strconv.FormatFloat(accuracy, 'f', 6, 64)}})
}

// fit computes per-class centroids of the selected features
func fit(algTag string, train *dataset.Table, features []string, classLabel string) (*Model, error) {
	classIdx := train.ColumnIndex(classLabel)
	if classIdx < 0 {
		return nil, fmt.Errorf("%w: %s", dataset.ErrMissingLabel, classLabel)
	}
	idx := make([]int, len(features))
	for i, name := range features {
		idx[i] = train.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("selected feature %q missing from training partition", name)
		}
	}
	class := numericColumn(train, classIdx)

	sums := make(map[float64][]float64)
	ns := make(map[float64][]int)
	for row := range train.Rows {
		c := class[row]
		if math.IsNaN(c) {
			continue
		}
		if _, ok := sums[c]; !ok {
			sums[c] = make([]float64, len(features))
			ns[c] = make([]int, len(features))
		}
		for fi, col := range idx {
			v, err := strconv.ParseFloat(train.Rows[row][col], 64)
			if err != nil {
				continue
			}
			sums[c][fi] += v
			ns[c][fi]++
		}
	}
	if len(sums) < 2 {
		return nil, fmt.Errorf("training partition has fewer than two classes")
	}

	centroids := make(map[float64][]float64, len(sums))
	for c, sum := range sums {
		centroid := make([]float64, len(features))
		for fi := range sum {
			if ns[c][fi] > 0 {
				centroid[fi] = sum[fi] / float64(ns[c][fi])
			}
		}
		centroids[c] = centroid
	}
	return &Model{Algorithm: algTag, Features: features, Centroids: centroids}, nil
}

// evaluate returns the model's accuracy on a test partition
func evaluate(m *Model, test *dataset.Table, classLabel string) (float64, error) {
	classIdx := test.ColumnIndex(classLabel)
	if classIdx < 0 {
		return 0, fmt.Errorf("%w: %s", dataset.ErrMissingLabel, classLabel)
	}
	idx := make([]int, len(m.Features))
	for i, name := range m.Features {
		idx[i] = test.ColumnIndex(name)
		if idx[i] < 0 {
			return 0, fmt.Errorf("selected feature %q missing from test partition", name)
		}
	}
	class := numericColumn(test, classIdx)

	correct, total := 0, 0
	for row := range test.Rows {
		if math.IsNaN(class[row]) {
			continue
		}
		best, bestDist := math.NaN(), math.Inf(1)
		for c, centroid := range m.Centroids {
			var dist float64
			for fi, col := range idx {
				v, err := strconv.ParseFloat(test.Rows[row][col], 64)
				if err != nil {
					continue
				}
				diff := v - centroid[fi]
				dist += diff * diff
			}
			if dist < bestDist {
				best, bestDist = c, dist
			}
		}
		total++
		if best == class[row] {
			correct++
		}
	}
	if total == 0 {
		return 0, fmt.Errorf("test partition has no usable instances")
	}
	return float64(correct) / float64(total), nil
}
