package tasks

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// ScoreSet is the per-fold feature-importance handoff consumed by the
// feature-selection phase
type ScoreSet struct {
	Algorithm string
	Scores    map[string]float64
	Ranked    []string // feature names, best first
}

// runFeatureImportance scores every feature of one CV training partition
// with the job's algorithm and writes both a human-readable score CSV and
// the encoded handoff blob for phase 4.
func (r *Runner) runFeatureImportance(d models.JobDescriptor) error {
	if d.Algorithm == nil {
		return fmt.Errorf("feature importance job %s has no algorithm", d.Key())
	}
	table, err := r.cvTable(r.Layout.CVTrainPath(d.Dataset, d.Fold))
	if err != nil {
		return err
	}
	classIdx := table.ColumnIndex(r.ClassLabel)
	if classIdx < 0 {
		return fmt.Errorf("dataset %s: %w: %s", d.Dataset, dataset.ErrMissingLabel, r.ClassLabel)
	}
	class := numericColumn(table, classIdx)

	scores := make(map[string]float64)
	for i, name := range table.Header {
		if name == r.ClassLabel || name == r.InstanceLabel {
			continue
		}
		feature := numericColumn(table, i)
		switch d.Algorithm.Tag {
		case "mutual_information":
			scores[name] = math.Abs(correlation(feature, class))
		case "multisurf":
			scores[name] = classSeparation(feature, class)
		default:
			return fmt.Errorf("unknown feature algorithm %q", d.Algorithm.Tag)
		}
	}

	set := &ScoreSet{Algorithm: d.Algorithm.Tag, Scores: scores, Ranked: rankFeatures(scores)}

	if err := r.Layout.EnsureFeatureSelection(d.Dataset, d.Algorithm.Tag); err != nil {
		return err
	}
	var rows [][]string
	for _, name := range set.Ranked {
		rows = append(rows, []string{name, strconv.FormatFloat(scores[name], 'f', 6, 64)})
	}
	if err := dataset.WriteCSV(r.Layout.ScoreCSVPath(d.Dataset, d.Algorithm.Tag, d.Fold),
		[]string{"feature", "score"}, rows); err != nil {
		return err
	}
	return writeGob(r.Layout.ScoreHandoffPath(d.Dataset, d.Algorithm.Tag, d.Fold), set)
}

// rankFeatures orders feature names by descending score, ties broken by
// name so the ranking is deterministic
func rankFeatures(scores map[string]float64) []string {
	ranked := make([]string, 0, len(scores))
	for name := range scores {
		ranked = append(ranked, name)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})
	return ranked
}

// numericColumn parses one column as float64; unparseable cells become NaN
func numericColumn(t *dataset.Table, idx int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		if idx >= len(row) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

// correlation returns the Pearson correlation of two columns, ignoring rows
// where either value is NaN
func correlation(x, y []float64) float64 {
	var sx, sy, sxx, syy, sxy float64
	n := 0
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		sx += x[i]
		sy += y[i]
		sxx += x[i] * x[i]
		syy += y[i] * y[i]
		sxy += x[i] * y[i]
		n++
	}
	if n < 2 {
		return 0
	}
	fn := float64(n)
	cov := sxy - sx*sy/fn
	vx := sxx - sx*sx/fn
	vy := syy - sy*sy/fn
	if vx <= 0 || vy <= 0 {
		return 0
	}
	return cov / math.Sqrt(vx*vy)
}

// classSeparation scores a feature by the spread of its class-conditional
// means relative to its overall standard deviation
func classSeparation(feature, class []float64) float64 {
	groups := make(map[float64][]float64)
	var all []float64
	for i := range feature {
		if math.IsNaN(feature[i]) || math.IsNaN(class[i]) {
			continue
		}
		groups[class[i]] = append(groups[class[i]], feature[i])
		all = append(all, feature[i])
	}
	if len(groups) < 2 || len(all) < 2 {
		return 0
	}
	sd := stddev(all)
	if sd == 0 {
		return 0
	}
	var means []float64
	for _, vals := range groups {
		means = append(means, mean(vals))
	}
	return stddev(means) / sd
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

// writeGob encodes a value to a file, creating parent state as the caller
// arranged beforehand
func writeGob(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// readGob decodes a value from a file
func readGob(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if err := gob.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
