// Package matrix expands a phase's declared dimensions into the concrete,
// deduplicated list of job descriptors for that phase.
package matrix

import (
	"strings"

	"github.com/psantana5/mlbatch/pkg/models"
)

// Inputs carries the dimension values known at a phase boundary
type Inputs struct {
	Datasets          []string       // dataset names, in discovery order
	FoldCounts        map[string]int // per-dataset discovered CV fold count
	FeatureAlgorithms []models.Algorithm
	ModelAlgorithms   []models.Algorithm
	Exclude           []string // algorithm names or tags removed before expansion
}

// Build returns the ordered job list for one phase: the cross-product over
// exactly the dimensions the phase declares, duplicates removed by unique
// key. Iteration order is deterministic (datasets as discovered, folds
// ascending, algorithms in configured order) so repeated calls with the same
// inputs produce the same key sequence.
func Build(phase models.Phase, in Inputs) []models.JobDescriptor {
	algorithms := in.algorithmsFor(phase)

	var jobs []models.JobDescriptor
	seen := make(map[string]bool)
	add := func(j models.JobDescriptor) {
		key := j.Key()
		if seen[key] {
			return
		}
		seen[key] = true
		jobs = append(jobs, j)
	}

	// Run-level phase: a single job with no dataset dimension.
	if !phase.Dims.Dataset {
		add(models.JobDescriptor{Phase: phase, Fold: models.NoFold})
		return jobs
	}

	for _, ds := range in.Datasets {
		switch {
		case phase.Dims.Fold && phase.Dims.Algorithm:
			for fold := 0; fold < in.FoldCounts[ds]; fold++ {
				for i := range algorithms {
					add(models.JobDescriptor{Phase: phase, Dataset: ds, Fold: fold, Algorithm: &algorithms[i]})
				}
			}
		case phase.Dims.Fold:
			for fold := 0; fold < in.FoldCounts[ds]; fold++ {
				add(models.JobDescriptor{Phase: phase, Dataset: ds, Fold: fold})
			}
		case phase.Dims.Algorithm:
			for i := range algorithms {
				add(models.JobDescriptor{Phase: phase, Dataset: ds, Fold: models.NoFold, Algorithm: &algorithms[i]})
			}
		default:
			add(models.JobDescriptor{Phase: phase, Dataset: ds, Fold: models.NoFold})
		}
	}
	return jobs
}

// algorithmsFor resolves the phase's algorithm list with exclusions applied
// before the cross-product, so an excluded algorithm never appears in any
// phase's job list.
func (in Inputs) algorithmsFor(phase models.Phase) []models.Algorithm {
	var source []models.Algorithm
	switch phase.AlgoClass {
	case models.AlgorithmClassFeature:
		source = in.FeatureAlgorithms
	case models.AlgorithmClassModel:
		source = in.ModelAlgorithms
	default:
		return nil
	}

	excluded := make(map[string]bool, len(in.Exclude))
	for _, name := range in.Exclude {
		excluded[strings.ToLower(name)] = true
	}

	var kept []models.Algorithm
	for _, alg := range source {
		if excluded[strings.ToLower(alg.Name)] || excluded[strings.ToLower(alg.Tag)] {
			continue
		}
		kept = append(kept, alg)
	}
	return kept
}
