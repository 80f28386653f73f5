// Package tasks holds the task bodies behind the scheduler's uniform job
// interface: the per-phase computations that read and write artifacts under
// the experiment root. Every body writes its output artifacts first, then
// its runtime record, and records its completion marker as the very last
// write, so a crash at any earlier point reads as "incomplete" on resume.
// Bodies are overwrite-safe: re-running one replaces its artifacts.
package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
	"github.com/psantana5/mlbatch/pkg/models"
)

// Runner binds job descriptors to task bodies
type Runner struct {
	Layout *layout.Layout
	Ledger ledger.Ledger

	Datasets      map[string]dataset.Dataset // by name
	ClassLabel    string
	InstanceLabel string
	Folds         int   // configured CV fold count for partitioning
	Seed          int64 // deterministic shuffle seed

	FeatureAlgorithms []models.Algorithm
	ModelAlgorithms   []models.Algorithm
}

// Bind returns the task body for a job descriptor. An unknown phase or
// algorithm is a configuration error surfaced before the phase starts.
func (r *Runner) Bind(d models.JobDescriptor) (func() error, error) {
	var body func(models.JobDescriptor) error
	switch d.Phase.Tag {
	case models.TagExploratory:
		body = r.runExploratory
	case models.TagDataProcess:
		body = r.runDataProcess
	case models.TagFeatureImp:
		body = r.runFeatureImportance
	case models.TagFeatureSelection:
		body = r.runFeatureSelection
	case models.TagModeling:
		body = r.runModeling
	case models.TagStats:
		body = r.runStats
	case models.TagCompare:
		body = r.runCompare
	case models.TagReport:
		body = r.runReport
	default:
		return nil, fmt.Errorf("unknown phase tag %q", d.Phase.Tag)
	}
	return func() error {
		start := time.Now()
		if err := body(d); err != nil {
			return err
		}
		return r.finish(d, start)
	}, nil
}

// finish writes the runtime record and then the completion marker. The
// marker is the last write; a Record failure is fatal for the job because
// downstream phases rely on accurate completion state.
func (r *Runner) finish(d models.JobDescriptor, start time.Time) error {
	if d.Dataset != "" {
		if err := r.Layout.WriteRuntime(d.Dataset, d.Tag(), d.Fold, time.Since(start)); err != nil {
			return err
		}
	}
	return r.Ledger.Record(d.Key())
}

// input returns the discovered input dataset for a descriptor
func (r *Runner) input(d models.JobDescriptor) (dataset.Dataset, error) {
	ds, ok := r.Datasets[d.Dataset]
	if !ok {
		return dataset.Dataset{}, fmt.Errorf("unknown dataset %q", d.Dataset)
	}
	return ds, nil
}

// cvTable loads one CV partition file produced by the data-process phase
func (r *Runner) cvTable(path string) (*dataset.Table, error) {
	ds := dataset.Dataset{Name: path, Path: path, Comma: ','}
	return ds.Load()
}

// modelCatalog is the set of model algorithms this build knows how to fit
var modelCatalog = []models.Algorithm{
	{Name: "Logistic Regression", Tag: "logistic_regression"},
	{Name: "Decision Tree", Tag: "decision_tree"},
	{Name: "Random Forest", Tag: "random_forest"},
	{Name: "Naive Bayes", Tag: "naive_bayes"},
	{Name: "XCS", Tag: "XCS"},
	{Name: "eLCS", Tag: "eLCS"},
}

// ResolveModelAlgorithms maps configured names or tags to catalog entries.
// An unknown name is a configuration error raised before any job is
// scheduled.
func ResolveModelAlgorithms(names []string) ([]models.Algorithm, error) {
	if len(names) == 0 {
		out := make([]models.Algorithm, len(modelCatalog))
		copy(out, modelCatalog)
		return out, nil
	}
	var out []models.Algorithm
	for _, name := range names {
		found := false
		for _, alg := range modelCatalog {
			if strings.EqualFold(name, alg.Name) || strings.EqualFold(name, alg.Tag) {
				out = append(out, alg)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown model algorithm %q", name)
		}
	}
	return out, nil
}

// ResolveFeatureAlgorithms maps configured names, tags or short codes
// ("MI", "MS") to the built-in feature-scoring algorithms
func ResolveFeatureAlgorithms(names []string) ([]models.Algorithm, error) {
	catalog := models.FeatureAlgorithms()
	if len(names) == 0 {
		return catalog, nil
	}
	short := map[string]string{"mi": "mutual_information", "ms": "multisurf"}
	var out []models.Algorithm
	for _, name := range names {
		want := strings.ToLower(name)
		if tag, ok := short[want]; ok {
			want = tag
		}
		found := false
		for _, alg := range catalog {
			if strings.EqualFold(want, alg.Name) || want == alg.Tag {
				out = append(out, alg)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown feature algorithm %q", name)
		}
	}
	return out, nil
}
