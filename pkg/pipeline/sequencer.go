// Package pipeline drives the fixed phase sequence of a run. Every phase is
// fully resolved (all jobs completed or skipped) before the next phase's job
// matrix is even constructed, because later matrices depend on artifacts
// earlier phases produce.
package pipeline

import (
	"fmt"
	"time"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/executor"
	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
	"github.com/psantana5/mlbatch/pkg/logging"
	"github.com/psantana5/mlbatch/pkg/matrix"
	"github.com/psantana5/mlbatch/pkg/metrics"
	"github.com/psantana5/mlbatch/pkg/models"
	"github.com/psantana5/mlbatch/pkg/store"
	"github.com/psantana5/mlbatch/pkg/workers"
)

// TaskSet binds a job descriptor to its task body. Implementations own all
// domain computation; the sequencer only schedules. A Bind error is a
// configuration error and aborts the run before any job of the phase starts.
type TaskSet interface {
	Bind(d models.JobDescriptor) (func() error, error)
}

// Sequencer executes the phase sequence over the discovered datasets
type Sequencer struct {
	Phases   []models.Phase
	Datasets []dataset.Dataset
	Layout   *layout.Layout
	Ledger   ledger.Ledger
	Tasks    TaskSet
	Log      *logging.Logger

	FeatureAlgorithms []models.Algorithm
	ModelAlgorithms   []models.Algorithm
	Exclude           []string

	// WorkerOverride, when positive, pins the worker budget; otherwise it
	// is resolved per phase from the environment or host core count.
	WorkerOverride int

	RunID   string
	Metrics *metrics.Metrics // optional
	History store.Store      // optional

	state       models.RunState
	failedPhase string
}

// State returns the run's current lifecycle state
func (s *Sequencer) State() models.RunState {
	if s.state == "" {
		return models.RunNotStarted
	}
	return s.state
}

// FailedPhase returns the name of the phase that failed, if any
func (s *Sequencer) FailedPhase() string {
	return s.failedPhase
}

// transition moves the run state, enforcing the transition table
func (s *Sequencer) transition(to models.RunState) error {
	if err := models.ValidateTransition(s.State(), to); err != nil {
		return err
	}
	s.state = to
	if s.History != nil && s.RunID != "" {
		if err := s.History.UpdateRunState(s.RunID, string(to)); err != nil {
			s.Log.Warn("Failed to update run history state", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Run executes all phases in order. It returns on the first phase failure;
// already-written completion markers stay valid and are honored when the
// operator re-invokes the run.
func (s *Sequencer) Run() error {
	if err := s.transition(models.RunRunning); err != nil {
		return err
	}

	for _, phase := range s.Phases {
		if err := s.runPhase(phase); err != nil {
			s.failedPhase = phase.Name
			if terr := s.transition(models.RunFailed); terr != nil {
				s.Log.Warn("State transition failed", map[string]interface{}{"error": terr.Error()})
			}
			return fmt.Errorf("phase %q: %w", phase.Name, err)
		}
		if err := s.transition(models.RunRunning); err != nil {
			return err
		}
	}

	if err := s.transition(models.RunDone); err != nil {
		return err
	}
	s.Log.Info("Pipeline complete")
	return nil
}

// runPhase resolves one phase: refresh dimension knowledge, build the job
// matrix, filter already-completed jobs, execute the remainder.
func (s *Sequencer) runPhase(phase models.Phase) error {
	if s.Metrics != nil {
		s.Metrics.SetPhase(phase.Ordinal)
	}
	start := time.Now()

	inputs, err := s.refreshDimensions(phase)
	if err != nil {
		return err
	}

	jobs := matrix.Build(phase, inputs)
	pending := s.filterCompleted(phase, jobs)

	s.Log.Info("Phase starting", map[string]interface{}{
		"phase":   phase.Name,
		"jobs":    len(jobs),
		"skipped": len(jobs) - len(pending),
	})

	if len(pending) > 0 {
		budget := workers.Budget(s.WorkerOverride)
		execJobs, err := s.bind(pending)
		if err != nil {
			return err
		}
		exec := &executor.Executor{Workers: budget, OnDone: s.observeJob}
		s.Log.Info("Executing jobs", map[string]interface{}{
			"phase":   phase.Name,
			"pending": len(pending),
			"workers": budget,
		})
		if err := exec.Run(execJobs); err != nil {
			return err
		}
	}

	s.Log.Info("Phase complete", map[string]interface{}{
		"phase":   phase.Name,
		"elapsed": time.Since(start).Round(time.Millisecond).String(),
	})
	return nil
}

// refreshDimensions re-reads dimension knowledge from prior-phase artifacts
// at the phase boundary. Fold counts only exist once the data-process phase
// has written partition files; a fold-dependent phase finding zero folds is
// a configuration error, not an empty matrix.
func (s *Sequencer) refreshDimensions(phase models.Phase) (matrix.Inputs, error) {
	in := matrix.Inputs{
		FoldCounts:        make(map[string]int),
		FeatureAlgorithms: s.FeatureAlgorithms,
		ModelAlgorithms:   s.ModelAlgorithms,
		Exclude:           s.Exclude,
	}
	for _, ds := range s.Datasets {
		in.Datasets = append(in.Datasets, ds.Name)
		if !phase.Dims.Fold {
			continue
		}
		folds, err := dataset.FoldCount(s.Layout.CVDatasetsDir(ds.Name), ds.Name)
		if err != nil {
			return in, err
		}
		if folds == 0 {
			return in, fmt.Errorf("dataset %s has no CV partitions; data-process phase output missing", ds.Name)
		}
		in.FoldCounts[ds.Name] = folds
	}
	return in, nil
}

// filterCompleted applies the resume skip: jobs with a valid completion
// marker are not scheduled again.
func (s *Sequencer) filterCompleted(phase models.Phase, jobs []models.JobDescriptor) []models.JobDescriptor {
	var pending []models.JobDescriptor
	skipped := 0
	for _, j := range jobs {
		if s.Ledger.IsComplete(j.Key()) {
			skipped++
			s.recordHistory(j, models.JobStatusSkipped, 0, "")
			continue
		}
		pending = append(pending, j)
	}
	if s.Metrics != nil {
		s.Metrics.AddSkipped(phase.Tag, skipped)
	}
	return pending
}

// bind resolves every pending descriptor to its task body before any job
// starts, so configuration errors surface with no partial phase execution.
func (s *Sequencer) bind(pending []models.JobDescriptor) ([]executor.Job, error) {
	execJobs := make([]executor.Job, 0, len(pending))
	for _, d := range pending {
		run, err := s.Tasks.Bind(d)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", d.Key(), err)
		}
		execJobs = append(execJobs, executor.Job{Descriptor: d, Run: run})
	}
	return execJobs, nil
}

// observeJob feeds metrics and run history as each job terminates
func (s *Sequencer) observeJob(d models.JobDescriptor, err error, elapsed time.Duration) {
	if s.Metrics != nil {
		s.Metrics.ObserveJob(d, err, elapsed)
	}
	if err != nil {
		s.Log.Error("Job failed", map[string]interface{}{
			"job":   d.Key(),
			"error": err.Error(),
		})
		s.recordHistory(d, models.JobStatusFailed, elapsed, err.Error())
		return
	}
	s.Log.Info("Job finished", map[string]interface{}{
		"job":     d.Key(),
		"elapsed": elapsed.Round(time.Millisecond).String(),
	})
	s.recordHistory(d, models.JobStatusCompleted, elapsed, "")
}

func (s *Sequencer) recordHistory(d models.JobDescriptor, status models.JobStatus, elapsed time.Duration, errMsg string) {
	if s.History == nil || s.RunID == "" {
		return
	}
	rec := &models.JobRecord{
		RunID:      s.RunID,
		JobKey:     d.Key(),
		Phase:      d.Phase.Tag,
		Dataset:    d.Dataset,
		Status:     status,
		Duration:   elapsed,
		Error:      errMsg,
		FinishedAt: time.Now(),
	}
	if err := s.History.AppendJobRecord(rec); err != nil {
		s.Log.Warn("Failed to append run history", map[string]interface{}{
			"job":   d.Key(),
			"error": err.Error(),
		})
	}
}
