package pipeline

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/layout"
	"github.com/psantana5/mlbatch/pkg/ledger"
	"github.com/psantana5/mlbatch/pkg/logging"
	"github.com/psantana5/mlbatch/pkg/models"
)

// fakeTasks is a TaskSet whose bodies record completion like real task
// bodies do, and which tracks every bind and execution for assertions
type fakeTasks struct {
	mu       sync.Mutex
	ledger   ledger.Ledger
	bound    []string
	executed []string
	failKey  string // job key that returns an error
	bindErr  string // job key whose bind fails (configuration error)
}

func (f *fakeTasks) Bind(d models.JobDescriptor) (func() error, error) {
	key := d.Key()
	f.mu.Lock()
	f.bound = append(f.bound, key)
	f.mu.Unlock()
	if key == f.bindErr {
		return nil, errors.New("unknown algorithm")
	}
	return func() error {
		f.mu.Lock()
		f.executed = append(f.executed, key)
		f.mu.Unlock()
		if key == f.failKey {
			return errors.New("boom")
		}
		return f.ledger.Record(key)
	}, nil
}

func twoPhases() []models.Phase {
	return []models.Phase{
		{Ordinal: 1, Name: "Alpha", Tag: "alpha", Dims: models.Dimensions{Dataset: true}},
		{Ordinal: 2, Name: "Beta", Tag: "beta", Dims: models.Dimensions{Dataset: true}},
	}
}

func newSequencer(t *testing.T, led ledger.Ledger, tasks *fakeTasks, phases []models.Phase) *Sequencer {
	t.Helper()
	return &Sequencer{
		Phases: phases,
		Datasets: []dataset.Dataset{
			{Name: "d1"}, {Name: "d2"},
		},
		Layout:         layout.New(t.TempDir()),
		Ledger:         led,
		Tasks:          tasks,
		Log:            logging.NewLogger(logging.ERROR, false),
		WorkerOverride: 2,
	}
}

// TestRun_AllPhasesExecute tests a clean full run
func TestRun_AllPhasesExecute(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led}
	seq := newSequencer(t, led, tasks, twoPhases())

	if seq.State() != models.RunNotStarted {
		t.Errorf("Expected initial state not_started, got %s", seq.State())
	}
	if err := seq.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if seq.State() != models.RunDone {
		t.Errorf("Expected state done, got %s", seq.State())
	}
	if len(tasks.executed) != 4 {
		t.Errorf("Expected 4 executed jobs, got %v", tasks.executed)
	}
}

// TestRun_ResumeIdempotence tests that a second invocation with no input
// changes executes zero jobs and leaves the marker set unchanged
func TestRun_ResumeIdempotence(t *testing.T) {
	led := ledger.NewMemoryLedger()
	first := &fakeTasks{ledger: led}
	if err := newSequencer(t, led, first, twoPhases()).Run(); err != nil {
		t.Fatalf("First run failed: %v", err)
	}
	before, _ := led.CompletedKeys()

	second := &fakeTasks{ledger: led}
	if err := newSequencer(t, led, second, twoPhases()).Run(); err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if len(second.executed) != 0 {
		t.Errorf("Expected zero executed jobs on resume, got %v", second.executed)
	}
	after, _ := led.CompletedKeys()
	if len(before) != len(after) {
		t.Errorf("Expected marker set unchanged, got %v then %v", before, after)
	}
}

// TestRun_PartialResume tests that exactly the unfinished jobs are
// scheduled and all markers exist afterwards
func TestRun_PartialResume(t *testing.T) {
	led := ledger.NewMemoryLedger()
	// One of the two alpha jobs already finished in a previous run
	if err := led.Record("alpha_d1"); err != nil {
		t.Fatal(err)
	}

	tasks := &fakeTasks{ledger: led}
	if err := newSequencer(t, led, tasks, twoPhases()).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(tasks.executed) != 3 {
		t.Errorf("Expected 3 executed jobs, got %v", tasks.executed)
	}
	for _, key := range []string{"alpha_d1", "alpha_d2", "beta_d1", "beta_d2"} {
		if !led.IsComplete(key) {
			t.Errorf("Expected marker for %s", key)
		}
	}
}

// TestRun_PhaseBarrier tests that no later-phase job is even constructed
// while an earlier phase is unresolved, and that a failed phase stops the
// run before the next phase's matrix is built
func TestRun_PhaseBarrier(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led, failKey: "alpha_d2"}
	seq := newSequencer(t, led, tasks, twoPhases())

	err := seq.Run()
	if err == nil {
		t.Fatal("Expected run to fail")
	}
	if !strings.Contains(err.Error(), "Alpha") || !strings.Contains(err.Error(), "alpha_d2") {
		t.Errorf("Expected error naming phase and job key, got %v", err)
	}
	if seq.State() != models.RunFailed {
		t.Errorf("Expected state failed, got %s", seq.State())
	}
	if seq.FailedPhase() != "Alpha" {
		t.Errorf("Expected failed phase Alpha, got %s", seq.FailedPhase())
	}

	// No beta job was ever bound, let alone executed
	for _, key := range tasks.bound {
		if strings.HasPrefix(key, "beta_") {
			t.Errorf("Later-phase job %s was constructed after failure", key)
		}
	}

	// The sibling alpha job finished and its marker survives for resume
	if !led.IsComplete("alpha_d1") {
		t.Error("Expected sibling success to remain recorded")
	}
}

// TestRun_OrderingAcrossPhases tests the strict total order between phases
func TestRun_OrderingAcrossPhases(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led}
	if err := newSequencer(t, led, tasks, twoPhases()).Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	sawBeta := false
	for _, key := range tasks.executed {
		if strings.HasPrefix(key, "beta_") {
			sawBeta = true
		} else if sawBeta {
			t.Fatalf("Alpha job %s executed after a beta job", key)
		}
	}
}

// TestRun_BindErrorAbortsPhase tests that a configuration error surfaces
// before any job of the phase executes
func TestRun_BindErrorAbortsPhase(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led, bindErr: "alpha_d2"}
	seq := newSequencer(t, led, tasks, twoPhases())

	err := seq.Run()
	if err == nil || !strings.Contains(err.Error(), "unknown algorithm") {
		t.Fatalf("Expected bind error, got %v", err)
	}
	if len(tasks.executed) != 0 {
		t.Errorf("Expected no job execution after bind failure, got %v", tasks.executed)
	}
}

// TestRun_LedgerWriteErrorIsFatal tests that a failing completion record
// fails the job and the phase
func TestRun_LedgerWriteErrorIsFatal(t *testing.T) {
	led := ledger.NewMemoryLedger()
	led.RecordErr = errors.New("disk full")
	tasks := &fakeTasks{ledger: led}
	seq := newSequencer(t, led, tasks, twoPhases())

	err := seq.Run()
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Expected ledger write error to propagate, got %v", err)
	}
	if seq.State() != models.RunFailed {
		t.Errorf("Expected state failed, got %s", seq.State())
	}
}

// TestRun_FoldPhaseRequiresPartitions tests that a fold-dependent phase
// with no discovered CV partitions is a configuration error
func TestRun_FoldPhaseRequiresPartitions(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led}
	phases := []models.Phase{
		{Ordinal: 1, Name: "Folded", Tag: "folded", Dims: models.Dimensions{Dataset: true, Fold: true}},
	}
	seq := newSequencer(t, led, tasks, phases)

	err := seq.Run()
	if err == nil || !strings.Contains(err.Error(), "no CV partitions") {
		t.Fatalf("Expected missing-partition error, got %v", err)
	}
}

// TestRun_FoldPhaseExpandsDiscoveredFolds tests that fold counts are
// re-read from prior-phase artifacts at the phase boundary
func TestRun_FoldPhaseExpandsDiscoveredFolds(t *testing.T) {
	led := ledger.NewMemoryLedger()
	tasks := &fakeTasks{ledger: led}
	phases := []models.Phase{
		{Ordinal: 1, Name: "Folded", Tag: "folded", Dims: models.Dimensions{Dataset: true, Fold: true}},
	}
	seq := newSequencer(t, led, tasks, phases)
	seq.Datasets = seq.Datasets[:1] // d1 only

	// Two partitions written by an earlier (already resolved) phase
	lay := seq.Layout
	if err := lay.EnsureDataset("d1"); err != nil {
		t.Fatal(err)
	}
	for fold := 0; fold < 2; fold++ {
		if err := writeStub(lay.CVTrainPath("d1", fold)); err != nil {
			t.Fatal(err)
		}
	}

	if err := seq.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(tasks.executed) != 2 {
		t.Errorf("Expected 2 fold jobs, got %v", tasks.executed)
	}
}

func writeStub(path string) error {
	return os.WriteFile(path, []byte("x"), 0644)
}
