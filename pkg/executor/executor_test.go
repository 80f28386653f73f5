package executor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/psantana5/mlbatch/pkg/models"
)

func makeJobs(n int, run func(i int) error) []Job {
	phase := models.StandardPhases()[0]
	jobs := make([]Job, n)
	for i := 0; i < n; i++ {
		i := i
		jobs[i] = Job{
			Descriptor: models.JobDescriptor{Phase: phase, Dataset: fmt.Sprintf("d%02d", i), Fold: models.NoFold},
			Run:        func() error { return run(i) },
		}
	}
	return jobs
}

// TestWaves_BoundAndOrder tests that every wave respects the budget and
// that concatenating waves reproduces the input order exactly
func TestWaves_BoundAndOrder(t *testing.T) {
	jobs := makeJobs(10, func(int) error { return nil })
	waves := Waves(jobs, 4)

	if len(waves) != 3 {
		t.Fatalf("Expected 3 waves, got %d", len(waves))
	}
	var flat []string
	for _, wave := range waves {
		if len(wave) > 4 {
			t.Errorf("Wave size %d exceeds budget 4", len(wave))
		}
		for _, j := range wave {
			flat = append(flat, j.Descriptor.Key())
		}
	}
	for i, j := range jobs {
		if flat[i] != j.Descriptor.Key() {
			t.Fatalf("Wave concatenation reordered jobs at index %d", i)
		}
	}
}

// TestWaves_ZeroWidth tests the minimum-width fallback
func TestWaves_ZeroWidth(t *testing.T) {
	waves := Waves(makeJobs(3, func(int) error { return nil }), 0)
	if len(waves) != 3 {
		t.Errorf("Expected 3 single-job waves, got %d", len(waves))
	}
}

// TestRun_ConcurrencyBound tests that no more than W jobs run at once
func TestRun_ConcurrencyBound(t *testing.T) {
	var current, peak int64
	barrier := make(chan struct{})
	jobs := makeJobs(12, func(int) error {
		n := atomic.AddInt64(&current, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		<-barrier
		atomic.AddInt64(&current, -1)
		return nil
	})

	// Release all jobs of each wave once the full wave is blocked
	go func() {
		for i := 0; i < 12; i++ {
			barrier <- struct{}{}
		}
	}()

	e := &Executor{Workers: 4}
	if err := e.Run(jobs); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if peak > 4 {
		t.Errorf("Expected at most 4 concurrent jobs, observed %d", peak)
	}
}

// TestRun_FailureStopsLaterWaves tests the 12-job scenario: a failure in
// wave 2 lets its siblings finish but wave 3 is never started
func TestRun_FailureStopsLaterWaves(t *testing.T) {
	var ran [12]int32
	boom := errors.New("boom")
	jobs := makeJobs(12, func(i int) error {
		atomic.StoreInt32(&ran[i], 1)
		if i == 6 { // job #7
			return boom
		}
		return nil
	})

	e := &Executor{Workers: 4}
	err := e.Run(jobs)
	if !errors.Is(err, boom) {
		t.Fatalf("Expected wrapped job error, got %v", err)
	}
	if !strings.Contains(err.Error(), jobs[6].Descriptor.Key()) {
		t.Errorf("Expected error to name the failing job key, got %v", err)
	}

	// Waves 1 and 2 (jobs 0..7) all terminated, including the failer's
	// siblings; wave 3 (jobs 8..11) never started.
	for i := 0; i < 8; i++ {
		if atomic.LoadInt32(&ran[i]) != 1 {
			t.Errorf("Expected job %d to have run", i)
		}
	}
	for i := 8; i < 12; i++ {
		if atomic.LoadInt32(&ran[i]) != 0 {
			t.Errorf("Expected job %d to never start", i)
		}
	}
}

// TestRun_FirstErrorInInputOrder tests that with multiple failures in one
// wave, the error surfaced is the first in input order
func TestRun_FirstErrorInInputOrder(t *testing.T) {
	jobs := makeJobs(4, func(i int) error {
		if i == 1 || i == 3 {
			return fmt.Errorf("job %d failed", i)
		}
		return nil
	})
	e := &Executor{Workers: 4}
	err := e.Run(jobs)
	if err == nil || !strings.Contains(err.Error(), jobs[1].Descriptor.Key()) {
		t.Errorf("Expected first failing job's key in error, got %v", err)
	}
}

// TestRun_PanicIsJobError tests that a panicking task terminates only its
// own job
func TestRun_PanicIsJobError(t *testing.T) {
	jobs := makeJobs(2, func(i int) error {
		if i == 0 {
			panic("task exploded")
		}
		return nil
	})
	e := &Executor{Workers: 2}
	err := e.Run(jobs)
	if err == nil || !strings.Contains(err.Error(), "task exploded") {
		t.Errorf("Expected panic converted to job error, got %v", err)
	}
}

// TestRun_OnDoneObservesEveryTerminatedJob tests the completion hook
func TestRun_OnDoneObservesEveryTerminatedJob(t *testing.T) {
	var mu sync.Mutex
	outcomes := make(map[string]error)

	jobs := makeJobs(5, func(i int) error {
		if i == 2 {
			return errors.New("bad")
		}
		return nil
	})
	e := &Executor{
		Workers: 2,
		OnDone: func(d models.JobDescriptor, err error, _ time.Duration) {
			mu.Lock()
			outcomes[d.Key()] = err
			mu.Unlock()
		},
	}
	_ = e.Run(jobs)

	// Jobs 0..3 terminated (waves of 2; the failure is in wave 2, so wave 3
	// with job 4 never starts)
	if len(outcomes) != 4 {
		t.Fatalf("Expected 4 observed jobs, got %d", len(outcomes))
	}
	if outcomes[jobs[2].Descriptor.Key()] == nil {
		t.Error("Expected failing job to be observed with its error")
	}
}
