// Package executor runs a phase's job list under a bounded concurrency
// budget, in fixed-size sequential waves. A wave is fully joined before the
// next wave starts, which bounds peak resource usage to W concurrent heavy
// jobs and makes a stalled run easy to diagnose: the in-flight set is always
// one wave.
package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/psantana5/mlbatch/pkg/models"
)

// Job pairs a descriptor with its task body. The body is opaque to the
// executor; on success it is responsible for recording its own completion,
// because only the task knows when its artifact writes are durable.
type Job struct {
	Descriptor models.JobDescriptor
	Run        func() error
}

// DoneFunc observes each finished job (success or failure) after it
// terminates, before its wave joins. Used for metrics and run history.
type DoneFunc func(d models.JobDescriptor, err error, elapsed time.Duration)

// Executor runs job lists in waves of at most Workers concurrent jobs
type Executor struct {
	Workers int
	OnDone  DoneFunc // optional
}

// Waves partitions jobs into consecutive waves of size <= width, preserving
// input order across wave boundaries. Exposed for tests of the wave bound.
func Waves(jobs []Job, width int) [][]Job {
	if width < 1 {
		width = 1
	}
	var waves [][]Job
	for start := 0; start < len(jobs); start += width {
		end := start + width
		if end > len(jobs) {
			end = len(jobs)
		}
		waves = append(waves, jobs[start:end])
	}
	return waves
}

// Run executes all jobs wave by wave. Every job of a wave is started
// concurrently and the wave is joined before the next wave starts. A failing
// job terminates only itself; siblings already running in the same wave
// continue to completion. After the wave joins, the first error in input
// order is returned and no later wave is started.
func (e *Executor) Run(jobs []Job) error {
	for _, wave := range Waves(jobs, e.Workers) {
		errs := make([]error, len(wave))
		var wg sync.WaitGroup
		for i := range wave {
			wg.Add(1)
			go func(i int, job Job) {
				defer wg.Done()
				start := time.Now()
				err := runJob(job)
				errs[i] = err
				if e.OnDone != nil {
					e.OnDone(job.Descriptor, err, time.Since(start))
				}
			}(i, wave[i])
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				return fmt.Errorf("job %s failed: %w", wave[i].Descriptor.Key(), err)
			}
		}
	}
	return nil
}

// runJob invokes the task body, converting a panic into a job error so a
// misbehaving task terminates only its own job, not the whole run.
func runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return job.Run()
}
