// Package workers resolves the bounded worker budget used by the executor.
package workers

import (
	"os"
	"runtime"
	"strconv"

	"github.com/shirou/gopsutil/v3/cpu"
)

// BudgetEnvVar is the batch-scheduler-provided core count. SLURM sets it on
// allocated nodes; outside a batch allocation it is normally unset.
const BudgetEnvVar = "SLURM_CPUS_PER_TASK"

// Budget returns the worker budget for one phase: the override if positive,
// else the environment-provided core count, else the detected logical core
// count of the host. Resolved once per phase and immutable for that phase's
// execution.
func Budget(override int) int {
	if override > 0 {
		return override
	}
	if v := os.Getenv(BudgetEnvVar); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}
