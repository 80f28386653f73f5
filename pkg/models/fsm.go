package models

import (
	"fmt"
)

// RunState represents the lifecycle state of a pipeline run
type RunState string

const (
	RunNotStarted RunState = "not_started" // run created, no phase started yet
	RunRunning    RunState = "running"     // a phase is executing
	RunDone       RunState = "done"        // all phases finished successfully
	RunFailed     RunState = "failed"      // a phase failed; terminal
)

// validTransitions maps from-state to allowed to-states.
// Running -> Running covers advancing from phase i to phase i+1.
var validTransitions = map[RunState]map[RunState]bool{
	RunNotStarted: {
		RunRunning: true,
	},
	RunRunning: {
		RunRunning: true,
		RunDone:    true,
		RunFailed:  true,
	},
	// Terminal states (no transitions allowed)
	RunDone:   {},
	RunFailed: {},
}

// ValidateTransition checks if a run state transition is valid
func ValidateTransition(from, to RunState) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalState returns true if the state is terminal (no further transitions)
func IsTerminalState(state RunState) bool {
	return state == RunDone || state == RunFailed
}
