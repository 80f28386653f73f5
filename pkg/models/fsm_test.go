package models

import (
	"testing"
)

// TestValidateTransition tests the run-state transition table
func TestValidateTransition(t *testing.T) {
	valid := []struct{ from, to RunState }{
		{RunNotStarted, RunRunning},
		{RunRunning, RunRunning}, // advancing to the next phase
		{RunRunning, RunDone},
		{RunRunning, RunFailed},
	}
	for _, tc := range valid {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Errorf("Expected %s -> %s to be valid, got %v", tc.from, tc.to, err)
		}
	}

	invalid := []struct{ from, to RunState }{
		{RunNotStarted, RunDone},
		{RunNotStarted, RunFailed},
		{RunDone, RunRunning},
		{RunFailed, RunRunning},
		{RunFailed, RunDone},
	}
	for _, tc := range invalid {
		if err := ValidateTransition(tc.from, tc.to); err == nil {
			t.Errorf("Expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

// TestIsTerminalState tests terminal-state classification
func TestIsTerminalState(t *testing.T) {
	if !IsTerminalState(RunDone) || !IsTerminalState(RunFailed) {
		t.Error("Expected done and failed to be terminal")
	}
	if IsTerminalState(RunNotStarted) || IsTerminalState(RunRunning) {
		t.Error("Expected not_started and running to be non-terminal")
	}
}
