package workers

import (
	"testing"
)

// TestBudget_Override tests that a positive override wins
func TestBudget_Override(t *testing.T) {
	t.Setenv(BudgetEnvVar, "16")
	if got := Budget(2); got != 2 {
		t.Errorf("Expected override 2, got %d", got)
	}
}

// TestBudget_Environment tests the batch-scheduler-provided core count
func TestBudget_Environment(t *testing.T) {
	t.Setenv(BudgetEnvVar, "6")
	if got := Budget(0); got != 6 {
		t.Errorf("Expected 6 from environment, got %d", got)
	}
}

// TestBudget_InvalidEnvironmentFallsBack tests that garbage in the
// environment falls through to host detection
func TestBudget_InvalidEnvironmentFallsBack(t *testing.T) {
	t.Setenv(BudgetEnvVar, "not-a-number")
	if got := Budget(0); got < 1 {
		t.Errorf("Expected a positive detected core count, got %d", got)
	}
}

// TestBudget_Detection tests the host-core fallback with no environment
func TestBudget_Detection(t *testing.T) {
	t.Setenv(BudgetEnvVar, "")
	if got := Budget(0); got < 1 {
		t.Errorf("Expected a positive detected core count, got %d", got)
	}
}
