package models

import (
	"testing"
)

// TestJobKey_PhaseTagged tests keys for jobs without an algorithm dimension
func TestJobKey_PhaseTagged(t *testing.T) {
	phases := StandardPhases()

	// Dataset-only job: tag + dataset
	j := JobDescriptor{Phase: phases[0], Dataset: "datasetA", Fold: NoFold}
	if got := j.Key(); got != "exploratory_datasetA" {
		t.Errorf("Expected exploratory_datasetA, got %s", got)
	}

	// Run-level job: tag only
	j = JobDescriptor{Phase: phases[7], Fold: NoFold}
	if got := j.Key(); got != "report" {
		t.Errorf("Expected report, got %s", got)
	}
}

// TestJobKey_AlgorithmTagged tests that algorithm-dimension jobs use the
// algorithm tag as the leading key segment
func TestJobKey_AlgorithmTagged(t *testing.T) {
	phases := StandardPhases()
	ms := Algorithm{Name: "MultiSURF", Tag: "multisurf"}

	j := JobDescriptor{Phase: phases[2], Dataset: "datasetA", Fold: 0, Algorithm: &ms}
	if got := j.Key(); got != "multisurf_datasetA_0" {
		t.Errorf("Expected multisurf_datasetA_0, got %s", got)
	}
}

// TestJobKey_Deterministic tests that identical descriptors produce
// identical keys
func TestJobKey_Deterministic(t *testing.T) {
	phases := StandardPhases()
	mi := Algorithm{Name: "Mutual Information", Tag: "mutual_information"}

	a := JobDescriptor{Phase: phases[2], Dataset: "d1", Fold: 2, Algorithm: &mi}
	b := JobDescriptor{Phase: phases[2], Dataset: "d1", Fold: 2, Algorithm: &mi}
	if a.Key() != b.Key() {
		t.Errorf("Expected identical keys, got %s and %s", a.Key(), b.Key())
	}
}

// TestStandardPhases_Order tests the fixed phase sequence
func TestStandardPhases_Order(t *testing.T) {
	phases := StandardPhases()
	if len(phases) != 8 {
		t.Fatalf("Expected 8 phases, got %d", len(phases))
	}
	for i, p := range phases {
		if p.Ordinal != i+1 {
			t.Errorf("Phase %s has ordinal %d, expected %d", p.Name, p.Ordinal, i+1)
		}
	}

	// Fold-level phases must also carry the dataset dimension
	for _, p := range phases {
		if p.Dims.Fold && !p.Dims.Dataset {
			t.Errorf("Phase %s has a fold dimension without a dataset dimension", p.Name)
		}
	}
}
