package matrix

import (
	"reflect"
	"testing"

	"github.com/psantana5/mlbatch/pkg/models"
)

func testInputs() Inputs {
	return Inputs{
		Datasets:          []string{"datasetA", "datasetB"},
		FoldCounts:        map[string]int{"datasetA": 3, "datasetB": 3},
		FeatureAlgorithms: models.FeatureAlgorithms(),
		ModelAlgorithms: []models.Algorithm{
			{Name: "Logistic Regression", Tag: "logistic_regression"},
			{Name: "Decision Tree", Tag: "decision_tree"},
		},
	}
}

func phaseByTag(t *testing.T, tag string) models.Phase {
	t.Helper()
	for _, p := range models.StandardPhases() {
		if p.Tag == tag {
			return p
		}
	}
	t.Fatalf("No phase with tag %s", tag)
	return models.Phase{}
}

func keys(jobs []models.JobDescriptor) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Key()
	}
	return out
}

// TestBuild_CrossProductSize tests the 2 datasets x 3 folds x 2 algorithms
// scenario: the feature-scoring matrix has 12 entries
func TestBuild_CrossProductSize(t *testing.T) {
	jobs := Build(phaseByTag(t, models.TagFeatureImp), testInputs())
	if len(jobs) != 12 {
		t.Fatalf("Expected 12 jobs, got %d", len(jobs))
	}
}

// TestBuild_Deterministic tests that repeated calls produce the same
// ordered key list
func TestBuild_Deterministic(t *testing.T) {
	phase := phaseByTag(t, models.TagFeatureImp)
	first := keys(Build(phase, testInputs()))
	second := keys(Build(phase, testInputs()))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical key lists:\n%v\n%v", first, second)
	}

	// Datasets as given, folds ascending, algorithms in configured order
	want := "mutual_information_datasetA_0"
	if first[0] != want {
		t.Errorf("Expected first key %s, got %s", want, first[0])
	}
	want = "multisurf_datasetA_0"
	if first[1] != want {
		t.Errorf("Expected second key %s, got %s", want, first[1])
	}
}

// TestBuild_NoDuplicateKeys tests pairwise-distinct keys for every phase
func TestBuild_NoDuplicateKeys(t *testing.T) {
	for _, phase := range models.StandardPhases() {
		seen := make(map[string]bool)
		for _, key := range keys(Build(phase, testInputs())) {
			if seen[key] {
				t.Errorf("Phase %s produced duplicate key %s", phase.Name, key)
			}
			seen[key] = true
		}
	}
}

// TestBuild_DatasetOnlyPhaseIgnoresOtherDimensions tests that a
// dataset-only phase yields one job per dataset regardless of folds and
// algorithms
func TestBuild_DatasetOnlyPhaseIgnoresOtherDimensions(t *testing.T) {
	jobs := Build(phaseByTag(t, models.TagExploratory), testInputs())
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	for _, j := range jobs {
		if j.Fold != models.NoFold || j.Algorithm != nil {
			t.Errorf("Expected dataset-only job, got %+v", j)
		}
	}
}

// TestBuild_RunLevelPhase tests that a phase with no dimensions yields a
// single job
func TestBuild_RunLevelPhase(t *testing.T) {
	jobs := Build(phaseByTag(t, models.TagReport), testInputs())
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if jobs[0].Key() != "report" {
		t.Errorf("Expected key report, got %s", jobs[0].Key())
	}
}

// TestBuild_ExclusionAppliedBeforeExpansion tests that an excluded
// algorithm never appears in any job list
func TestBuild_ExclusionAppliedBeforeExpansion(t *testing.T) {
	in := testInputs()
	in.Exclude = []string{"multisurf"}
	jobs := Build(phaseByTag(t, models.TagFeatureImp), in)
	if len(jobs) != 6 {
		t.Fatalf("Expected 6 jobs after exclusion, got %d", len(jobs))
	}
	for _, j := range jobs {
		if j.Algorithm.Tag == "multisurf" {
			t.Errorf("Excluded algorithm appeared in job %s", j.Key())
		}
	}

	// Exclusion matches names case-insensitively too
	in.Exclude = []string{"MULTISURF"}
	if got := len(Build(phaseByTag(t, models.TagFeatureImp), in)); got != 6 {
		t.Errorf("Expected case-insensitive exclusion, got %d jobs", got)
	}
}

// TestBuild_FoldCountsPerDataset tests that each dataset expands over its
// own discovered fold count
func TestBuild_FoldCountsPerDataset(t *testing.T) {
	in := testInputs()
	in.FoldCounts = map[string]int{"datasetA": 2, "datasetB": 4}
	jobs := Build(phaseByTag(t, models.TagFeatureImp), in)
	// (2 + 4) folds x 2 algorithms
	if len(jobs) != 12 {
		t.Fatalf("Expected 12 jobs, got %d", len(jobs))
	}
	perDataset := make(map[string]int)
	for _, j := range jobs {
		perDataset[j.Dataset]++
	}
	if perDataset["datasetA"] != 4 || perDataset["datasetB"] != 8 {
		t.Errorf("Expected 4/8 split, got %v", perDataset)
	}
}
