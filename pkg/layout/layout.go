package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/psantana5/mlbatch/pkg/models"
)

// Layout is the naming and addressing contract for all durable state under
// an experiment root: inputs, intermediate artifacts, completion markers and
// runtime records. Paths are stable across repeated calls with identical
// inputs; directory creation is idempotent.
type Layout struct {
	Root string
}

// New creates a Layout rooted at the experiment directory
func New(root string) *Layout {
	return &Layout{Root: root}
}

// Ensure creates the run-level directory skeleton
func (l *Layout) Ensure() error {
	for _, dir := range []string{l.Root, l.JobsCompletedDir(), l.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureDataset creates the per-dataset directory skeleton
func (l *Layout) EnsureDataset(dataset string) error {
	dirs := []string{
		l.ExploratoryDir(dataset),
		l.CVDatasetsDir(dataset),
		l.ModelsDir(dataset),
		l.RuntimeDir(dataset),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureFeatureSelection creates the per-algorithm feature-selection
// directories, including the score handoff dir consumed by phase 4.
func (l *Layout) EnsureFeatureSelection(dataset, algTag string) error {
	if err := os.MkdirAll(l.ScoreHandoffDir(dataset, algTag), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", l.ScoreHandoffDir(dataset, algTag), err)
	}
	return nil
}

// DatasetDir returns the root directory for one dataset's artifacts
func (l *Layout) DatasetDir(dataset string) string {
	return filepath.Join(l.Root, dataset)
}

// ExploratoryDir holds phase 1 output for a dataset
func (l *Layout) ExploratoryDir(dataset string) string {
	return filepath.Join(l.Root, dataset, "exploratory")
}

// CVDatasetsDir holds the CV train/test partition files for a dataset
func (l *Layout) CVDatasetsDir(dataset string) string {
	return filepath.Join(l.Root, dataset, "CVDatasets")
}

// CVTrainPath returns the training partition file for one fold
func (l *Layout) CVTrainPath(dataset string, fold int) string {
	return filepath.Join(l.CVDatasetsDir(dataset), dataset+"_CV_"+strconv.Itoa(fold)+"_Train.csv")
}

// CVTestPath returns the test partition file for one fold
func (l *Layout) CVTestPath(dataset string, fold int) string {
	return filepath.Join(l.CVDatasetsDir(dataset), dataset+"_CV_"+strconv.Itoa(fold)+"_Test.csv")
}

// FeatureSelectionDir holds one algorithm's score output for a dataset
func (l *Layout) FeatureSelectionDir(dataset, algTag string) string {
	return filepath.Join(l.Root, dataset, "feature_selection", algTag)
}

// ScoreHandoffDir holds the encoded per-fold score blobs consumed by the
// feature-selection phase
func (l *Layout) ScoreHandoffDir(dataset, algTag string) string {
	return filepath.Join(l.FeatureSelectionDir(dataset, algTag), "pickledForPhase4")
}

// ScoreHandoffPath returns the encoded score blob for one fold
func (l *Layout) ScoreHandoffPath(dataset, algTag string, fold int) string {
	return filepath.Join(l.ScoreHandoffDir(dataset, algTag), strconv.Itoa(fold)+".gob")
}

// ScoreCSVPath returns the human-readable score file for one fold
func (l *Layout) ScoreCSVPath(dataset, algTag string, fold int) string {
	return filepath.Join(l.FeatureSelectionDir(dataset, algTag),
		algTag+"_scores_cv_"+strconv.Itoa(fold)+".csv")
}

// ModelsDir holds serialized fitted models for a dataset
func (l *Layout) ModelsDir(dataset string) string {
	return filepath.Join(l.Root, dataset, "models", "pickledModels")
}

// ModelPath returns the serialized model file for one algorithm and fold
func (l *Layout) ModelPath(dataset, algTag string, fold int) string {
	return filepath.Join(l.ModelsDir(dataset), algTag+"_CV_"+strconv.Itoa(fold)+".gob")
}

// ModelMetricsPath returns the evaluation metrics file for one fitted model
func (l *Layout) ModelMetricsPath(dataset, algTag string, fold int) string {
	return filepath.Join(l.Root, dataset, "models", algTag+"_CV_"+strconv.Itoa(fold)+"_metrics.csv")
}

// StatsDir holds cross-fold evaluation summaries for a dataset
func (l *Layout) StatsDir(dataset string) string {
	return filepath.Join(l.Root, dataset, "model_evaluation")
}

// StatsSummaryPath returns the per-dataset cross-fold summary file
func (l *Layout) StatsSummaryPath(dataset string) string {
	return filepath.Join(l.StatsDir(dataset), "summary.csv")
}

// SelectedFeaturesPath returns the per-dataset selected feature list
func (l *Layout) SelectedFeaturesPath(dataset string) string {
	return filepath.Join(l.Root, dataset, "feature_selection", "selected_features.csv")
}

// ComparePath returns the run-level cross-dataset comparison file
func (l *Layout) ComparePath() string {
	return filepath.Join(l.Root, "dataset_comparisons.csv")
}

// RuntimeDir holds per-phase wall-clock records for a dataset
func (l *Layout) RuntimeDir(dataset string) string {
	return filepath.Join(l.Root, dataset, "runtime")
}

// RuntimePath returns the runtime record file for a phase or algorithm tag.
// Fold-level jobs get a _CV_<fold> suffix.
func (l *Layout) RuntimePath(dataset, tag string, fold int) string {
	name := "runtime_" + tag
	if fold != models.NoFold {
		name += "_CV_" + strconv.Itoa(fold)
	}
	return filepath.Join(l.RuntimeDir(dataset), name+".txt")
}

// JobsCompletedDir holds the completion marker files for the whole run
func (l *Layout) JobsCompletedDir() string {
	return filepath.Join(l.Root, "jobsCompleted")
}

// MarkerPath returns the completion marker file for a job key
func (l *Layout) MarkerPath(jobKey string) string {
	return filepath.Join(l.JobsCompletedDir(), "job_"+jobKey+".txt")
}

// LogsDir holds the pipeline's own log output
func (l *Layout) LogsDir() string {
	return filepath.Join(l.Root, "logs")
}

// SummaryPath returns the run-level report manifest
func (l *Layout) SummaryPath() string {
	return filepath.Join(l.Root, "summary.yaml")
}
