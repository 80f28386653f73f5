package models

// AlgorithmClass identifies which configured algorithm list a phase expands over
type AlgorithmClass string

const (
	AlgorithmClassNone    AlgorithmClass = "none"    // phase has no algorithm dimension
	AlgorithmClassFeature AlgorithmClass = "feature" // feature-scoring algorithms (phase 3)
	AlgorithmClassModel   AlgorithmClass = "model"   // model-training algorithms (phase 5)
)

// Dimensions declares which job dimensions a phase varies over
type Dimensions struct {
	Dataset   bool
	Fold      bool
	Algorithm bool
}

// Phase represents one ordered stage of the pipeline
type Phase struct {
	Ordinal   int            // 1-based position in the fixed phase sequence
	Name      string         // human-readable name for logs and status output
	Tag       string         // file tag used in marker and runtime file names
	Dims      Dimensions     // dimensions the job matrix expands over
	AlgoClass AlgorithmClass // which algorithm list feeds the algorithm dimension
}

// Algorithm represents one named computation variant usable within a phase
type Algorithm struct {
	Name string // configured name, e.g. "Mutual Information"
	Tag  string // short tag for file naming, e.g. "mutual_information"
}

// Standard phase tags
const (
	TagExploratory      = "exploratory"
	TagDataProcess      = "dataprocess"
	TagFeatureImp       = "featureimportance"
	TagFeatureSelection = "featureselection"
	TagModeling         = "modeling"
	TagStats            = "stats"
	TagCompare          = "compare"
	TagReport           = "report"
)

// StandardPhases returns the fixed phase sequence of the pipeline.
// The order is load-bearing: each phase's job matrix may depend on
// artifacts the previous phase produced.
func StandardPhases() []Phase {
	return []Phase{
		{Ordinal: 1, Name: "Exploratory", Tag: TagExploratory,
			Dims: Dimensions{Dataset: true}, AlgoClass: AlgorithmClassNone},
		{Ordinal: 2, Name: "Data Process", Tag: TagDataProcess,
			Dims: Dimensions{Dataset: true}, AlgoClass: AlgorithmClassNone},
		{Ordinal: 3, Name: "Feature Importance", Tag: TagFeatureImp,
			Dims: Dimensions{Dataset: true, Fold: true, Algorithm: true}, AlgoClass: AlgorithmClassFeature},
		{Ordinal: 4, Name: "Feature Selection", Tag: TagFeatureSelection,
			Dims: Dimensions{Dataset: true}, AlgoClass: AlgorithmClassNone},
		{Ordinal: 5, Name: "Modeling", Tag: TagModeling,
			Dims: Dimensions{Dataset: true, Fold: true, Algorithm: true}, AlgoClass: AlgorithmClassModel},
		{Ordinal: 6, Name: "Statistics", Tag: TagStats,
			Dims: Dimensions{Dataset: true}, AlgoClass: AlgorithmClassNone},
		{Ordinal: 7, Name: "Dataset Compare", Tag: TagCompare,
			Dims: Dimensions{}, AlgoClass: AlgorithmClassNone},
		{Ordinal: 8, Name: "Report", Tag: TagReport,
			Dims: Dimensions{}, AlgoClass: AlgorithmClassNone},
	}
}

// FeatureAlgorithms returns the built-in feature-scoring algorithms.
// Short codes "MI" and "MS" are accepted in configuration.
func FeatureAlgorithms() []Algorithm {
	return []Algorithm{
		{Name: "Mutual Information", Tag: "mutual_information"},
		{Name: "MultiSURF", Tag: "multisurf"},
	}
}
