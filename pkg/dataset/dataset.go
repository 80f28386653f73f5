// Package dataset discovers input tables and the CV fold artifacts derived
// from them. A dataset is identified by its file stem; the on-disk format is
// derived from the extension.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Configuration errors, raised before any job is scheduled
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingLabel      = errors.New("label column not found in file")
	ErrNoDatasets        = errors.New("no datasets found in input directory")
)

// Dataset identifies one input table under analysis
type Dataset struct {
	Name  string // file stem, used in every derived artifact path
	Path  string // absolute or configured path of the input file
	Comma rune   // field separator derived from the extension
}

// separatorFor maps a file extension to its field separator
func separatorFor(ext string) (rune, error) {
	switch strings.ToLower(ext) {
	case ".csv":
		return ',', nil
	case ".tsv":
		return '\t', nil
	case ".txt":
		return ' ', nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// Discover scans the input directory (non-recursive) and returns one Dataset
// per tabular file, ordered by name. Hidden files are ignored; any other
// file with an unknown extension is a configuration error.
func Discover(inputDir string) ([]Dataset, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory %s: %w", inputDir, err)
	}

	var datasets []Dataset
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		ext := filepath.Ext(entry.Name())
		comma, err := separatorFor(ext)
		if err != nil {
			return nil, fmt.Errorf("input file %s: %w", entry.Name(), err)
		}
		datasets = append(datasets, Dataset{
			Name:  strings.TrimSuffix(entry.Name(), ext),
			Path:  filepath.Join(inputDir, entry.Name()),
			Comma: comma,
		})
	}
	if len(datasets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDatasets, inputDir)
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}

// FoldCount returns the number of CV folds discovered for a dataset by
// counting training partition files in its CVDatasets directory. Zero means
// the data-process phase has not produced partitions yet.
func FoldCount(cvDir, dataset string) (int, error) {
	entries, err := os.ReadDir(cvDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read CV directory %s: %w", cvDir, err)
	}

	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, dataset+"_CV_") && strings.HasSuffix(name, "_Train.csv") {
			count++
		}
	}
	return count, nil
}
