package tasks

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/psantana5/mlbatch/pkg/dataset"
	"github.com/psantana5/mlbatch/pkg/models"
)

// runExploratory loads the raw dataset, validates its label columns and
// exports the header list plus basic per-column counts. The header export
// is referenced by later phases as the canonical feature-name order.
func (r *Runner) runExploratory(d models.JobDescriptor) error {
	ds, err := r.input(d)
	if err != nil {
		return err
	}
	table, err := ds.Load()
	if err != nil {
		return err
	}
	if err := table.RequireColumns(r.ClassLabel, r.InstanceLabel); err != nil {
		return fmt.Errorf("dataset %s: %w", d.Dataset, err)
	}

	dir := r.Layout.ExploratoryDir(d.Dataset)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create exploratory directory: %w", err)
	}

	// Canonical feature-name order, one name per row
	var headerRows [][]string
	for _, h := range table.Header {
		headerRows = append(headerRows, []string{h})
	}
	if err := dataset.WriteCSV(filepath.Join(dir, "OriginalFeatureNames.csv"),
		[]string{"feature"}, headerRows); err != nil {
		return err
	}

	// Per-column missing-value counts plus overall shape
	missing := make([]int, len(table.Header))
	for _, row := range table.Rows {
		for i, v := range row {
			if i < len(missing) && (v == "" || v == "NA") {
				missing[i]++
			}
		}
	}
	rows := [][]string{
		{"instances", strconv.Itoa(len(table.Rows))},
		{"features", strconv.Itoa(len(table.Header))},
	}
	for i, h := range table.Header {
		rows = append(rows, []string{"missing_" + h, strconv.Itoa(missing[i])})
	}
	return dataset.WriteCSV(filepath.Join(dir, "DataCounts.csv"), []string{"statistic", "value"}, rows)
}
