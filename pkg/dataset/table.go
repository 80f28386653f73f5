package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
)

// Table is an in-memory tabular dataset: a header row plus data rows.
// Values stay as strings; numeric interpretation is up to the task bodies.
type Table struct {
	Header []string
	Rows   [][]string
}

// Load reads the dataset's file into a Table
func (d Dataset) Load() (*Table, error) {
	f, err := os.Open(d.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", d.Name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = d.Comma
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", d.Name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("dataset %s is empty", d.Name)
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// ColumnIndex returns the position of a named column, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// RequireColumns verifies the named label columns exist. Empty names are
// skipped (the instance label is optional).
func (t *Table) RequireColumns(names ...string) error {
	for _, name := range names {
		if name == "" {
			continue
		}
		if t.ColumnIndex(name) < 0 {
			return fmt.Errorf("%w: %s", ErrMissingLabel, name)
		}
	}
	return nil
}

// WriteCSV writes a header plus the given rows as comma-separated values
func WriteCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header to %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows to %s: %w", path, err)
	}
	w.Flush()
	return w.Error()
}
