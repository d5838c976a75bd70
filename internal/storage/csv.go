package storage

import (
	"encoding/csv"
	"fmt"
	"os"

	parsecsv "clinetl/internal/parser/csv"
	"clinetl/pkg/records"
)

// WriteCSV writes t to path with a header row. Missing values render as
// empty cells.
func WriteCSV(t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("storage: write header: %w", err)
	}

	line := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, col := range t.Columns {
			line[i] = records.Render(r[col])
		}
		if err := w.Write(line); err != nil {
			return fmt.Errorf("storage: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage: flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadCSV loads a table from path. All values come back as text (or nil for
// empty/sentinel cells), mirroring ingestion semantics.
func ReadCSV(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("storage: open %s: %w", path, err)
	}
	defer f.Close()

	p := parsecsv.NewParser(parsecsv.Options{HasHeader: true})
	rows, columns, _, err := p.Parse(f)
	if err != nil {
		return Table{}, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return Table{Columns: columns, Rows: rows}, nil
}
