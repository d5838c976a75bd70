package storage

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"clinetl/pkg/records"
)

// WriteParquet writes t to path as a parquet file. The schema is derived
// from the table's column list with every column as an optional UTF8 string;
// the column set of each snapshot is discovered at ingest time, so the
// schema cannot be a compile-time struct. Missing values become nulls.
func WriteParquet(t Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", path, err)
	}
	defer f.Close()

	group := parquet.Group{}
	for _, col := range t.Columns {
		group[col] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("table", group)

	w := parquet.NewWriter(f, schema, parquet.Compression(&parquet.Snappy))
	for _, r := range t.Rows {
		row := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			if v := r[col]; !records.Missing(v) {
				row[col] = records.Render(v)
			}
		}
		if err := w.Write(row); err != nil {
			w.Close()
			return fmt.Errorf("storage: write parquet row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: close parquet writer: %w", err)
	}
	return f.Close()
}
