// Package storage is the tabular store used by the pipeline: durable
// read/write of row-oriented data in an exchange form (CSV) and a columnar
// form (parquet), plus warehouse sinks behind the Sink contract. The
// pipeline core treats everything here as opaque persistence.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"clinetl/pkg/records"
)

// Table is an ordered, row-oriented tabular value.
type Table struct {
	Columns []string
	Rows    []records.Record
}

// Format selects a persisted representation.
type Format string

const (
	// FormatCSV is the row-exchange form.
	FormatCSV Format = "csv"
	// FormatParquet is the columnar form.
	FormatParquet Format = "parquet"
)

// Write persists t to dest in the given format.
func Write(t Table, dest string, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(t, dest)
	case FormatParquet:
		return WriteParquet(t, dest)
	}
	return fmt.Errorf("storage: unknown format %q", f)
}

// Read loads a table from source, inferring the format from the file
// extension.
func Read(source string) (Table, error) {
	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		return ReadCSV(source)
	}
	return Table{}, fmt.Errorf("storage: cannot infer format of %q", source)
}
