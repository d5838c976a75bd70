// Package config defines the canonical, JSON-serializable configuration model
// for the encounter pipeline. It is intentionally small, explicit, and
// dependency-free so that job files can be loaded from disk and passed through
// the program without additional glue code.
//
// Example (trimmed):
//
//	{
//	  "job": "encounters",
//	  "source": { "encounters": "data/diabetic_data.csv", "lookups": "data/ids_mapping.csv" },
//	  "output": { "bronze_dir": "out/bronze", "silver_dir": "out/silver", "report_dir": "out/reports" },
//	  "warehouse": { "kind": "sqlite", "dsn": "out/warehouse.db", "table": "encounters_silver" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Pipeline describes one end-to-end run. It is the top-level object decoded
// from a job file.
type Pipeline struct {
	// Job names the run; it is used for metrics labeling and in artifact
	// file names.
	Job string `json:"job"`

	Source    Source    `json:"source"`
	Output    Output    `json:"output"`
	Warehouse Warehouse `json:"warehouse"`
	Runtime   Runtime   `json:"runtime"`
}

// Source describes the raw input files.
type Source struct {
	// Encounters is the path to the encounter-level CSV extract.
	Encounters string `json:"encounters"`

	// Lookups is the path to the stacked code-description mapping file.
	Lookups string `json:"lookups"`

	// Encoding names the character encoding of the input files.
	// Supported: "utf-8" (default), "latin-1", "iso-8859-1", "windows-1252".
	Encoding string `json:"encoding"`

	// Delimiter is the CSV field separator; a single character. Default ",".
	Delimiter string `json:"delimiter"`
}

// Output holds the directories the staged artifacts and reports land in.
// Directories are created on demand.
type Output struct {
	BronzeDir  string `json:"bronze_dir"`
	SilverDir  string `json:"silver_dir"`
	ReportDir  string `json:"report_dir"`
	SummaryDir string `json:"summary_dir"`
}

// Warehouse configures the optional analytical database load.
type Warehouse struct {
	// Kind selects the backend: "none" (default), "sqlite", or "postgres".
	Kind string `json:"kind"`

	// DSN is the backend connection string; a file path for sqlite, a
	// postgresql:// URL for postgres.
	DSN string `json:"dsn"`

	// Table is the destination table, possibly schema-qualified.
	Table string `json:"table"`

	// BatchSize bounds the rows per bulk-insert batch.
	BatchSize int `json:"batch_size"`
}

// Runtime controls concurrency.
type Runtime struct {
	// TransformWorkers is the number of goroutines applying row rules.
	// Values <= 1 run serially.
	TransformWorkers int `json:"transform_workers"`
}

// Defaults applied by Load for fields left unset in the job file.
const (
	DefaultEncoding  = "utf-8"
	DefaultDelimiter = ","
	DefaultBatchSize = 5000
)

// Load reads and decodes a job file, then fills defaults for optional fields.
func Load(path string) (Pipeline, error) {
	var p Pipeline

	f, err := os.Open(path)
	if err != nil {
		return p, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, fmt.Errorf("config: decode %s: %w", path, err)
	}

	p.ApplyDefaults()
	return p, nil
}

// ApplyDefaults fills zero-valued optional fields in place.
func (p *Pipeline) ApplyDefaults() {
	if p.Source.Encoding == "" {
		p.Source.Encoding = DefaultEncoding
	}
	if p.Source.Delimiter == "" {
		p.Source.Delimiter = DefaultDelimiter
	}
	if p.Warehouse.Kind == "" {
		p.Warehouse.Kind = "none"
	}
	if p.Warehouse.BatchSize <= 0 {
		p.Warehouse.BatchSize = DefaultBatchSize
	}
}
