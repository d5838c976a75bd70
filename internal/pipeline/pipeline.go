// Package pipeline orchestrates one end-to-end run: ingest the raw extract,
// persist the bronze snapshot, audit, parse lookups, transform to silver,
// persist the silver snapshot plus export manifest, derive the summary
// tables, and optionally load the silver set into a warehouse. The call order
// is a contract: the auditor always sees raw data, the aggregator always sees
// cleaned data.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clinetl/internal/audit"
	"clinetl/internal/config"
	"clinetl/internal/ingest"
	"clinetl/internal/lookup"
	"clinetl/internal/metrics"
	"clinetl/internal/storage"
	"clinetl/internal/storage/postgres"
	"clinetl/internal/storage/sqlite"
	"clinetl/internal/summary"
	"clinetl/internal/transform"
	"clinetl/pkg/records"
)

// Manifest is the export record written next to the silver snapshot.
type Manifest struct {
	RunID        string    `json:"run_id"`
	Job          string    `json:"job"`
	Rows         int       `json:"rows"`
	Columns      int       `json:"columns"`
	ParquetPath  string    `json:"parquet_path"`
	CSVPath      string    `json:"csv_path"`
	RowsInserted *int64    `json:"rows_inserted,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Result reports what a run produced.
type Result struct {
	RunID        string
	BronzePath   string
	SilverPaths  []string
	ReportPaths  []string
	SummaryPaths []string
	Rows         int
	RowsInserted int64
}

// Run executes the full pipeline described by cfg. It either produces the
// complete artifact set or returns the first stage error; no partial silent
// corruption.
func Run(ctx context.Context, cfg config.Pipeline) (Result, error) {
	var res Result
	res.RunID = uuid.NewString()

	dqDir := filepath.Join(cfg.Output.ReportDir, "data_quality")
	for _, dir := range []string{cfg.Output.BronzeDir, cfg.Output.SilverDir, cfg.Output.ReportDir, cfg.Output.SummaryDir, dqDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("pipeline: create %s: %w", dir, err)
		}
	}

	// 1) Ingest.
	var (
		raw     []records.Record
		columns []string
		ingSum  ingest.Summary
	)
	if err := timed(cfg.Job, "ingest", func() error {
		var err error
		raw, columns, ingSum, err = ingest.LoadDelimited(
			cfg.Source.Encounters, cfg.Source.Encoding, delimiter(cfg.Source.Delimiter))
		return err
	}); err != nil {
		return res, err
	}
	metrics.RecordRows(cfg.Job, "loaded", int64(ingSum.RowsLoaded))
	metrics.RecordRows(cfg.Job, "rejected_estimated", int64(ingSum.RowsRejectedEstimated))

	res.BronzePath = filepath.Join(cfg.Output.BronzeDir, cfg.Job+"_bronze.parquet")
	if err := storage.Write(storage.Table{Columns: columns, Rows: raw}, res.BronzePath, storage.FormatParquet); err != nil {
		return res, err
	}
	ingPath := filepath.Join(dqDir, "ingestion_report.json")
	if err := writeJSON(ingPath, ingSum); err != nil {
		return res, err
	}
	res.ReportPaths = append(res.ReportPaths, ingPath)

	// 2) Data quality report over the raw set.
	var report audit.Report
	if err := timed(cfg.Job, "audit", func() error {
		report = audit.Run(raw, columns)
		return nil
	}); err != nil {
		return res, err
	}
	dqPath := filepath.Join(dqDir, "data_quality_report.json")
	if err := writeJSON(dqPath, report); err != nil {
		return res, err
	}
	res.ReportPaths = append(res.ReportPaths, dqPath)

	// 3) Lookup tables. Without a lookup file the descriptions stay missing.
	var lookups lookup.Set
	if cfg.Source.Lookups != "" {
		if err := timed(cfg.Job, "lookup", func() error {
			var err error
			lookups, err = lookup.ParseFile(cfg.Source.Lookups)
			return err
		}); err != nil {
			return res, err
		}
	} else {
		log.Printf("pipeline: no lookup file configured, skipping enrichment")
	}

	// 4) Transform to silver.
	eng := &transform.Engine{Lookups: lookups, Workers: cfg.Runtime.TransformWorkers}
	var (
		silver     []records.Record
		silverCols []string
	)
	if err := timed(cfg.Job, "transform", func() error {
		var err error
		silver, silverCols, err = eng.Apply(raw, columns)
		return err
	}); err != nil {
		return res, err
	}
	if len(silver) != len(raw) {
		return res, fmt.Errorf("pipeline: cleaned row count %d != raw row count %d", len(silver), len(raw))
	}
	res.Rows = len(silver)
	metrics.RecordRows(cfg.Job, "transformed", int64(len(silver)))

	silverTable := storage.Table{Columns: silverCols, Rows: silver}
	parquetPath := filepath.Join(cfg.Output.SilverDir, cfg.Job+"_silver.parquet")
	csvPath := filepath.Join(cfg.Output.SilverDir, cfg.Job+"_silver.csv")
	if err := storage.Write(silverTable, parquetPath, storage.FormatParquet); err != nil {
		return res, err
	}
	if err := storage.Write(silverTable, csvPath, storage.FormatCSV); err != nil {
		return res, err
	}
	res.SilverPaths = []string{parquetPath, csvPath}

	// 5) Summary tables.
	if err := timed(cfg.Job, "summarize", func() error {
		var err error
		res.SummaryPaths, err = summary.WriteAll(silver, cfg.Output.SummaryDir)
		return err
	}); err != nil {
		return res, err
	}

	// 6) Optional warehouse load.
	var inserted *int64
	if cfg.Warehouse.Kind != "" && cfg.Warehouse.Kind != "none" {
		if err := timed(cfg.Job, "persist", func() error {
			n, err := loadWarehouse(ctx, cfg.Warehouse, silverTable)
			res.RowsInserted = n
			inserted = &n
			return err
		}); err != nil {
			return res, err
		}
		metrics.RecordRows(cfg.Job, "inserted", res.RowsInserted)
	}

	manifest := Manifest{
		RunID:        res.RunID,
		Job:          cfg.Job,
		Rows:         len(silver),
		Columns:      len(silverCols),
		ParquetPath:  parquetPath,
		CSVPath:      csvPath,
		RowsInserted: inserted,
		FinishedAt:   time.Now().UTC(),
	}
	manifestPath := filepath.Join(cfg.Output.ReportDir, "silver_export_report.json")
	if err := writeJSON(manifestPath, manifest); err != nil {
		return res, err
	}
	res.ReportPaths = append(res.ReportPaths, manifestPath)

	log.Printf("pipeline: run %s finished, %d rows, %d columns", res.RunID, len(silver), len(silverCols))
	return res, nil
}

func loadWarehouse(ctx context.Context, cfg config.Warehouse, t storage.Table) (int64, error) {
	switch cfg.Kind {
	case "sqlite":
		sink, closeFn, err := sqlite.New(ctx, sqlite.Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return 0, err
		}
		defer closeFn()
		return storage.LoadTable(ctx, sink, t, cfg.Table, storage.DialectSQLite, cfg.BatchSize)

	case "postgres":
		sink, closeFn, err := postgres.New(ctx, postgres.Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return 0, err
		}
		defer closeFn()
		return storage.LoadTable(ctx, sink, t, cfg.Table, storage.DialectPostgres, cfg.BatchSize)
	}
	return 0, fmt.Errorf("pipeline: unknown warehouse kind %q", cfg.Kind)
}

// timed runs fn and records its duration and outcome under the stage name.
func timed(job, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(job, stage, err, time.Since(start))
	return err
}

func delimiter(s string) rune {
	if s == "" {
		return ','
	}
	return []rune(s)[0]
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pipeline: create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("pipeline: encode %s: %w", path, err)
	}
	return f.Close()
}
