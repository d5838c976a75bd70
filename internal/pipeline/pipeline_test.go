package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"clinetl/internal/config"
	"clinetl/internal/storage"
	"clinetl/pkg/records"
)

const encountersCSV = `encounter_id,patient_nbr,race,gender,age,admission_type_id,discharge_disposition_id,admission_source_id,time_in_hospital,num_medications,diag_1,diag_2,diag_3,metformin,insulin,A1Cresult,readmitted
1,p1,Caucasian,Female,[70-80),1,1,7,4,15,250.83,401,698,No,Steady,>7,NO
2,p2,AfricanAmerican,Male,[60-70),2,1,7,3,18,486,?,?,Steady,Up,None,<30
3,p1,?,Female,[70-80),1,2,1,5,9,410,250,V27,No,No,Norm,>30
`

const lookupCSV = `admission_type_id,description
1,Emergency
2,Urgent
,
discharge_disposition_id,description
1,Discharged to home
2,Transfer
,
admission_source_id,description
1,Physician Referral
7,Emergency Room
`

func testConfig(t *testing.T) config.Pipeline {
	t.Helper()
	dir := t.TempDir()

	encPath := filepath.Join(dir, "encounters.csv")
	if err := os.WriteFile(encPath, []byte(encountersCSV), 0o644); err != nil {
		t.Fatalf("write encounters: %v", err)
	}
	lookPath := filepath.Join(dir, "ids_mapping.csv")
	if err := os.WriteFile(lookPath, []byte(lookupCSV), 0o644); err != nil {
		t.Fatalf("write lookups: %v", err)
	}

	cfg := config.Pipeline{
		Job: "encounters",
		Source: config.Source{
			Encounters: encPath,
			Lookups:    lookPath,
		},
		Output: config.Output{
			BronzeDir:  filepath.Join(dir, "bronze"),
			SilverDir:  filepath.Join(dir, "silver"),
			ReportDir:  filepath.Join(dir, "reports"),
			SummaryDir: filepath.Join(dir, "summaries"),
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RunID == "" {
		t.Error("empty run id")
	}
	if res.Rows != 3 {
		t.Errorf("Rows = %d, want 3", res.Rows)
	}

	// Full artifact set on disk.
	for _, p := range append(append([]string{res.BronzePath}, res.SilverPaths...), res.ReportPaths...) {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing artifact %s: %v", p, err)
		}
	}
	if len(res.SummaryPaths) != 4 {
		t.Errorf("summary artifacts = %d, want 4", len(res.SummaryPaths))
	}

	// The silver CSV round-trips with the cleaned and derived fields.
	silver, err := storage.Read(res.SilverPaths[1])
	if err != nil {
		t.Fatalf("read silver: %v", err)
	}
	if len(silver.Rows) != 3 {
		t.Fatalf("silver rows = %d, want 3", len(silver.Rows))
	}
	first := silver.Rows[0]
	if got := first["diag_1_group"]; got != "diabetes" {
		t.Errorf("diag_1_group = %v, want diabetes", got)
	}
	if got := first["admission_type_desc"]; got != "Emergency" {
		t.Errorf("admission_type_desc = %v, want Emergency", got)
	}
	if got := first["admission_source_desc"]; got != "Emergency Room" {
		t.Errorf("admission_source_desc = %v, want Emergency Room", got)
	}
	if got := first["readmitted_any_flag"]; records.Render(got) != "0" {
		t.Errorf("readmitted_any_flag = %v, want 0", got)
	}

	// Manifest content.
	var m Manifest
	body, err := os.ReadFile(filepath.Join(cfg.Output.ReportDir, "silver_export_report.json"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID != res.RunID || m.Rows != 3 || m.Job != "encounters" {
		t.Errorf("manifest = %+v", m)
	}
	if m.RowsInserted != nil {
		t.Errorf("RowsInserted = %v, want omitted without a warehouse", *m.RowsInserted)
	}
}

func TestRunWithSQLiteWarehouse(t *testing.T) {
	cfg := testConfig(t)
	cfg.Warehouse = config.Warehouse{
		Kind:      "sqlite",
		DSN:       filepath.Join(t.TempDir(), "warehouse.db"),
		Table:     "encounters_silver",
		BatchSize: 2,
	}

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.RowsInserted != 3 {
		t.Errorf("RowsInserted = %d, want 3", res.RowsInserted)
	}
}

func TestRunMissingSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Encounters = filepath.Join(t.TempDir(), "nope.csv")
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestRunBadLookupShape(t *testing.T) {
	cfg := testConfig(t)
	twoBlocks := "admission_type_id,description\n1,Emergency\n,\nadmission_source_id,description\n7,Emergency Room\n"
	if err := os.WriteFile(cfg.Source.Lookups, []byte(twoBlocks), 0o644); err != nil {
		t.Fatalf("write lookups: %v", err)
	}
	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected lookup shape error")
	}
}

func TestRunWithoutLookups(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.Lookups = ""

	res, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	silver, err := storage.Read(res.SilverPaths[1])
	if err != nil {
		t.Fatalf("read silver: %v", err)
	}
	if v := silver.Rows[0]["admission_type_desc"]; !records.Missing(v) {
		t.Errorf("admission_type_desc = %v, want missing without lookups", v)
	}
}
