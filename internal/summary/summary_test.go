package summary

import (
	"os"
	"path/filepath"
	"testing"

	"clinetl/pkg/records"
)

func syntheticRows() []records.Record {
	return []records.Record{
		{"encounter_id": "1", "patient_nbr": "p1", "age": "[60-70)", "gender": "Female", "race": "Caucasian", "insulin": "Steady", "time_in_hospital": int64(2), "num_medications": int64(10), "readmitted": "NO"},
		{"encounter_id": "2", "patient_nbr": "p2", "age": "[60-70)", "gender": "Male", "race": "Caucasian", "insulin": "No", "time_in_hospital": int64(4), "num_medications": int64(20), "readmitted": "NO"},
		{"encounter_id": "3", "patient_nbr": "p1", "age": "[70-80)", "gender": "Female", "race": "AfricanAmerican", "insulin": "Steady", "time_in_hospital": int64(6), "num_medications": int64(30), "readmitted": "<30"},
		{"encounter_id": "4", "patient_nbr": "p3", "age": "[70-80)", "gender": "Male", "race": nil, "insulin": "Up", "time_in_hospital": nil, "num_medications": int64(40), "readmitted": ">30"},
	}
}

func TestOverall(t *testing.T) {
	tbl := Overall(syntheticRows())
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(tbl.Rows))
	}
	r := tbl.Rows[0]

	if r["n_encounters"] != int64(4) {
		t.Errorf("n_encounters = %v", r["n_encounters"])
	}
	if r["n_unique_patients"] != int64(3) {
		t.Errorf("n_unique_patients = %v", r["n_unique_patients"])
	}
	// Mean over present stay lengths only: (2+4+6)/3.
	if got, _ := records.Float(r["mean_length_of_stay_days"]); got != 4 {
		t.Errorf("mean_length_of_stay_days = %v, want 4", got)
	}
	if got, _ := records.Float(r["median_length_of_stay_days"]); got != 4 {
		t.Errorf("median_length_of_stay_days = %v, want 4", got)
	}
	if got, _ := records.Float(r["mean_num_medications"]); got != 25 {
		t.Errorf("mean_num_medications = %v, want 25", got)
	}
	// 2 NO + 1 "<30" + 1 ">30": any rate 0.5, 30-day rate 0.25.
	if got, _ := records.Float(r["readmission_rate_any"]); got != 0.5 {
		t.Errorf("readmission_rate_any = %v, want 0.5", got)
	}
	if got, _ := records.Float(r["readmission_rate_30d"]); got != 0.25 {
		t.Errorf("readmission_rate_30d = %v, want 0.25", got)
	}
}

func TestRateExcludesMissing(t *testing.T) {
	rows := []records.Record{
		{"readmitted": "NO"},
		{"readmitted": "<30"},
		{"readmitted": nil},
		{"readmitted": "MAYBE"},
	}
	// Only the two recognized statuses count.
	if got, _ := records.Float(rate(rows, "readmitted", readmittedAny)); got != 0.5 {
		t.Errorf("rate = %v, want 0.5", got)
	}

	if r := rate(nil, "readmitted", readmittedAny); !records.Missing(r) {
		t.Errorf("rate over empty set = %v, want missing", r)
	}
}

func TestByAge(t *testing.T) {
	tbl := ByAge(syntheticRows())
	if len(tbl.Rows) != 2 {
		t.Fatalf("groups = %d, want 2", len(tbl.Rows))
	}
	// Buckets ascending.
	if tbl.Rows[0]["age"] != "[60-70)" || tbl.Rows[1]["age"] != "[70-80)" {
		t.Fatalf("bucket order = %v, %v", tbl.Rows[0]["age"], tbl.Rows[1]["age"])
	}
	if got, _ := records.Float(tbl.Rows[0]["readmission_rate"]); got != 0 {
		t.Errorf("[60-70) rate = %v, want 0", got)
	}
	if got, _ := records.Float(tbl.Rows[1]["readmission_rate"]); got != 1 {
		t.Errorf("[70-80) rate = %v, want 1", got)
	}
}

func TestByInsulin(t *testing.T) {
	tbl := ByInsulin(syntheticRows())
	if len(tbl.Rows) != 3 {
		t.Fatalf("groups = %d, want 3", len(tbl.Rows))
	}
	// Lexical status order.
	want := []string{"No", "Steady", "Up"}
	for i, w := range want {
		if tbl.Rows[i]["insulin"] != w {
			t.Errorf("row %d insulin = %v, want %s", i, tbl.Rows[i]["insulin"], w)
		}
	}
	if tbl.Rows[1]["n_encounters"] != int64(2) {
		t.Errorf("Steady count = %v, want 2", tbl.Rows[1]["n_encounters"])
	}
}

func TestByRaceGender(t *testing.T) {
	tbl := ByRaceGender(syntheticRows())
	if len(tbl.Rows) != 4 {
		t.Fatalf("groups = %d, want 4", len(tbl.Rows))
	}
	// The missing-race group sorts ahead of any present value.
	first := tbl.Rows[0]
	if !records.Missing(first["race"]) || first["gender"] != "Male" {
		t.Fatalf("first group = %v/%v, want missing race", first["race"], first["gender"])
	}
	if first["n_encounters"] != int64(1) {
		t.Errorf("missing-race count = %v", first["n_encounters"])
	}
	if !records.Missing(first["mean_los_days"]) {
		t.Errorf("missing-race mean_los_days = %v, want missing", first["mean_los_days"])
	}

	second := tbl.Rows[1]
	if second["race"] != "AfricanAmerican" || second["gender"] != "Female" {
		t.Errorf("second group = %v/%v", second["race"], second["gender"])
	}
	// Caucasian Female before Caucasian Male.
	if tbl.Rows[2]["gender"] != "Female" || tbl.Rows[3]["gender"] != "Male" {
		t.Errorf("gender order = %v, %v", tbl.Rows[2]["gender"], tbl.Rows[3]["gender"])
	}
	if got, _ := records.Float(tbl.Rows[2]["mean_los_days"]); got != 2 {
		t.Errorf("Caucasian Female mean_los_days = %v, want 2", got)
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteAll(syntheticRows(), dir)
	if err != nil {
		t.Fatalf("WriteAll: %v", err)
	}
	if len(paths) != 4 {
		t.Fatalf("paths = %d, want 4", len(paths))
	}
	for _, name := range []string{OverallFile, ByAgeFile, ByInsulinFile, RaceGenderFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}
