package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"clinetl/pkg/records"
)

func sampleTable() Table {
	return Table{
		Columns: []string{"encounter_id", "age", "num_medications", "weight"},
		Rows: []records.Record{
			{"encounter_id": "2278392", "age": "[70-80)", "num_medications": int64(18), "weight": nil},
			{"encounter_id": "149190", "age": "[60-70)", "num_medications": int64(9), "weight": nil},
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	want := sampleTable()
	if err := Write(want, path, FormatCSV); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got.Rows) != len(want.Rows) {
		t.Fatalf("rows = %d, want %d", len(got.Rows), len(want.Rows))
	}
	if !equalStrings(got.Columns, want.Columns) {
		t.Fatalf("columns = %v, want %v", got.Columns, want.Columns)
	}
	if v := got.Rows[0]["num_medications"]; records.Render(v) != "18" {
		t.Errorf("num_medications = %v, want 18", v)
	}
	if v := got.Rows[0]["weight"]; !records.Missing(v) {
		t.Errorf("weight = %v, want missing", v)
	}
}

func TestWriteParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.parquet")

	tbl := sampleTable()
	if err := WriteParquet(tbl, path); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if pf.NumRows() != int64(len(tbl.Rows)) {
		t.Errorf("rows = %d, want %d", pf.NumRows(), len(tbl.Rows))
	}
	fields := pf.Schema().Fields()
	if len(fields) != len(tbl.Columns) {
		t.Errorf("schema fields = %d, want %d", len(fields), len(tbl.Columns))
	}
}

func TestInferTableDef(t *testing.T) {
	tbl := Table{
		Columns: []string{"id", "count", "ratio", "label", "empty"},
		Rows: []records.Record{
			{"id": "a", "count": int64(1), "ratio": 0.5, "label": "x", "empty": nil},
			{"id": "b", "count": int64(2), "ratio": int64(1), "label": nil, "empty": nil},
		},
	}
	def, err := InferTableDef("silver", tbl, DialectSQLite)
	if err != nil {
		t.Fatalf("InferTableDef: %v", err)
	}
	want := map[string]string{
		"id":    "TEXT",
		"count": "INTEGER",
		"ratio": "REAL",
		"label": "TEXT",
		"empty": "TEXT",
	}
	for _, c := range def.Columns {
		if c.SQLType != want[c.Name] {
			t.Errorf("column %s type = %s, want %s", c.Name, c.SQLType, want[c.Name])
		}
	}

	pg, err := InferTableDef("public.silver", tbl, DialectPostgres)
	if err != nil {
		t.Fatalf("InferTableDef postgres: %v", err)
	}
	if pg.Columns[1].SQLType != "BIGINT" {
		t.Errorf("postgres count type = %s, want BIGINT", pg.Columns[1].SQLType)
	}
	if pg.Columns[2].SQLType != "DOUBLE PRECISION" {
		t.Errorf("postgres ratio type = %s, want DOUBLE PRECISION", pg.Columns[2].SQLType)
	}

	if _, err := InferTableDef("", tbl, DialectSQLite); err == nil {
		t.Error("expected error for missing table name")
	}
}

func TestBuildCreateTableSQL(t *testing.T) {
	def := TableDef{
		FQN: "public.silver",
		Columns: []ColumnDef{
			{Name: "id", SQLType: "TEXT", Nullable: true},
			{Name: "count", SQLType: "BIGINT", Nullable: true},
		},
	}
	sql, err := BuildCreateTableSQL(def)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	if !strings.Contains(sql, `CREATE TABLE IF NOT EXISTS "public"."silver"`) {
		t.Errorf("unexpected DDL: %s", sql)
	}
	if !strings.Contains(sql, `"count" BIGINT`) {
		t.Errorf("missing column def: %s", sql)
	}

	if _, err := BuildCreateTableSQL(TableDef{FQN: "t"}); err == nil {
		t.Error("expected error for no columns")
	}
}

func TestLoadBatches(t *testing.T) {
	in := make(chan []any)
	go func() {
		for i := 0; i < 25; i++ {
			in <- []any{int64(i)}
		}
		close(in)
	}()

	var calls int
	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		calls++
		return int64(len(rows)), nil
	}

	total, err := LoadBatches(context.Background(), []string{"n"}, in, 10, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches: %v", err)
	}
	if total != 25 {
		t.Errorf("total = %d, want 25", total)
	}
	if calls != 3 {
		t.Errorf("copy calls = %d, want 3", calls)
	}
}

func TestLoadBatchesCopyError(t *testing.T) {
	in := make(chan []any)
	go func() {
		for i := 0; i < 5; i++ {
			in <- []any{i}
		}
		close(in)
	}()

	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		return 0, fmt.Errorf("boom")
	}
	if _, err := LoadBatches(context.Background(), []string{"n"}, in, 2, copyFn); err == nil {
		t.Fatal("expected copy error")
	}
}

type fakeSink struct {
	ddl  []string
	rows [][]any
}

func (f *fakeSink) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeSink) Exec(ctx context.Context, sql string) error {
	f.ddl = append(f.ddl, sql)
	return nil
}

func TestLoadTable(t *testing.T) {
	sink := &fakeSink{}
	tbl := sampleTable()

	total, err := LoadTable(context.Background(), sink, tbl, "encounters_silver", DialectSQLite, 1)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if total != int64(len(tbl.Rows)) {
		t.Errorf("total = %d, want %d", total, len(tbl.Rows))
	}
	if len(sink.ddl) != 1 || !strings.Contains(sink.ddl[0], "CREATE TABLE IF NOT EXISTS") {
		t.Errorf("ddl = %v", sink.ddl)
	}
	if len(sink.rows) != len(tbl.Rows) {
		t.Errorf("rows copied = %d, want %d", len(sink.rows), len(tbl.Rows))
	}
	// Row values follow the column order.
	if sink.rows[0][0] != "2278392" {
		t.Errorf("first cell = %v, want encounter id", sink.rows[0][0])
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
