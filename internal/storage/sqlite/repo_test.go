package sqlite

import (
	"context"
	"testing"
)

func TestCopyFrom(t *testing.T) {
	ctx := context.Background()
	sink, closeFn, err := New(ctx, Config{DSN: ":memory:", Table: "encounters"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	ddl := `CREATE TABLE encounters ("encounter_id" TEXT, "num_medications" INTEGER);`
	if err := sink.Exec(ctx, ddl); err != nil {
		t.Fatalf("Exec ddl: %v", err)
	}

	rows := [][]any{
		{"2278392", int64(18)},
		{"149190", nil},
	}
	n, err := sink.CopyFrom(ctx, []string{"encounter_id", "num_medications"}, rows)
	if err != nil {
		t.Fatalf("CopyFrom: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	var count int
	if err := sink.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM encounters").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}

	// Mismatched row width rolls the batch back.
	if _, err := sink.CopyFrom(ctx, []string{"encounter_id"}, [][]any{{"a", "b"}}); err == nil {
		t.Error("expected error for row width mismatch")
	}
}

func TestNewEmptyDSN(t *testing.T) {
	if _, _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error for empty DSN")
	}
}
