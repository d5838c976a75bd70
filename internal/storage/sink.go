package storage

import (
	"context"
	"fmt"
)

// Sink is a warehouse destination for a transformed table. Backends provide
// their most efficient bulk path via CopyFrom and arbitrary DDL via Exec.
// Cleanup is handled by the close function the backend constructor returns.
type Sink interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
}

// LoadTable bootstraps the destination table from the inferred definition and
// streams t into the sink in batches. It returns the number of rows the
// backend reported as inserted.
func LoadTable(ctx context.Context, s Sink, t Table, fqn string, d Dialect, batchSize int) (int64, error) {
	def, err := InferTableDef(fqn, t, d)
	if err != nil {
		return 0, err
	}
	ddl, err := BuildCreateTableSQL(def)
	if err != nil {
		return 0, err
	}
	if err := s.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("storage: create table %s: %w", fqn, err)
	}

	in := make(chan []any, batchSize)
	go func() {
		defer close(in)
		for _, r := range t.Rows {
			row := make([]any, len(t.Columns))
			for i, col := range t.Columns {
				row[i] = r[col]
			}
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	return LoadBatches(ctx, t.Columns, in, batchSize, s.CopyFrom)
}
