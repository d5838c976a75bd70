// Package postgres implements a Postgres-backed storage.Sink using pgx v5
// and its native COPY protocol.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Config holds Postgres sink configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // possibly schema-qualified target, e.g. "public.encounters_silver"
}

// Sink is a Postgres-backed warehouse destination.
type Sink struct {
	pool *pgxpool.Pool
	cfg  Config
}

// New constructs a Sink and returns a close function for cleanup.
func New(ctx context.Context, cfg Config) (*Sink, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Sink{pool: pool, cfg: cfg}, closeFn, nil
}

// CopyFrom streams rows into the configured table with the COPY protocol.
func (s *Sink) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	n, err := s.pool.CopyFrom(ctx, splitFQN(s.cfg.Table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return n, fmt.Errorf("postgres: copy: %w", err)
	}
	return n, nil
}

// Exec executes an arbitrary SQL statement, typically DDL.
func (s *Sink) Exec(ctx context.Context, sql string) error {
	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
// If no dot is present, returns {"table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}
