package storage

import (
	"fmt"
	"strings"

	"clinetl/pkg/records"
)

type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect selects the SQL type names used in generated DDL.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// InferTableDef derives a table definition from the observed values of t.
// A column is integer-typed only when every present value is an int64,
// float-typed when every present value is numeric, TEXT otherwise. Columns
// with no present values default to TEXT. All columns are nullable since
// the transform stage emits nil for unknown codes.
func InferTableDef(fqn string, t Table, d Dialect) (TableDef, error) {
	if fqn == "" {
		return TableDef{}, fmt.Errorf("missing table")
	}
	if len(t.Columns) == 0 {
		return TableDef{}, fmt.Errorf("no columns")
	}

	defs := make([]ColumnDef, 0, len(t.Columns))
	for _, name := range t.Columns {
		defs = append(defs, ColumnDef{
			Name:     name,
			SQLType:  mapType(columnKind(t.Rows, name), d),
			Nullable: true,
		})
	}
	return TableDef{FQN: fqn, Columns: defs}, nil
}

func columnKind(rows []records.Record, name string) string {
	kind := ""
	for _, r := range rows {
		v := r[name]
		if records.Missing(v) {
			continue
		}
		switch v.(type) {
		case int64:
			if kind == "" {
				kind = "integer"
			}
		case float64:
			if kind == "" || kind == "integer" {
				kind = "float"
			}
		default:
			return "text"
		}
	}
	return kind
}

func mapType(kind string, d Dialect) string {
	switch strings.ToLower(kind) {
	case "int", "integer":
		if d == DialectSQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case "float", "double":
		if d == DialectSQLite {
			return "REAL"
		}
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func BuildCreateTableSQL(t TableDef) (string, error) {
	if t.FQN == "" {
		return "", fmt.Errorf("missing table name")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("no columns")
	}

	parts := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		line := fmt.Sprintf(`"%s" %s`, c.Name, c.SQLType)
		if !c.Nullable {
			line += " NOT NULL"
		}
		parts = append(parts, line)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(t.FQN),
		strings.Join(parts, ",\n  "),
	), nil
}

func quoteFQN(f string) string {
	ps := strings.Split(f, ".")
	for i := range ps {
		ps[i] = `"` + strings.ReplaceAll(ps[i], `"`, `""`) + `"`
	}
	return strings.Join(ps, ".")
}
