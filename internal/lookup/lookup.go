// Package lookup parses the composite id-mapping extract into the three
// code-to-description tables joined onto encounters (admission type,
// discharge disposition, admission source).
//
// The source file holds three small CSV blocks, each with its own header,
// separated by blank or delimiter-only lines. The block count and the
// uniqueness of each block's keys are validated here so the downstream join
// cannot silently change row cardinality.
package lookup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	parsecsv "clinetl/internal/parser/csv"
	"clinetl/pkg/records"
)

// ErrBlockCount is returned when the mapping file does not contain exactly
// three blocks.
var ErrBlockCount = errors.New("lookup: unexpected block count")

// ErrDuplicateKey is returned when a block contains the same id more than
// once. Duplicate keys would inflate the encounter row count on join.
var ErrDuplicateKey = errors.New("lookup: duplicate key")

// Table maps opaque text ids to human-readable descriptions. It is built once
// per run and read-only afterward.
type Table struct {
	// Name is the logical table name, e.g. "admission_type".
	Name string

	// IDColumn is the join column on the encounter side, e.g.
	// "admission_type_id".
	IDColumn string

	descriptions map[string]string
}

// Description returns the description for id and whether one is present.
func (t Table) Description(id string) (string, bool) {
	d, ok := t.descriptions[id]
	return d, ok
}

// Len returns the number of ids in the table.
func (t Table) Len() int { return len(t.descriptions) }

// Set holds the three lookup tables in the fixed order they appear in the
// mapping file.
type Set struct {
	AdmissionType        Table
	DischargeDisposition Table
	AdmissionSource      Table
}

// expected fixes the block order and naming of the mapping file.
var expected = []struct {
	name     string
	idColumn string
}{
	{"admission_type", "admission_type_id"},
	{"discharge_disposition", "discharge_disposition_id"},
	{"admission_source", "admission_source_id"},
}

// ParseFile reads the mapping file at path and parses it with Parse.
func ParseFile(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return Set{}, fmt.Errorf("lookup: open: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse splits r into blocks and parses each as a small code table. It
// returns ErrBlockCount when the block count is not exactly three and
// ErrDuplicateKey when any block repeats an id.
func Parse(r io.Reader) (Set, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Set{}, fmt.Errorf("lookup: read: %w", err)
	}

	blocks := splitBlocks(string(raw))
	if len(blocks) != len(expected) {
		return Set{}, fmt.Errorf("%w: expected %d, found %d", ErrBlockCount, len(expected), len(blocks))
	}

	tables := make([]Table, len(blocks))
	for i, block := range blocks {
		t, err := parseBlock(block, expected[i].name, expected[i].idColumn)
		if err != nil {
			return Set{}, err
		}
		tables[i] = t
	}

	return Set{
		AdmissionType:        tables[0],
		DischargeDisposition: tables[1],
		AdmissionSource:      tables[2],
	}, nil
}

// splitBlocks partitions the file into contiguous non-blank segments. A
// separator line is empty or consists solely of the delimiter character.
func splitBlocks(text string) []string {
	var blocks []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "," {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return blocks
}

// parseBlock parses one block as a two-column code table. Ids are kept as
// text for stable join keys; rows with a missing id are ignored.
func parseBlock(block, name, idColumn string) (Table, error) {
	p := parsecsv.NewParser(parsecsv.Options{HasHeader: true, TrimSpace: true})
	rows, headers, _, err := p.Parse(strings.NewReader(block))
	if err != nil {
		return Table{}, fmt.Errorf("lookup: parse %s block: %w", name, err)
	}
	if len(headers) == 0 {
		return Table{}, fmt.Errorf("lookup: %s block has no header", name)
	}

	// The id is always the first column; the description column is matched by
	// name with a positional fallback for header drift.
	idKey := headers[0]
	descKey := "description"
	if !contains(headers, descKey) && len(headers) > 1 {
		descKey = headers[1]
	}

	t := Table{Name: name, IDColumn: idColumn, descriptions: make(map[string]string, len(rows))}
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		id, ok := records.String(row[idKey])
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			return Table{}, fmt.Errorf("%w: %s id %q", ErrDuplicateKey, name, id)
		}
		seen[id] = struct{}{}
		if desc, ok := records.String(row[descKey]); ok {
			t.descriptions[id] = desc
		}
	}
	return t, nil
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
