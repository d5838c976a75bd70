package transform

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"clinetl/internal/lookup"
	"clinetl/internal/transform/builtin"
	"clinetl/pkg/records"
)

// Lookup description column names, fixed before the join so three
// "description" columns cannot collide.
const (
	AdmissionTypeDesc        = "admission_type_desc"
	DischargeDispositionDesc = "discharge_disposition_desc"
	AdmissionSourceDesc      = "admission_source_desc"
)

// Engine applies the full ordered rule set to the raw row set and produces
// the cleaned row set: field rules, lookup enrichment, and column-name
// canonicalization. The raw rows are never mutated.
type Engine struct {
	Lookups lookup.Set

	// Workers > 1 splits the per-row rules across that many goroutines in
	// contiguous chunks. Output row order is unaffected.
	Workers int
}

// Apply transforms rows (described by columns, in order) and returns the
// cleaned rows plus the canonicalized output column list. The cleaned row
// count always equals the input row count.
func (e *Engine) Apply(rows []records.Record, columns []string) ([]records.Record, []string, error) {
	out := make([]records.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}

	medCols := presentFields(builtin.MedicationFields, columns)
	labCols := presentFields(builtin.LabFields, columns)
	diagCols := presentFields(builtin.DiagnosisFields, columns)

	chain := Chain{
		builtin.CoerceCounters{Fields: builtin.CounterFields},
		builtin.StringifyIDs{Fields: builtin.IDFields},
		builtin.CleanDiagnoses{Fields: diagCols},
		builtin.GroupDiagnosis{},
		builtin.StandardizeMeds{Columns: medCols},
		builtin.EncodeGender{},
		builtin.EncodeRace{},
		builtin.EncodeReadmitted{},
		builtin.CleanLabs{Fields: labCols},
	}

	if err := e.applyChunked(chain, out); err != nil {
		return nil, nil, err
	}

	if err := e.enrich(out, columns); err != nil {
		return nil, nil, err
	}

	outCols := outputColumns(columns, diagCols, medCols, labCols)
	canonicalized := canonicalizeColumns(out, outCols)

	return out, canonicalized, nil
}

// applyChunked runs the chain over contiguous row chunks, one goroutine per
// chunk. Every rule mutates rows in place and preserves length, so chunk
// boundaries carry no state and order is preserved by construction.
func (e *Engine) applyChunked(chain Chain, rows []records.Record) error {
	workers := e.Workers
	if workers <= 1 || len(rows) < workers {
		chain.Apply(rows)
		return nil
	}

	var g errgroup.Group
	chunk := (len(rows) + workers - 1) / workers
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		part := rows[start:end]
		g.Go(func() error {
			chain.Apply(part)
			return nil
		})
	}
	return g.Wait()
}

// enrich left-joins the three lookup tables by their id columns. Lookup
// tables are keyed maps, so the join can never change row cardinality;
// missing or unknown ids yield a nil description.
func (e *Engine) enrich(rows []records.Record, columns []string) error {
	joins := []struct {
		table   lookup.Table
		descCol string
	}{
		{e.Lookups.AdmissionType, AdmissionTypeDesc},
		{e.Lookups.DischargeDisposition, DischargeDispositionDesc},
		{e.Lookups.AdmissionSource, AdmissionSourceDesc},
	}
	for _, j := range joins {
		if j.table.IDColumn == "" {
			// No lookup table loaded; the description stays missing.
			for _, r := range rows {
				r[j.descCol] = nil
			}
			continue
		}
		if !containsColumn(columns, j.table.IDColumn) {
			return fmt.Errorf("transform: join column %q not present in data", j.table.IDColumn)
		}
		for _, r := range rows {
			var desc any
			if id, ok := records.String(r[j.table.IDColumn]); ok {
				if d, found := j.table.Description(id); found {
					desc = d
				}
			}
			r[j.descCol] = desc
		}
	}
	return nil
}

// outputColumns appends the derived columns to the raw columns in rule
// order, yielding a deterministic silver schema. Derived names already in
// the input (a re-run over cleaned data) are not appended twice.
func outputColumns(columns, diagCols, medCols, labCols []string) []string {
	out := make([]string, 0, len(columns)+2*len(medCols)+16)
	out = append(out, columns...)
	add := func(names ...string) {
		for _, n := range names {
			if !containsColumn(out, n) {
				out = append(out, n)
			}
		}
	}

	for _, c := range diagCols {
		add(c + "_clean")
	}
	if containsColumn(diagCols, "diag_1") {
		add("diag_1_group")
	}
	for _, c := range medCols {
		add(c+"_clean", c+"_clean_active_flag")
	}
	if len(medCols) > 0 {
		add(builtin.ActiveMedCountField)
	}
	if containsColumn(columns, "gender") {
		add("gender_clean", "gender_female_flag")
	}
	if containsColumn(columns, "race") {
		add("race_clean")
	}
	if containsColumn(columns, "readmitted") {
		add("readmitted_raw_clean", "readmitted_any_flag", "readmitted_30d_flag")
	}
	for _, c := range labCols {
		add(c + "_clean")
	}
	add(AdmissionTypeDesc, DischargeDispositionDesc, AdmissionSourceDesc)
	return out
}

// canonicalizeColumns renames every output column (and the corresponding
// record keys) to its canonical form.
func canonicalizeColumns(rows []records.Record, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		canonical := CanonicalName(col)
		out[i] = canonical
		if canonical == col {
			continue
		}
		for _, r := range rows {
			if v, ok := r[col]; ok {
				r[canonical] = v
				delete(r, col)
			}
		}
	}
	return out
}

// presentFields filters the known field list down to the columns actually in
// the data, accepting either the source spelling or its canonical form so a
// second pass over already-cleaned data resolves the same columns.
func presentFields(fields, columns []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		switch {
		case containsColumn(columns, f):
			out = append(out, f)
		case containsColumn(columns, CanonicalName(f)):
			out = append(out, CanonicalName(f))
		}
	}
	return out
}

func containsColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
