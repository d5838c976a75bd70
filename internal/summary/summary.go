// Package summary derives the four aggregate tables from the cleaned
// encounter set: overall metrics, readmission rate by age bucket, by insulin
// status, and by race and gender. Aggregations are read-only and
// order-insensitive; each output is re-sorted by its grouping key.
//
// Rates are missing-aware means: rows whose readmission status is missing or
// unrecognized are excluded from both numerator and denominator.
package summary

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"clinetl/internal/storage"
	"clinetl/pkg/records"
)

// File names of the summary artifacts, relative to the summary directory.
const (
	OverallFile    = "summary_overall_metrics.csv"
	ByAgeFile      = "readmission_by_age.csv"
	ByInsulinFile  = "readmission_by_insulin.csv"
	RaceGenderFile = "race_gender_summary.csv"
)

// readmittedAny classifies the raw readmission status: 0 for "NO", 1 for
// "<30" and ">30", nil for missing or unrecognized values.
func readmittedAny(v any) any {
	s, ok := records.String(v)
	if !ok {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NO":
		return int64(0)
	case "<30", ">30":
		return int64(1)
	}
	return nil
}

// readmitted30d classifies the raw readmission status against the 30-day
// window: 1 for "<30", 0 for "NO" and ">30", nil otherwise.
func readmitted30d(v any) any {
	s, ok := records.String(v)
	if !ok {
		return nil
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "<30":
		return int64(1)
	case "NO", ">30":
		return int64(0)
	}
	return nil
}

// mean averages the present numeric values of column col; nil when none are
// present.
func mean(rows []records.Record, col string) any {
	var sum float64
	var n int
	for _, r := range rows {
		if f, ok := records.Float(r[col]); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return sum / float64(n)
}

// median returns the middle of the present numeric values of column col;
// nil when none are present. Even-sized sets average the two middle values.
func median(rows []records.Record, col string) any {
	var vals []float64
	for _, r := range rows {
		if f, ok := records.Float(r[col]); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return nil
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

// rate is the missing-aware mean of classify over column col.
func rate(rows []records.Record, col string, classify func(any) any) any {
	var sum float64
	var n int
	for _, r := range rows {
		c := classify(r[col])
		if records.Missing(c) {
			continue
		}
		f, _ := records.Float(c)
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	return sum / float64(n)
}

// Overall produces the single-row overall metrics table.
func Overall(rows []records.Record) storage.Table {
	patients := map[string]struct{}{}
	for _, r := range rows {
		if s, ok := records.String(r["patient_nbr"]); ok {
			patients[s] = struct{}{}
		}
	}

	row := records.Record{
		"n_encounters":               int64(len(rows)),
		"n_unique_patients":          int64(len(patients)),
		"mean_length_of_stay_days":   mean(rows, "time_in_hospital"),
		"median_length_of_stay_days": median(rows, "time_in_hospital"),
		"mean_num_medications":       mean(rows, "num_medications"),
		"readmission_rate_any":       rate(rows, "readmitted", readmittedAny),
		"readmission_rate_30d":       rate(rows, "readmitted", readmitted30d),
	}
	return storage.Table{
		Columns: []string{
			"n_encounters",
			"n_unique_patients",
			"mean_length_of_stay_days",
			"median_length_of_stay_days",
			"mean_num_medications",
			"readmission_rate_any",
			"readmission_rate_30d",
		},
		Rows: []records.Record{row},
	}
}

// group collects row indices per composite key. Missing key fields group
// under their own bucket, which sorts ahead of any present value.
type group struct {
	key  []any
	rows []records.Record
}

func groupBy(rows []records.Record, keys ...string) []group {
	index := map[string]*group{}
	var order []string
	for _, r := range rows {
		parts := make([]string, len(keys))
		vals := make([]any, len(keys))
		for i, k := range keys {
			v := r[k]
			if records.Missing(v) {
				parts[i] = "\x00"
				vals[i] = nil
			} else {
				parts[i] = "\x01" + records.Render(v)
				vals[i] = v
			}
		}
		ck := strings.Join(parts, "\x1f")
		g, ok := index[ck]
		if !ok {
			g = &group{key: vals}
			index[ck] = g
			order = append(order, ck)
		}
		g.rows = append(g.rows, r)
	}

	sort.Strings(order)
	out := make([]group, 0, len(order))
	for _, ck := range order {
		out = append(out, *index[ck])
	}
	return out
}

// byKey builds a per-group count/readmission-rate table over one grouping
// column.
func byKey(rows []records.Record, key string) storage.Table {
	t := storage.Table{Columns: []string{key, "n_encounters", "readmission_rate"}}
	for _, g := range groupBy(rows, key) {
		t.Rows = append(t.Rows, records.Record{
			key:                g.key[0],
			"n_encounters":     int64(len(g.rows)),
			"readmission_rate": rate(g.rows, "readmitted", readmittedAny),
		})
	}
	return t
}

// ByAge produces encounter counts and readmission rates per age bucket,
// buckets ascending.
func ByAge(rows []records.Record) storage.Table {
	return byKey(rows, "age")
}

// ByInsulin produces encounter counts and readmission rates per raw insulin
// status, statuses in lexical order.
func ByInsulin(rows []records.Record) storage.Table {
	return byKey(rows, "insulin")
}

// ByRaceGender produces counts, mean length of stay, and readmission rate
// per race and gender combination, ordered lexically by (race, gender).
func ByRaceGender(rows []records.Record) storage.Table {
	t := storage.Table{Columns: []string{"race", "gender", "n_encounters", "mean_los_days", "readmission_rate"}}
	for _, g := range groupBy(rows, "race", "gender") {
		t.Rows = append(t.Rows, records.Record{
			"race":             g.key[0],
			"gender":           g.key[1],
			"n_encounters":     int64(len(g.rows)),
			"mean_los_days":    mean(g.rows, "time_in_hospital"),
			"readmission_rate": rate(g.rows, "readmitted", readmittedAny),
		})
	}
	return t
}

// WriteAll computes the four summary tables and writes them as CSV artifacts
// under dir. It returns the written paths.
func WriteAll(rows []records.Record, dir string) ([]string, error) {
	outputs := []struct {
		name  string
		table storage.Table
	}{
		{OverallFile, Overall(rows)},
		{ByAgeFile, ByAge(rows)},
		{ByInsulinFile, ByInsulin(rows)},
		{RaceGenderFile, ByRaceGender(rows)},
	}

	paths := make([]string, 0, len(outputs))
	for _, o := range outputs {
		path := filepath.Join(dir, o.name)
		if err := storage.Write(o.table, path, storage.FormatCSV); err != nil {
			return paths, fmt.Errorf("summary: write %s: %w", o.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
