// Package audit computes the data-quality report over the raw encounter row
// set. It is a pure read-only pass: findings are diagnostic output and never
// halt the pipeline or mutate data.
package audit

import (
	"sort"

	"github.com/zeebo/xxh3"

	"clinetl/pkg/records"
)

// ColumnMissing is the per-column missing tally.
type ColumnMissing struct {
	Column       string  `json:"column"`
	MissingCount int     `json:"missing_count"`
	MissingPct   float64 `json:"missing_pct"`
}

// Structural holds the missing/duplicate checks.
type Structural struct {
	RowCount        int             `json:"row_count"`
	ColumnCount     int             `json:"column_count"`
	MissingByColumn []ColumnMissing `json:"missing_by_column"`
	DuplicateRows   int             `json:"duplicates_all_rows"`

	// DuplicateEncounters is nil when the encounter_id column is absent.
	DuplicateEncounters *int `json:"duplicates_by_encounter_id"`
}

// Logical holds the domain-rule checks. Pointer fields are nil when no valid
// observation exists (or the column is absent).
type Logical struct {
	AgeMinObserved *int `json:"age_min_observed"`
	AgeMaxObserved *int `json:"age_max_observed"`
	AgeInvalidRows int  `json:"age_invalid_rows"`
	AgeOutOfRange  int  `json:"age_out_of_0_120"`

	TimeInHospitalInvalid  int `json:"time_in_hospital_invalid_rows"`
	TimeInHospitalBelowMin int `json:"time_in_hospital_less_than_1"`
	TimeInHospitalAboveMax int `json:"time_in_hospital_greater_than_14"`

	GenderObserved []string `json:"gender_unique_values"`
	GenderInvalid  []string `json:"gender_invalid_values"`
}

// Report is the immutable validation snapshot produced once per run.
type Report struct {
	Structural Structural `json:"missing_and_duplicates"`
	Logical    Logical    `json:"logical_checks"`
}

// validGenders is the closed enumerated set for the gender column.
var validGenders = map[string]struct{}{
	"Male":            {},
	"Female":          {},
	"Unknown/Invalid": {},
}

// Run audits rows against the column list and returns the report. Logical
// checks whose column is absent are skipped, matching the extract-dependent
// behavior of the source data.
func Run(rows []records.Record, columns []string) Report {
	return Report{
		Structural: structural(rows, columns),
		Logical:    logical(rows, hasColumn(columns, "age"), hasColumn(columns, "time_in_hospital"), hasColumn(columns, "gender")),
	}
}

func structural(rows []records.Record, columns []string) Structural {
	s := Structural{
		RowCount:        len(rows),
		ColumnCount:     len(columns),
		MissingByColumn: make([]ColumnMissing, 0, len(columns)),
	}

	for _, col := range columns {
		missing := 0
		for _, r := range rows {
			if records.Missing(r[col]) {
				missing++
			}
		}
		pct := 0.0
		if len(rows) > 0 {
			pct = float64(missing) / float64(len(rows))
		}
		s.MissingByColumn = append(s.MissingByColumn, ColumnMissing{Column: col, MissingCount: missing, MissingPct: pct})
	}

	s.DuplicateRows = duplicateRows(rows, columns)

	if hasColumn(columns, "encounter_id") {
		seen := make(map[string]struct{}, len(rows))
		dups := 0
		for _, r := range rows {
			key := records.Render(r["encounter_id"])
			if _, ok := seen[key]; ok {
				dups++
				continue
			}
			seen[key] = struct{}{}
		}
		s.DuplicateEncounters = &dups
	}

	return s
}

// duplicateRows counts rows whose full column vector repeats an earlier row.
// Rows are fingerprinted with xxh3 over the ordered values; a 0x1f separator
// and a 0x00 marker for missing keep distinct vectors from colliding.
func duplicateRows(rows []records.Record, columns []string) int {
	seen := make(map[uint64]struct{}, len(rows))
	dups := 0
	for _, r := range rows {
		h := xxh3.New()
		for _, col := range columns {
			v := r[col]
			if records.Missing(v) {
				h.Write([]byte{0x00})
			} else {
				h.WriteString(records.Render(v))
			}
			h.Write([]byte{0x1f})
		}
		sum := h.Sum64()
		if _, ok := seen[sum]; ok {
			dups++
			continue
		}
		seen[sum] = struct{}{}
	}
	return dups
}

func logical(rows []records.Record, hasAge, hasTIH, hasGender bool) Logical {
	var l Logical

	if hasAge {
		for _, r := range rows {
			s, ok := records.String(r["age"])
			if !ok {
				continue
			}
			low, high, valid := ParseAgeBucket(s)
			if !valid {
				l.AgeInvalidRows++
				continue
			}
			if l.AgeMinObserved == nil || low < *l.AgeMinObserved {
				lo := low
				l.AgeMinObserved = &lo
			}
			if l.AgeMaxObserved == nil || high > *l.AgeMaxObserved {
				hi := high
				l.AgeMaxObserved = &hi
			}
			if low < 0 || high > 120 {
				l.AgeOutOfRange++
			}
		}
	}

	if hasTIH {
		for _, r := range rows {
			f, ok := records.Float(r["time_in_hospital"])
			if !ok {
				l.TimeInHospitalInvalid++
				continue
			}
			if f < 1 {
				l.TimeInHospitalBelowMin++
			}
			if f > 14 {
				l.TimeInHospitalAboveMax++
			}
		}
	}

	if hasGender {
		observed := map[string]struct{}{}
		for _, r := range rows {
			if s, ok := records.String(r["gender"]); ok {
				observed[s] = struct{}{}
			}
		}
		l.GenderObserved = make([]string, 0, len(observed))
		l.GenderInvalid = []string{}
		for s := range observed {
			l.GenderObserved = append(l.GenderObserved, s)
			if _, ok := validGenders[s]; !ok {
				l.GenderInvalid = append(l.GenderInvalid, s)
			}
		}
		sort.Strings(l.GenderObserved)
		sort.Strings(l.GenderInvalid)
	}

	return l
}

func hasColumn(columns []string, name string) bool {
	for _, c := range columns {
		if c == name {
			return true
		}
	}
	return false
}
