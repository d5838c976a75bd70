package builtin

import (
	"strings"

	"clinetl/pkg/records"
)

// medStatus maps raw medication statuses to their standardized form. The
// standardized values map to themselves so re-running on cleaned data is a
// no-op.
var medStatus = map[string]string{
	"No":        "no",
	"Steady":    "steady",
	"Up":        "increased",
	"Down":      "decreased",
	"no":        "no",
	"steady":    "steady",
	"increased": "increased",
	"decreased": "decreased",
}

// StandardizeMeds standardizes each medication column into "<col>_clean" and
// a "<col>_clean_active_flag" (1 when the medication is administered in any
// form, 0 for "no", nil for missing), then sums the flags into the active
// medication count. Unmodeled literals are treated as missing, never passed
// through.
type StandardizeMeds struct {
	Columns []string
}

func (m StandardizeMeds) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		var active int64
		var any bool
		for _, col := range m.Columns {
			if _, ok := r[col]; !ok {
				continue
			}
			any = true
			status := standardizeMedStatus(r[col])
			r[col+"_clean"] = status
			flag := medActiveFlag(status)
			r[col+"_clean_active_flag"] = flag
			if f, ok := flag.(int64); ok {
				active += f
			}
		}
		if any {
			r[ActiveMedCountField] = active
		}
	}
	return in
}

func standardizeMedStatus(v any) any {
	s, ok := records.String(v)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	// "None" joins the shared sentinels as missing for medication columns.
	if s == "None" {
		return nil
	}
	if mapped, ok := medStatus[s]; ok {
		return mapped
	}
	return nil
}

func medActiveFlag(status any) any {
	s, ok := status.(string)
	if !ok {
		return nil
	}
	switch s {
	case "steady", "increased", "decreased":
		return int64(1)
	case "no":
		return int64(0)
	}
	return nil
}
