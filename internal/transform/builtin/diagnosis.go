package builtin

import (
	"regexp"
	"strconv"
	"strings"

	"clinetl/pkg/records"
)

// CleanDiagnoses standardizes each diagnosis-code column into a "<col>_clean"
// companion: trimmed, uppercased, sentinels mapped to nil.
type CleanDiagnoses struct {
	Fields []string
}

func (c CleanDiagnoses) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for _, field := range c.Fields {
			if _, ok := r[field]; !ok {
				continue
			}
			r[field+"_clean"] = cleanDiagCode(r[field])
		}
	}
	return in
}

func cleanDiagCode(v any) any {
	s, ok := records.String(v)
	if !ok {
		return nil
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || records.IsSentinel(s) {
		return nil
	}
	return s
}

// Diagnosis group labels.
const (
	GroupDiabetes    = "diabetes"
	GroupCirculatory = "circulatory"
	GroupRespiratory = "respiratory"
	GroupDigestive   = "digestive"
	GroupOther       = "other"
)

// leadingNumber matches the leading numeric token (integer or decimal) of a
// diagnosis code.
var leadingNumber = regexp.MustCompile(`^(\d+(\.\d+)?)`)

// GroupDiagnosis derives the primary diagnosis group from the cleaned
// diag_1 code into "diag_1_group".
type GroupDiagnosis struct{}

func (GroupDiagnosis) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		if _, ok := r["diag_1_clean"]; !ok {
			continue
		}
		r["diag_1_group"] = DiagGroup(r["diag_1_clean"])
	}
	return in
}

// DiagGroup classifies a cleaned ICD-9 code. The "250" prefix captures the
// whole 250.xx diabetes family without a numeric parse; other codes are
// bucketed by their leading numeric value, and codes with no leading number
// (V/E codes) fall into "other". Missing stays missing.
func DiagGroup(v any) any {
	code, ok := records.String(v)
	if !ok {
		return nil
	}
	if strings.HasPrefix(code, "250") {
		return GroupDiabetes
	}
	m := leadingNumber.FindString(code)
	if m == "" {
		return GroupOther
	}
	num, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return GroupOther
	}
	switch {
	case num >= 390 && num <= 459:
		return GroupCirculatory
	case num >= 460 && num <= 519:
		return GroupRespiratory
	case num >= 520 && num <= 579:
		return GroupDigestive
	default:
		return GroupOther
	}
}
