package builtin

import (
	"strings"

	"clinetl/pkg/records"
)

// genderCodes includes the output codes as fixed points for idempotence.
var genderCodes = map[string]string{
	"Male":            "M",
	"Female":          "F",
	"Unknown/Invalid": "U",
	"M":               "M",
	"F":               "F",
	"U":               "U",
}

// EncodeGender maps gender to a one-letter code in "gender_clean" and derives
// the binary "gender_female_flag" (F=1, M=0, U/missing=nil).
type EncodeGender struct{}

func (EncodeGender) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		if _, ok := r["gender"]; !ok {
			continue
		}
		var clean any
		if s, ok := records.String(r["gender"]); ok {
			if code, ok := genderCodes[s]; ok {
				clean = code
			}
		}
		r["gender_clean"] = clean
		switch clean {
		case "F":
			r["gender_female_flag"] = int64(1)
		case "M":
			r["gender_female_flag"] = int64(0)
		default:
			r["gender_female_flag"] = nil
		}
	}
	return in
}

// raceNames normalizes race labels; output labels are fixed points.
var raceNames = map[string]string{
	"Caucasian":        "Caucasian",
	"AfricanAmerican":  "African American",
	"African American": "African American",
	"Asian":            "Asian",
	"Hispanic":         "Hispanic",
	"Other":            "Other",
}

// EncodeRace normalizes race into "race_clean"; sentinels and unmapped
// values become nil.
type EncodeRace struct{}

func (EncodeRace) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		if _, ok := r["race"]; !ok {
			continue
		}
		var clean any
		if s, ok := records.String(r["race"]); ok {
			if name, ok := raceNames[strings.TrimSpace(s)]; ok {
				clean = name
			}
		}
		r["race_clean"] = clean
	}
	return in
}

// EncodeReadmitted derives the two readmission flags from the raw readmitted
// value. "readmitted_raw_clean" carries the trimmed, uppercased source;
// unrecognized values propagate as nil in both flags.
type EncodeReadmitted struct{}

func (EncodeReadmitted) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		if _, ok := r["readmitted"]; !ok {
			continue
		}
		s, present := records.String(r["readmitted"])
		if !present {
			r["readmitted_raw_clean"] = nil
			r["readmitted_any_flag"] = nil
			r["readmitted_30d_flag"] = nil
			continue
		}
		s = strings.ToUpper(strings.TrimSpace(s))
		r["readmitted_raw_clean"] = s
		switch s {
		case "NO":
			r["readmitted_any_flag"] = int64(0)
			r["readmitted_30d_flag"] = int64(0)
		case "<30":
			r["readmitted_any_flag"] = int64(1)
			r["readmitted_30d_flag"] = int64(1)
		case ">30":
			r["readmitted_any_flag"] = int64(1)
			r["readmitted_30d_flag"] = int64(0)
		default:
			r["readmitted_any_flag"] = nil
			r["readmitted_30d_flag"] = nil
		}
	}
	return in
}

// CleanLabs trims the lab-result columns into "<col>_clean"; "None" and the
// shared sentinels become nil, every other value passes through unchanged.
type CleanLabs struct {
	Fields []string
}

func (c CleanLabs) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for _, field := range c.Fields {
			if _, ok := r[field]; !ok {
				continue
			}
			var clean any
			if s, ok := records.String(r[field]); ok {
				s = strings.TrimSpace(s)
				if s != "" && s != "None" && !records.IsSentinel(s) {
					clean = s
				}
			}
			r[field+"_clean"] = clean
		}
	}
	return in
}
