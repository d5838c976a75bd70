// Package records defines the row representation shared by every pipeline
// stage. A Record is an untyped map of column name to value; missing values
// are represented as nil so that downstream rules can distinguish "absent"
// from legitimate empty-ish strings.
//
// The package also centralizes the missing-value sentinels used by the raw
// clinical extracts. Source files encode "unknown" with a handful of ad hoc
// literals ("?", "NA", ...); every field rule in the pipeline goes through
// Normalize/Missing instead of re-declaring its own sentinel set.
package records

import "strconv"

// Record is one row keyed by canonical column name. Values are nil (missing),
// string (raw or cleaned text), or int64/float64 after coercion.
type Record map[string]any

// sentinels are the literal strings that mean "missing" in the raw extracts.
var sentinels = map[string]struct{}{
	"?":    {},
	"NA":   {},
	"NaN":  {},
	"null": {},
}

// IsSentinel reports whether s is one of the raw missing-value literals.
func IsSentinel(s string) bool {
	_, ok := sentinels[s]
	return ok
}

// Normalize converts a raw field value to its in-pipeline representation:
// empty strings and sentinel literals become nil, everything else is kept
// as-is.
func Normalize(s string) any {
	if s == "" || IsSentinel(s) {
		return nil
	}
	return s
}

// Missing reports whether v represents an absent value. A nil value is
// missing; a string value is missing when empty or a sentinel literal.
// Typed (already coerced) values are never missing.
func Missing(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == "" || IsSentinel(s)
	}
	return false
}

// String returns the string form of v and whether a present string value
// exists. Missing values and non-string values report false.
func String(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" || IsSentinel(s) {
		return "", false
	}
	return s, true
}

// Int returns the integer form of v and whether a present integer exists.
// It accepts int64 values directly and parses integral strings.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if n == "" || IsSentinel(n) {
			return 0, false
		}
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// Float returns the numeric form of v and whether a present number exists.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case string:
		if n == "" || IsSentinel(n) {
			return 0, false
		}
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Render returns the textual form of v for export artifacts. Missing values
// render as the empty string.
func Render(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	}
	return ""
}

// Clone returns a shallow copy of r. Transform stages that must not mutate
// their input copy rows first.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
