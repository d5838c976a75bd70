package builtin

import (
	"math"
	"strconv"

	"clinetl/pkg/records"
)

// CoerceCounters parses the configured counter fields as integers.
// Unparseable or missing values become nil, never zero. Already-coerced
// int64 values pass through untouched.
type CoerceCounters struct {
	Fields []string
}

func (c CoerceCounters) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for _, field := range c.Fields {
			v, ok := r[field]
			if !ok {
				continue
			}
			r[field] = coerceInt(v)
		}
	}
	return in
}

// coerceInt converts v to int64 or nil. Decimal text with an integral value
// (e.g. "7.0") is accepted; anything else unparseable degrades to nil.
func coerceInt(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64:
		return t
	case string:
		if t == "" || records.IsSentinel(t) {
			return nil
		}
		if i, err := strconv.ParseInt(t, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil && f == math.Trunc(f) {
			return int64(f)
		}
		return nil
	}
	return nil
}

// StringifyIDs forces identifier fields to text representation, preventing
// numeric reinterpretation downstream.
type StringifyIDs struct {
	Fields []string
}

func (s StringifyIDs) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for _, field := range s.Fields {
			v, ok := r[field]
			if !ok || v == nil {
				continue
			}
			if _, isStr := v.(string); isStr {
				continue
			}
			r[field] = records.Render(v)
		}
	}
	return in
}
