// Package transform turns the raw encounter row set into the cleaned
// ("silver") row set. Field rules live in the builtin subpackage and are
// composed into an ordered Chain by the Engine; every rule degrades
// out-of-domain values to missing rather than failing, and every rule is
// idempotent on already-clean values.
package transform

import "clinetl/pkg/records"

// Transformer applies one field-level rule to a batch of records, mutating
// them in place.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
