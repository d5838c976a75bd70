// Package csv implements a streaming CSV parser for the encounter extracts.
// It reads every field as raw text (no type inference), maps the known
// missing-value sentinels to nil, and soft-skips malformed rows instead of
// failing the run. Skipped rows are counted so ingestion can report them.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"clinetl/pkg/records"
)

// Options configures the parser. All fields are optional; zero values apply
// sensible defaults.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical keys. Only applies when
	// HasHeader is true.
	HeaderMap map[string]string
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs but is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\ufeff"

// skipLogLimit caps per-row skip logging so a badly damaged file cannot flood
// the log.
const skipLogLimit = 400

// Parse consumes CSV records from r and returns the parsed rows, the ordered
// column names, and the number of rows skipped due to parse errors or
// field-count mismatches. Field values equal to one of the missing-value
// sentinels (or empty) are stored as nil.
func (p *Parser) Parse(r io.Reader) ([]records.Record, []string, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below against the header so that malformed rows are
	// counted rather than aborting the read.
	cr.FieldsPerRecord = -1

	var headers []string
	var out []records.Record
	var skipped int

	if p.opt.HasHeader {
		h, err := cr.Read()
		if err != nil {
			return nil, nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	}

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: %v", line, err)
			}
			skipped++
			continue
		}

		if len(headers) > 0 && len(row) != len(headers) {
			if skipped < skipLogLimit {
				log.Printf("csv: skipping row %d: incorrect number of fields (expected %d, got %d)", line, len(headers), len(row))
			}
			skipped++
			continue
		}
		if len(headers) == 0 {
			headers = make([]string, len(row))
			for i := range headers {
				headers[i] = fmt.Sprintf("col_%d", i)
			}
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keyFor(i, headers)] = records.Normalize(val)
		}
		out = append(out, rec)
	}

	return out, headers, skipped, nil
}

// keyFor returns the column key for index idx, using headers when available,
// otherwise synthesizing a "col_N" name.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

// normalizeHeaders produces canonical header keys using HeaderMap (when
// provided) and simple normalization (trim, lowercase, spaces to
// underscores). It also strips a UTF-8 BOM from the first cell if present.
func normalizeHeaders(h []string, opt Options) []string {
	res := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if opt.HeaderMap != nil {
			if m, ok := opt.HeaderMap[c]; ok {
				res[i] = m
				continue
			}
		}
		res[i] = strings.ReplaceAll(strings.ToLower(c), " ", "_")
	}
	return res
}
