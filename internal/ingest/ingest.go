// Package ingest loads the raw encounter extract into an untyped row set and
// computes the ingestion summary (row/column counts and the rejected-row
// estimate) that accompanies the bronze snapshot.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	parsecsv "clinetl/internal/parser/csv"
	"clinetl/pkg/records"
)

// Summary describes one ingestion run. RowsRejectedEstimated is a lower-bound
// estimate derived from max(RowsInFile-RowsLoaded, 0); line count and parsed
// row count can diverge for reasons other than skipped lines (embedded
// newlines in quoted fields, trailing blank lines), so it is reported as an
// approximation, not an exact audit.
type Summary struct {
	File                  string   `json:"file"`
	RowsLoaded            int      `json:"rows_loaded"`
	ColumnsLoaded         int      `json:"columns_loaded"`
	RowsInFile            int      `json:"rows_in_file"`
	RowsRejectedEstimated int      `json:"rows_rejected_estimated"`
	ColumnNames           []string `json:"column_names"`
}

// Load reads the encounter extract at path using the named text encoding
// ("utf-8" when empty) and returns the raw row set, the ordered column names,
// and the ingestion summary. Malformed lines are skipped, never fatal.
func Load(path, enc string) ([]records.Record, []string, Summary, error) {
	return LoadDelimited(path, enc, ',')
}

// LoadDelimited is Load with an explicit field separator.
func LoadDelimited(path, enc string, comma rune) ([]records.Record, []string, Summary, error) {
	total, err := countDataLines(path, enc)
	if err != nil {
		return nil, nil, Summary{}, fmt.Errorf("ingest: count lines: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, Summary{}, fmt.Errorf("ingest: open: %w", err)
	}
	defer f.Close()

	r, err := decodeReader(f, enc)
	if err != nil {
		return nil, nil, Summary{}, err
	}

	p := parsecsv.NewParser(parsecsv.Options{HasHeader: true, TrimSpace: true, Comma: comma})
	rows, columns, skipped, err := p.Parse(r)
	if err != nil {
		return nil, nil, Summary{}, fmt.Errorf("ingest: parse %s: %w", path, err)
	}

	rejected := total - len(rows)
	if rejected < 0 {
		rejected = 0
	}
	sum := Summary{
		File:                  path,
		RowsLoaded:            len(rows),
		ColumnsLoaded:         len(columns),
		RowsInFile:            total,
		RowsRejectedEstimated: rejected,
		ColumnNames:           columns,
	}

	log.Printf("ingest: %s rows, %d columns, %d skipped, ~%d rejected (estimate)",
		humanize.Comma(int64(len(rows))), len(columns), skipped, rejected)

	return rows, columns, sum, nil
}

// countDataLines counts newline-delimited lines in the file, excluding the
// header row. A final line without a trailing newline still counts.
func countDataLines(path, enc string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r, err := decodeReader(f, enc)
	if err != nil {
		return 0, err
	}

	br := bufio.NewReader(r)
	lines := 0
	for {
		chunk, err := br.ReadString('\n')
		if len(chunk) > 0 {
			lines++
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if lines == 0 {
		return 0, nil
	}
	return lines - 1, nil
}

// decodeReader wraps r with a decoder for the named text encoding. UTF-8
// input passes through untouched.
func decodeReader(r io.Reader, enc string) (io.Reader, error) {
	var dec *encoding.Decoder
	switch strings.ToLower(enc) {
	case "", "utf-8", "utf8":
		return r, nil
	case "latin-1", "latin1", "iso-8859-1":
		dec = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("ingest: unsupported encoding %q", enc)
	}
	return transform.NewReader(r, dec), nil
}
