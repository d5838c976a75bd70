// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "warehouse.dsn"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it names artifacts and labels metrics",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateWarehouse(p.Warehouse)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Encounters) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.encounters",
			Message:  "source.encounters must name the encounter CSV extract",
		})
	}
	if strings.TrimSpace(s.Lookups) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.lookups",
			Message:  "no lookup file configured; code-description enrichment will be skipped",
		})
	}

	if s.Encoding != "" {
		known := map[string]struct{}{
			"utf-8":        {},
			"utf8":         {},
			"latin-1":      {},
			"latin1":       {},
			"iso-8859-1":   {},
			"windows-1252": {},
			"cp1252":       {},
		}
		if _, ok := known[strings.ToLower(s.Encoding)]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.encoding",
				Message:  fmt.Sprintf("unsupported encoding %q; use utf-8, latin-1, iso-8859-1 or windows-1252", s.Encoding),
			})
		}
	}
	if s.Delimiter != "" && utf8.RuneCountInString(s.Delimiter) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.delimiter",
			Message:  fmt.Sprintf("delimiter %q must be a single character", s.Delimiter),
		})
	}

	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	for path, dir := range map[string]string{
		"output.bronze_dir":  o.BronzeDir,
		"output.silver_dir":  o.SilverDir,
		"output.report_dir":  o.ReportDir,
		"output.summary_dir": o.SummaryDir,
	} {
		if strings.TrimSpace(dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "output directory must not be empty",
			})
		}
	}

	return issues
}

func validateWarehouse(w Warehouse) []Issue {
	var issues []Issue

	known := map[string]struct{}{
		"":         {},
		"none":     {},
		"sqlite":   {},
		"postgres": {},
	}
	if _, ok := known[w.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.kind",
			Message:  fmt.Sprintf("unknown warehouse kind %q; use none, sqlite or postgres", w.Kind),
		})
		return issues
	}
	if w.Kind == "" || w.Kind == "none" {
		return issues
	}

	if strings.TrimSpace(w.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.dsn",
			Message:  "warehouse.dsn must not be empty when a backend is selected",
		})
	}
	if strings.TrimSpace(w.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.table",
			Message:  "warehouse.table must not be empty when a backend is selected",
		})
	}
	if w.BatchSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "warehouse.batch_size",
			Message:  "batch_size must not be negative",
		})
	}

	return issues
}

func validateRuntime(r Runtime) []Issue {
	var issues []Issue

	if r.TransformWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.transform_workers",
			Message:  "transform_workers must not be negative",
		})
	}

	return issues
}
