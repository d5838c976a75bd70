package config

import (
	"strings"
	"testing"
)

func validPipeline() Pipeline {
	p := Pipeline{
		Job: "encounters",
		Source: Source{
			Encounters: "data/diabetic_data.csv",
			Lookups:    "data/ids_mapping.csv",
		},
		Output: Output{
			BronzeDir:  "out/bronze",
			SilverDir:  "out/silver",
			ReportDir:  "out/reports",
			SummaryDir: "out/summaries",
		},
	}
	p.ApplyDefaults()
	return p
}

func hasIssue(issues []Issue, sev IssueSeverity, path string) bool {
	for _, i := range issues {
		if i.Severity == sev && i.Path == path {
			return true
		}
	}
	return false
}

func TestValidatePipelineOK(t *testing.T) {
	issues := ValidatePipeline(validPipeline())
	for _, i := range issues {
		if i.Severity == SeverityError {
			t.Errorf("unexpected error issue: %v", i)
		}
	}
}

func TestValidatePipeline(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*Pipeline)
		severity IssueSeverity
		path     string
	}{
		{
			name:     "empty_job",
			mutate:   func(p *Pipeline) { p.Job = " " },
			severity: SeverityError,
			path:     "job",
		},
		{
			name:     "missing_encounters",
			mutate:   func(p *Pipeline) { p.Source.Encounters = "" },
			severity: SeverityError,
			path:     "source.encounters",
		},
		{
			name:     "missing_lookups_warns",
			mutate:   func(p *Pipeline) { p.Source.Lookups = "" },
			severity: SeverityWarning,
			path:     "source.lookups",
		},
		{
			name:     "bad_encoding",
			mutate:   func(p *Pipeline) { p.Source.Encoding = "ebcdic" },
			severity: SeverityError,
			path:     "source.encoding",
		},
		{
			name:     "multichar_delimiter",
			mutate:   func(p *Pipeline) { p.Source.Delimiter = ";;" },
			severity: SeverityError,
			path:     "source.delimiter",
		},
		{
			name:     "empty_output_dir",
			mutate:   func(p *Pipeline) { p.Output.SilverDir = "" },
			severity: SeverityError,
			path:     "output.silver_dir",
		},
		{
			name:     "unknown_warehouse_kind",
			mutate:   func(p *Pipeline) { p.Warehouse.Kind = "oracle" },
			severity: SeverityError,
			path:     "warehouse.kind",
		},
		{
			name: "warehouse_without_dsn",
			mutate: func(p *Pipeline) {
				p.Warehouse.Kind = "sqlite"
				p.Warehouse.Table = "t"
			},
			severity: SeverityError,
			path:     "warehouse.dsn",
		},
		{
			name:     "negative_workers",
			mutate:   func(p *Pipeline) { p.Runtime.TransformWorkers = -1 },
			severity: SeverityError,
			path:     "runtime.transform_workers",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validPipeline()
			tc.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(issues, tc.severity, tc.path) {
				t.Errorf("issues = %v; want %s at %s", issues, tc.severity, tc.path)
			}
		})
	}
}

func TestIssueError(t *testing.T) {
	i := Issue{Severity: SeverityError, Path: "job", Message: "must not be empty"}
	if got := i.Error(); !strings.Contains(got, "job") || !strings.Contains(got, "error") {
		t.Errorf("Error() = %q", got)
	}
}
