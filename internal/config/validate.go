// This file adds a lightweight linter/validator for Pipeline values. It
// performs static checks over a decoded Pipeline and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
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
// Path is a dotted path into the config (e.g. "parser.chunk_rows").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect one.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics and logs will use the default job name",
		})
	}
	if strings.TrimSpace(p.InputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "input_dir",
			Message:  "input_dir must point at the directory containing the downloaded archives",
		})
	}
	if strings.TrimSpace(p.OutputDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_dir",
			Message:  "output_dir must not be empty",
		})
	}
	if len(p.Parser.Comma) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.comma",
			Message:  fmt.Sprintf("delimiter must be a single character, got %q", p.Parser.Comma),
		})
	}
	if p.Parser.ChunkRows < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.chunk_rows",
			Message:  "chunk_rows must be positive (0 selects the default)",
		})
	}
	if p.Runtime.TypeWorkers < 0 || p.Runtime.TypeWorkers > 10 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.type_workers",
			Message:  "type_workers outside 1..10; there are only ten entity types",
		})
	}
	if p.Mirror.DSN != "" && !strings.Contains(p.Mirror.DSN, "://") && !strings.Contains(p.Mirror.DSN, "=") {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "mirror.dsn",
			Message:  "dsn does not look like a pgx connection string",
		})
	}

	return issues
}
