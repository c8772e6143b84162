// Package report defines the structured records delivered to the caller for
// every triggered check operation.
package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
)

// Severity is the caller-facing severity of a report.
type Severity string

const (
	// SeverityWarning marks a disclosed violation the session survived.
	SeverityWarning Severity = "warning"
	// SeverityError marks a critical violation, a detector fault, or a
	// violation that ended the session.
	SeverityError Severity = "error"
)

// Operation names the caller operation that triggered a run.
type Operation string

const (
	// OperationStart is the fire-and-forget full pass.
	OperationStart Operation = "startChecks"
	// OperationCheckAll is the full pass with an aggregate acknowledgement.
	OperationCheckAll Operation = "checkAll"
	// OperationCheck is an on-demand single check.
	OperationCheck Operation = "check"
)

// Report describes one disclosed violation.
type Report struct {
	Kind     check.Kind `json:"kind"`
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	Severity Severity   `json:"type"`
	Fault    bool       `json:"fault,omitempty"`
	// Continued is true when the session carried on after disclosure.
	Continued bool `json:"continued"`
}

// Outcome is the single result delivered per triggered operation.
type Outcome struct {
	RunID      uuid.UUID `json:"run_id"`
	Operation  Operation `json:"operation"`
	Kind       string    `json:"kind,omitempty"`
	Passed     bool      `json:"passed"`
	Terminated bool      `json:"terminated"`
	Aborted    bool      `json:"aborted,omitempty"`
	Message    string    `json:"message,omitempty"`
	Primary    *Report   `json:"primary,omitempty"`
	Reports    []Report  `json:"reports,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// HasErrors returns true if any report carries error severity.
func (o *Outcome) HasErrors() bool {
	for _, r := range o.Reports {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// SelectPrimary picks the report that best summarises reports: the one that
// ended the session, else the first error, else the first report.
func SelectPrimary(reports []Report) *Report {
	if len(reports) == 0 {
		return nil
	}

	for i := range reports {
		if !reports[i].Continued {
			r := reports[i]
			return &r
		}
	}

	for i := range reports {
		if reports[i].Severity == SeverityError {
			r := reports[i]
			return &r
		}
	}

	r := reports[0]
	return &r
}

// Sink receives outcomes. Implementations must be safe for concurrent use.
type Sink interface {
	// Name returns the name of the sink.
	Name() string
	// Enabled returns true if the sink should receive outcomes.
	Enabled() bool
	// Send delivers outcomes to the sink.
	Send(ctx context.Context, outcomes []Outcome) error
	// Close releases sink resources.
	Close() error
}

// OutcomeSchemaURL identifies the JSON schema of an Outcome as written by
// the report sinks.
const OutcomeSchemaURL = "https://safedep.io/schemas/safeguard/outcome.schema.json"
