// Package tui provides the presentation layer for terminal output.
package tui

import (
	"io"
	"os"
)

// Format represents the output format.
type Format string

const (
	// FormatTable is the default table format.
	FormatTable Format = "table"
	// FormatJSON is JSON format.
	FormatJSON Format = "json"
	// FormatJSONL is newline-delimited JSON format.
	FormatJSONL Format = "jsonl"
	// FormatCSV is CSV format.
	FormatCSV Format = "csv"
)

// Presenter defines the interface for output rendering.
type Presenter interface {
	// RenderOutcome renders the outcome of a check operation.
	RenderOutcome(outcome *OutcomeView) error

	// RenderRuns renders a list of recorded runs.
	RenderRuns(runs []*RunView) error

	// RenderRun renders a single run with its violations.
	RenderRun(run *RunView) error

	// RenderPolicy renders the effective policy.
	RenderPolicy(policy *PolicyView) error

	// RenderDiff renders a diff view.
	RenderDiff(diff *DiffView) error

	// RenderStatus renders the tool status.
	RenderStatus(status *StatusView) error

	// RenderDoctor renders the doctor check results.
	RenderDoctor(result *DoctorView) error

	// RenderConfig renders the configuration.
	RenderConfig(config *ConfigView) error

	// RenderSelfAudits renders self-audit entries.
	RenderSelfAudits(entries []*SelfAuditView) error

	// RenderRetention renders the retention policy status or cleanup result.
	RenderRetention(retention *RetentionView) error

	// RenderError renders an error message.
	RenderError(err error) error

	// RenderMessage renders a simple message.
	RenderMessage(message string) error
}

// PresenterOptions configures presenter behavior.
type PresenterOptions struct {
	// Writer is the output destination.
	Writer io.Writer
	// UseColors indicates if colors should be used.
	UseColors bool
	// Verbose increases output verbosity.
	Verbose bool
	// TerminalWidth is the width of the terminal for table rendering.
	// If 0, the width will be auto-detected.
	TerminalWidth int
}

// NewPresenter creates a new presenter for the given format.
func NewPresenter(format Format, opts PresenterOptions) Presenter {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	switch format {
	case FormatJSON:
		return NewJSONPresenter(opts)
	case FormatJSONL:
		return NewJSONLPresenter(opts)
	case FormatCSV:
		return NewCSVPresenter(opts)
	default:
		return NewTablePresenter(opts)
	}
}

// ParseFormat maps a flag value to a Format, defaulting to table.
func ParseFormat(s string) Format {
	switch Format(s) {
	case FormatJSON, FormatJSONL, FormatCSV:
		return Format(s)
	default:
		return FormatTable
	}
}
