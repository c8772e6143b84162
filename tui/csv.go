package tui

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// CSVPresenter renders output as CSV.
type CSVPresenter struct {
	w      io.Writer
	writer *csv.Writer
}

// NewCSVPresenter creates a new CSV presenter.
func NewCSVPresenter(opts PresenterOptions) *CSVPresenter {
	return &CSVPresenter{
		w:      opts.Writer,
		writer: csv.NewWriter(opts.Writer),
	}
}

func (p *CSVPresenter) flush() error {
	p.writer.Flush()
	return p.writer.Error()
}

// RenderOutcome renders the reports of an outcome as CSV.
func (p *CSVPresenter) RenderOutcome(o *OutcomeView) error {
	p.writer.Write([]string{"run_id", "operation", "passed", "terminated", "kind", "title", "message", "type", "fault", "continued"})

	if len(o.Reports) == 0 {
		p.writer.Write([]string{
			o.RunID, o.Operation, strconv.FormatBool(o.Passed), strconv.FormatBool(o.Terminated),
			o.Kind, "", o.Message, "", "", "",
		})
	}

	for _, r := range o.Reports {
		p.writer.Write([]string{
			o.RunID,
			o.Operation,
			strconv.FormatBool(o.Passed),
			strconv.FormatBool(o.Terminated),
			r.Kind,
			r.Title,
			r.Message,
			r.Severity,
			strconv.FormatBool(r.Fault),
			strconv.FormatBool(r.Continued),
		})
	}

	return p.flush()
}

// RenderRuns renders a list of runs as CSV.
func (p *CSVPresenter) RenderRuns(runs []*RunView) error {
	p.writer.Write([]string{
		"id", "session_id", "operation", "check_kind", "started_at", "duration",
		"passed", "terminated", "aborted", "violations", "message",
	})

	for _, r := range runs {
		p.writer.Write([]string{
			r.ID,
			r.SessionID,
			r.Operation,
			r.CheckKind,
			FormatTime(r.StartedAt),
			FormatDuration(r.Duration),
			strconv.FormatBool(r.Passed),
			strconv.FormatBool(r.Terminated),
			strconv.FormatBool(r.Aborted),
			strconv.Itoa(r.ViolationCount),
			r.Message,
		})
	}

	return p.flush()
}

// RenderRun renders the violations of a run as CSV.
func (p *CSVPresenter) RenderRun(run *RunView) error {
	p.writer.Write([]string{
		"run_id", "sequence", "check_kind", "title", "message", "level",
		"raw_severity", "report_severity", "fault", "continued",
	})

	for _, v := range run.Violations {
		p.writer.Write([]string{
			run.ID,
			strconv.Itoa(v.Sequence),
			v.CheckKind,
			v.Title,
			v.Message,
			v.Level,
			v.RawSeverity,
			v.ReportSeverity,
			strconv.FormatBool(v.Fault),
			strconv.FormatBool(v.Continued),
		})
	}

	return p.flush()
}

// RenderPolicy renders the effective policy as CSV.
func (p *CSVPresenter) RenderPolicy(policy *PolicyView) error {
	p.writer.Write([]string{"kind", "level", "default", "raw", "fallback", "enabled"})

	for _, e := range policy.Entries {
		p.writer.Write([]string{
			e.Kind,
			e.Level,
			e.Default,
			e.Raw,
			strconv.FormatBool(e.Fallback),
			strconv.FormatBool(e.Enabled),
		})
	}

	return p.flush()
}

// RenderDiff renders a diff view as CSV (content as single field).
func (p *CSVPresenter) RenderDiff(diff *DiffView) error {
	p.writer.Write([]string{"from", "to", "identical", "content"})
	p.writer.Write([]string{diff.From, diff.To, strconv.FormatBool(diff.Identical), diff.Content})
	return p.flush()
}

// RenderStatus renders the tool status as CSV.
func (p *CSVPresenter) RenderStatus(status *StatusView) error {
	p.writer.Write([]string{"type", "name", "value"})
	p.writer.Write([]string{"version", "safeguard", status.Version})
	p.writer.Write([]string{"database", "location", status.Database.Location})
	p.writer.Write([]string{"database", "runs", strconv.Itoa(status.Database.RunCount)})
	p.writer.Write([]string{"database", "violations", strconv.Itoa(status.Database.ViolationCount)})
	p.writer.Write([]string{"config", "location", status.Config.Location})
	p.writer.Write([]string{"config", "retention_days", strconv.Itoa(status.Config.RetentionDays)})

	for _, s := range status.Sinks {
		p.writer.Write([]string{"sink", s.Name, strconv.FormatBool(s.Enabled)})
	}

	return p.flush()
}

// RenderDoctor renders the doctor check results as CSV.
func (p *CSVPresenter) RenderDoctor(result *DoctorView) error {
	p.writer.Write([]string{"check", "status", "message", "suggestion"})

	for _, check := range result.Checks {
		p.writer.Write([]string{
			check.Name,
			string(check.Status),
			check.Message,
			check.Suggestion,
		})
	}

	return p.flush()
}

// RenderConfig renders the configuration as CSV.
func (p *CSVPresenter) RenderConfig(config *ConfigView) error {
	p.writer.Write([]string{"key", "value"})
	p.renderConfigMap(config.Values, "")
	return p.flush()
}

func (p *CSVPresenter) renderConfigMap(m map[string]interface{}, prefix string) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch v := m[key].(type) {
		case map[string]interface{}:
			p.renderConfigMap(v, fullKey)
		default:
			p.writer.Write([]string{fullKey, fmt.Sprintf("%v", v)})
		}
	}
}

// RenderSelfAudits renders self-audit entries as CSV.
func (p *CSVPresenter) RenderSelfAudits(entries []*SelfAuditView) error {
	p.writer.Write([]string{"id", "timestamp", "action", "check", "result", "error", "version"})

	for _, e := range entries {
		p.writer.Write([]string{
			e.ID,
			FormatTime(e.Timestamp),
			e.Action,
			e.CheckKind,
			e.Result,
			e.ErrorMessage,
			e.ToolVersion,
		})
	}

	return p.flush()
}

// RenderRetention renders retention information as CSV.
func (p *CSVPresenter) RenderRetention(r *RetentionView) error {
	p.writer.Write([]string{"enabled", "retention_days", "cutoff", "runs_affected", "dry_run", "deleted"})
	p.writer.Write([]string{
		strconv.FormatBool(r.Enabled),
		strconv.Itoa(r.RetentionDays),
		FormatTime(r.Cutoff),
		strconv.Itoa(r.RunsAffected),
		strconv.FormatBool(r.DryRun),
		strconv.FormatBool(r.Deleted),
	})
	return p.flush()
}

// RenderError renders an error message as CSV.
func (p *CSVPresenter) RenderError(err error) error {
	p.writer.Write([]string{"error"})
	p.writer.Write([]string{err.Error()})
	return p.flush()
}

// RenderMessage renders a simple message as CSV.
func (p *CSVPresenter) RenderMessage(message string) error {
	p.writer.Write([]string{"message"})
	p.writer.Write([]string{message})
	return p.flush()
}

// Ensure CSVPresenter implements Presenter
var _ Presenter = (*CSVPresenter)(nil)
