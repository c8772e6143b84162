package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// TablePresenter renders output in table format.
type TablePresenter struct {
	w         io.Writer
	color     *Colorizer
	verbose   bool
	termWidth int
}

// NewTablePresenter creates a new table presenter.
func NewTablePresenter(opts PresenterOptions) *TablePresenter {
	termWidth := opts.TerminalWidth
	if termWidth == 0 {
		termWidth = GetTerminalWidth()
	}
	return &TablePresenter{
		w:         opts.Writer,
		color:     NewColorizer(opts.UseColors),
		verbose:   opts.Verbose,
		termWidth: termWidth,
	}
}

// RenderOutcome renders the outcome of a check operation.
func (p *TablePresenter) RenderOutcome(o *OutcomeView) error {
	tw := &tableWriter{w: p.w}

	switch {
	case o.Passed:
		tw.printf("%s %s\n", p.color.StatusOK(), p.color.Success(o.Message))
	case o.Aborted:
		tw.printf("%s %s\n", p.color.StatusSkip(), "Checks abandoned: session closed before completion")
	case o.Terminated:
		tw.printf("%s %s\n", p.color.StatusFail(), p.color.Error("Session terminated"))
	default:
		tw.printf("%s %s\n", p.color.Warning("[!!]"), p.color.Warning("Session continued with violations"))
	}

	if len(o.Reports) > 0 {
		tw.println()
		for i, r := range o.Reports {
			tw.printf("%s%-9s %s\n", TreePrefix(i == len(o.Reports)-1), p.color.Severity(r.Severity), p.color.Header(r.Title))
			tw.printf("   %s\n", r.Message)

			var notes []string
			if r.Fault {
				notes = append(notes, "detector fault")
			}
			if r.Continued {
				notes = append(notes, "continued")
			} else {
				notes = append(notes, "terminated")
			}
			tw.printf("   %s\n", p.color.Dim(strings.Join(notes, ", ")))
		}
	}

	if p.verbose {
		tw.println()
		tw.printf("%s\n", p.color.Dim(fmt.Sprintf("run %s  %s  %s", o.ShortRunID, o.Operation, FormatDuration(o.Duration))))
		if o.Faults > 0 {
			tw.printf("%s\n", p.color.Dim(fmt.Sprintf("%d detector fault(s)", o.Faults)))
		}
	}

	return tw.Err()
}

// runsColumnWidths holds the calculated widths for the runs table.
type runsColumnWidths struct {
	time      int
	id        int
	operation int
	status    int
	message   int
	total     int
}

// calculateRunsColumnWidths computes column widths based on terminal width.
// The message column absorbs the remaining space.
func (p *TablePresenter) calculateRunsColumnWidths() runsColumnWidths {
	const (
		timeWidth       = 19
		idWidth         = 8
		operationWidth  = 12
		statusWidth     = 10
		minMessageWidth = 15
		maxMessageWidth = 80
		spacing         = 4
	)

	fixedWidth := timeWidth + idWidth + operationWidth + statusWidth + spacing
	messageWidth := p.termWidth - fixedWidth
	if messageWidth < minMessageWidth {
		messageWidth = minMessageWidth
	}
	if messageWidth > maxMessageWidth {
		messageWidth = maxMessageWidth
	}

	return runsColumnWidths{
		time:      timeWidth,
		id:        idWidth,
		operation: operationWidth,
		status:    statusWidth,
		message:   messageWidth,
		total:     fixedWidth + messageWidth,
	}
}

// RenderRuns renders a list of recorded runs.
func (p *TablePresenter) RenderRuns(runs []*RunView) error {
	tw := &tableWriter{w: p.w}

	if len(runs) == 0 {
		tw.println("No check runs found.")
		return tw.Err()
	}

	cols := p.calculateRunsColumnWidths()
	rowFmt := fmt.Sprintf("%%-%ds %%-%ds %%-%ds %%-%ds %%s\n", cols.time, cols.id, cols.operation, cols.status)

	tw.printf("Check runs (%d)\n", len(runs))
	tw.println(HorizontalLine(cols.total))
	tw.printf(rowFmt, "Started", "Run", "Operation", "Result", "Message")
	tw.println(HorizontalLine(cols.total))

	for _, r := range runs {
		op := r.Operation
		if r.CheckKind != "" {
			op = r.CheckKind
		}

		tw.printf(rowFmt,
			FormatTime(r.StartedAt),
			r.ShortID,
			TruncateString(op, cols.operation),
			p.runStatus(r, cols.status),
			TruncateString(r.Message, cols.message))
	}

	tw.println(HorizontalLine(cols.total))
	tw.printf("%d results\n", len(runs))

	return tw.Err()
}

// runStatus pads before colouring so escape codes do not break alignment.
func (p *TablePresenter) runStatus(r *RunView, width int) string {
	var text string
	var apply func(string) string
	switch {
	case r.Terminated:
		text, apply = "terminated", p.color.Error
	case r.Aborted:
		text, apply = "aborted", p.color.Dim
	case r.Passed:
		text, apply = "passed", p.color.Success
	default:
		text, apply = fmt.Sprintf("%d warn", r.ViolationCount), p.color.Warning
	}

	pad := width - len(text)
	if pad < 0 {
		pad = 0
	}
	return apply(text) + strings.Repeat(" ", pad)
}

// RenderRun renders a single run with its violations.
func (p *TablePresenter) RenderRun(r *RunView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n", p.color.Header("Check Run"))
	tw.println(HorizontalLine(p.termWidth))
	tw.println()

	tw.printf("%-14s %s\n", "Run ID", r.ID)
	tw.printf("%-14s %s\n", "Session", r.SessionID)
	tw.printf("%-14s %s\n", "Operation", r.Operation)
	if r.CheckKind != "" {
		tw.printf("%-14s %s\n", "Check", p.color.Check(r.CheckKind))
	}
	tw.printf("%-14s %s\n", "Started", FormatTime(r.StartedAt))
	tw.printf("%-14s %s\n", "Duration", FormatDuration(r.Duration))
	tw.printf("%-14s %s\n", "Result", strings.TrimSpace(p.runStatus(r, 0)))
	if r.Message != "" {
		tw.printf("%-14s %s\n", "Message", r.Message)
	}
	tw.println()

	if len(r.Violations) > 0 {
		tw.printf("%s\n", p.color.Header("Violations"))
		tw.println(HorizontalLine(p.termWidth))

		for i, v := range r.Violations {
			tw.printf("#%-2d %s  %s  %s\n", v.Sequence+1, p.color.Check(v.CheckKind), p.color.Level(v.Level), v.Title)
			tw.printf("    %s\n", v.Message)

			detail := fmt.Sprintf("raw %s", v.RawSeverity)
			if v.ReportSeverity != "" {
				detail += fmt.Sprintf(", reported %s", v.ReportSeverity)
			} else {
				detail += ", not reported"
			}
			if v.Fault {
				detail += ", detector fault"
			}
			if v.Continued {
				detail += ", continued"
			}
			tw.printf("    %s\n", p.color.Dim(detail))

			if i < len(r.Violations)-1 {
				tw.println()
			}
		}
	}

	return tw.Err()
}

// RenderPolicy renders the effective policy.
func (p *TablePresenter) RenderPolicy(pv *PolicyView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n", p.color.Header("Effective Policy"))
	if pv.Source != "" {
		tw.printf("Source: %s\n", p.color.Path(pv.Source))
	}
	tw.println(HorizontalLine(p.termWidth))

	tw.printf("  %-22s %-9s %-9s %s\n", "Check", "Level", "Default", "Notes")
	for _, e := range pv.Entries {
		var notes []string
		if !e.Enabled {
			notes = append(notes, "disabled")
		}
		if e.Fallback {
			notes = append(notes, fmt.Sprintf("unrecognised value %q", e.Raw))
		}

		tw.printf("  %s %s %-9s %s\n",
			p.color.Check(fmt.Sprintf("%-22s", e.Kind)),
			p.color.Level(fmt.Sprintf("%-9s", e.Level)),
			e.Default,
			p.color.Dim(strings.Join(notes, ", ")))
	}
	tw.println()

	tw.printf("%s\n", p.color.Header("Identity"))
	tw.printf("  %-22s %s\n", "Expected app ID", pv.Identity.ExpectedAppID)
	tw.printf("  %-22s %s\n", "Running app ID", pv.Identity.RunningAppID)
	fingerprint := pv.Identity.ExpectedCertFingerprint
	if fingerprint == "" {
		fingerprint = p.color.Dim("(not pinned)")
	}
	tw.printf("  %-22s %s\n", "Cert fingerprint", fingerprint)

	return tw.Err()
}

// RenderDiff renders a diff view.
func (p *TablePresenter) RenderDiff(diff *DiffView) error {
	tw := &tableWriter{w: p.w}

	if diff.Identical {
		tw.printf("No differences between %s and %s.\n", diff.From, diff.To)
		return tw.Err()
	}

	for _, line := range strings.Split(strings.TrimRight(diff.Content, "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			tw.println(p.color.DiffHeader(line))
		case strings.HasPrefix(line, "+"):
			tw.println(p.color.DiffAdd(line))
		case strings.HasPrefix(line, "-"):
			tw.println(p.color.DiffRemove(line))
		case strings.HasPrefix(line, "@@"):
			tw.println(p.color.Cyan(line))
		default:
			tw.println(line)
		}
	}

	return tw.Err()
}

// RenderStatus renders the tool status.
func (p *TablePresenter) RenderStatus(status *StatusView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n\n", p.color.Header("safeguard "+status.Version))

	tw.printf("%s\n", p.color.Header("Database"))
	tw.printf("  %-16s %s\n", "Location", p.color.Path(status.Database.Location))
	tw.printf("  %-16s %s\n", "Size", status.Database.SizeHuman)
	tw.printf("  %-16s %s\n", "Runs", p.color.Number(FormatNumber(status.Database.RunCount)))
	tw.printf("  %-16s %s\n", "Violations", p.color.Number(FormatNumber(status.Database.ViolationCount)))
	tw.printf("  %-16s %s\n", "Self-audits", p.color.Number(FormatNumber(status.Database.SelfAuditCount)))
	if !status.Database.OldestRun.IsZero() {
		tw.printf("  %-16s %s\n", "Oldest", FormatTime(status.Database.OldestRun))
		tw.printf("  %-16s %s\n", "Latest", FormatTime(status.Database.NewestRun))
	}
	tw.println()

	tw.printf("%s\n", p.color.Header("Config"))
	tw.printf("  %-16s %s\n", "Location", p.color.Path(status.Config.Location))
	tw.printf("  %-16s %d\n", "Workers", status.Config.Workers)
	tw.printf("  %-16s %s\n", "Disclosure", status.Config.DisclosureMode)
	if status.Config.RetentionDays > 0 {
		tw.printf("  %-16s %d days (%d runs to clean)\n", "Retention", status.Config.RetentionDays, status.Config.RunsToClean)
	} else {
		tw.printf("  %-16s %s\n", "Retention", "unlimited")
	}
	tw.println()

	tw.printf("%s\n", p.color.Header("Sinks"))
	if len(status.Sinks) == 0 {
		tw.printf("  %s\n", p.color.Dim("none"))
	}
	for _, s := range status.Sinks {
		state := p.color.Success("enabled")
		if !s.Enabled {
			state = p.color.Dim("disabled")
		}
		tw.printf("  %-16s %-8s %s\n", s.Name, s.Type, state)
	}

	return tw.Err()
}

// RenderDoctor renders the doctor check results.
func (p *TablePresenter) RenderDoctor(result *DoctorView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n", p.color.Header("Doctor"))
	tw.println(HorizontalLine(p.termWidth))
	tw.println()

	for _, check := range result.Checks {
		var statusStr string
		switch check.Status {
		case CheckOK:
			statusStr = p.color.StatusOK()
		case CheckWarn:
			statusStr = p.color.Warning("[!!]")
		case CheckFail:
			statusStr = p.color.StatusFail()
		}

		tw.printf("  %s  %s\n", statusStr, check.Name)
		if check.Message != "" {
			tw.printf("        %s\n", check.Message)
		}
		if check.Suggestion != "" && check.Status != CheckOK {
			tw.printf("        %s\n", p.color.Dim(check.Suggestion))
		}
	}
	tw.println()

	if result.AllOK {
		tw.println(p.color.Success("All checks passed."))
	} else {
		tw.println(p.color.Warning("Some checks failed. See suggestions above."))
	}

	return tw.Err()
}

// RenderConfig renders the configuration.
func (p *TablePresenter) RenderConfig(config *ConfigView) error {
	tw := &tableWriter{w: p.w}

	tw.printf("%s\n", p.color.Header("Configuration"))
	tw.printf("Location: %s\n", p.color.Path(config.Location))
	tw.println(HorizontalLine(p.termWidth))
	tw.println()

	p.renderConfigMap(tw, config.Values, "")

	return tw.Err()
}

func (p *TablePresenter) renderConfigMap(tw *tableWriter, m map[string]interface{}, prefix string) {
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
			p.renderConfigMap(tw, v, fullKey)
		default:
			tw.printf("  %-36s %v\n", fullKey, v)
		}
	}
}

// RenderSelfAudits renders self-audit entries.
func (p *TablePresenter) RenderSelfAudits(entries []*SelfAuditView) error {
	tw := &tableWriter{w: p.w}

	if len(entries) == 0 {
		tw.println("No self-audit entries found.")
		return tw.Err()
	}

	tw.printf("Self-Audit Log (%d entries)\n", len(entries))
	tw.println(HorizontalLine(p.termWidth))

	for _, e := range entries {
		resultStr := p.color.Success(e.Result)
		if e.Result == "error" {
			resultStr = p.color.Error(e.Result)
		} else if e.Result == "skipped" {
			resultStr = p.color.Dim(e.Result)
		}

		tw.printf("%s  %-18s %s\n", FormatTime(e.Timestamp), e.Action, resultStr)

		if e.CheckKind != "" {
			tw.printf("    Check: %s\n", p.color.Check(e.CheckKind))
		}
		if e.ErrorMessage != "" {
			tw.printf("    Error: %s\n", p.color.Error(e.ErrorMessage))
		}
		if p.verbose {
			for _, k := range sortedDetailKeys(e.Details) {
				tw.printf("    %s: %v\n", k, e.Details[k])
			}
		}
	}

	return tw.Err()
}

// RenderRetention renders the retention policy status or cleanup result.
func (p *TablePresenter) RenderRetention(r *RetentionView) error {
	tw := &tableWriter{w: p.w}

	if !r.Enabled {
		tw.println("Retention policy disabled (retention_days=0)")
		return tw.Err()
	}

	switch {
	case r.Deleted:
		tw.printf("Deleted %d runs older than %d days\n", r.RunsAffected, r.RetentionDays)
	case r.DryRun:
		tw.printf("Would delete %d runs older than %s (%d days)\n", r.RunsAffected, FormatTime(r.Cutoff), r.RetentionDays)
	default:
		tw.println("Retention Policy:")
		tw.printf("  %-16s %s\n", "Status:", "Enabled")
		tw.printf("  %-16s %d\n", "Retention Days:", r.RetentionDays)
		tw.printf("  %-16s %s\n", "Cutoff Date:", FormatTime(r.Cutoff))
		tw.printf("  %-16s %d\n", "Runs to Clean:", r.RunsAffected)
	}

	return tw.Err()
}

// RenderError renders an error message.
func (p *TablePresenter) RenderError(err error) error {
	tw := &tableWriter{w: p.w}
	tw.printf("%s %s\n", p.color.Error("Error:"), err.Error())
	return tw.Err()
}

// RenderMessage renders a simple message.
func (p *TablePresenter) RenderMessage(message string) error {
	tw := &tableWriter{w: p.w}
	tw.println(message)
	return tw.Err()
}

func sortedDetailKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure TablePresenter implements Presenter
var _ Presenter = (*TablePresenter)(nil)
