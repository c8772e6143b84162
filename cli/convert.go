package cli

import (
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/core/security"
	"github.com/safedep/safeguard/storage"
	"github.com/safedep/safeguard/tui"
)

func reportToView(r report.Report) tui.ReportView {
	return tui.ReportView{
		Kind:      r.Kind.Key(),
		Title:     r.Title,
		Message:   r.Message,
		Severity:  string(r.Severity),
		Fault:     r.Fault,
		Continued: r.Continued,
	}
}

// outcomeToView converts an outcome, and the run behind it when known, to a
// view model.
func outcomeToView(o report.Outcome, run *security.Run) *tui.OutcomeView {
	view := &tui.OutcomeView{
		RunID:      o.RunID.String(),
		ShortRunID: tui.FormatShortID(o.RunID.String()),
		Operation:  string(o.Operation),
		Kind:       o.Kind,
		Passed:     o.Passed,
		Terminated: o.Terminated,
		Aborted:    o.Aborted,
		Message:    o.Message,
		Reports:    make([]tui.ReportView, 0, len(o.Reports)),
		FinishedAt: o.FinishedAt,
	}

	if o.Primary != nil {
		primary := reportToView(*o.Primary)
		view.Primary = &primary
	}

	for _, r := range o.Reports {
		view.Reports = append(view.Reports, reportToView(r))
	}

	if run != nil {
		view.Faults = len(run.Faults())
		view.Duration = run.FinishedAt.Sub(run.StartedAt)
	}

	return view
}

func runToView(r *storage.RunRecord) *tui.RunView {
	view := &tui.RunView{
		ID:             r.ID.String(),
		ShortID:        tui.FormatShortID(r.ID.String()),
		SessionID:      r.SessionID.String(),
		Operation:      r.Operation,
		CheckKind:      r.CheckKind,
		StartedAt:      r.StartedAt,
		Duration:       r.FinishedAt.Sub(r.StartedAt),
		Passed:         r.Passed,
		Terminated:     r.Terminated,
		Aborted:        r.Aborted,
		Message:        r.Message,
		ViolationCount: r.ViolationCount,
	}

	for _, v := range r.Violations {
		view.Violations = append(view.Violations, &tui.ViolationView{
			Sequence:       v.Sequence,
			CheckKind:      v.CheckKind,
			Title:          v.Title,
			Message:        v.Message,
			Level:          v.Level,
			RawSeverity:    v.RawSeverity,
			ReportSeverity: v.ReportSeverity,
			Fault:          v.Fault,
			Continued:      v.Continued,
		})
	}

	return view
}

// policyToView renders the resolved policy next to the raw configured
// strings so fallbacks are visible.
func policyToView(source string, pol *policy.Config, raw map[check.Kind]string) *tui.PolicyView {
	fallbacks := make(map[check.Kind]bool)
	for _, fb := range pol.Fallbacks() {
		fallbacks[fb.Kind] = true
	}

	view := &tui.PolicyView{
		Source: source,
		Identity: tui.IdentityView{
			ExpectedAppID:           pol.Identity().ExpectedAppID,
			RunningAppID:            config.RunningAppID(),
			ExpectedCertFingerprint: pol.Identity().ExpectedCertFingerprint,
		},
	}

	for _, kind := range check.All() {
		view.Entries = append(view.Entries, tui.PolicyEntryView{
			Kind:     kind.Key(),
			Title:    kind.Title(),
			Level:    pol.Level(kind).String(),
			Default:  policy.DefaultLevel(kind).String(),
			Raw:      raw[kind],
			Fallback: fallbacks[kind],
			Enabled:  pol.Enabled(kind),
			Optional: kind.Optional(),
		})
	}

	return view
}

func selfAuditToView(e *storage.SelfAuditEntry) *tui.SelfAuditView {
	return &tui.SelfAuditView{
		ID:           e.ID.String(),
		Timestamp:    e.Timestamp,
		Action:       e.Action,
		CheckKind:    e.CheckKind,
		Result:       e.Result,
		ErrorMessage: e.ErrorMessage,
		ToolVersion:  e.ToolVersion,
		Details:      e.Details,
	}
}
