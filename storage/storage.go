// Package storage provides the check history store.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/core/security"
)

// RunStore defines the interface for storing and querying check runs.
type RunStore interface {
	// SaveRun persists a run and its violations atomically.
	SaveRun(ctx context.Context, run *RunRecord) error

	// GetRun retrieves a run by ID, including its violations.
	GetRun(ctx context.Context, id uuid.UUID) (*RunRecord, error)

	// GetRunByPrefix retrieves a run by ID prefix, including its violations.
	GetRunByPrefix(ctx context.Context, prefix string) (*RunRecord, error)

	// QueryRuns retrieves runs matching the given filter, newest first.
	// Violations are not loaded.
	QueryRuns(ctx context.Context, filter *RunFilter) ([]*RunRecord, error)

	// CountRuns returns the count of runs matching the given filter.
	CountRuns(ctx context.Context, filter *RunFilter) (int, error)

	// DeleteRunsBefore deletes runs started before the given time.
	DeleteRunsBefore(ctx context.Context, before time.Time) (int, error)

	// CountRunsBefore returns the count of runs started before the given time.
	CountRunsBefore(ctx context.Context, before time.Time) (int, error)
}

// SelfAuditStore defines the interface for storing self-audit entries.
type SelfAuditStore interface {
	// SaveSelfAudit persists a self-audit entry.
	SaveSelfAudit(ctx context.Context, entry *SelfAuditEntry) error

	// QuerySelfAudits retrieves self-audit entries matching the filter.
	QuerySelfAudits(ctx context.Context, filter *SelfAuditFilter) ([]*SelfAuditEntry, error)
}

// RunRecord is a persisted check run.
type RunRecord struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Operation  string
	CheckKind  string
	StartedAt  time.Time
	FinishedAt time.Time
	Passed     bool
	Terminated bool
	Aborted    bool
	Message    string

	// ViolationCount is populated by queries even when Violations is not.
	ViolationCount int
	Violations     []*ViolationRecord
}

// ViolationRecord is a persisted violation, in detection order within a run.
type ViolationRecord struct {
	ID             uuid.UUID
	RunID          uuid.UUID
	Sequence       int
	CheckKind      string
	Title          string
	Message        string
	Level          string
	RawSeverity    string
	ReportSeverity string
	Fault          bool
	Continued      bool
}

// RunFilter provides filtering for run queries.
type RunFilter struct {
	Since      *time.Time
	Until      *time.Time
	CheckKind  string
	Operation  string
	FailedOnly bool
	Limit      int
	Offset     int
}

// SelfAuditEntry represents a self-audit log entry for storage.
type SelfAuditEntry struct {
	ID           uuid.UUID
	Timestamp    time.Time
	Action       string
	CheckKind    string
	Details      map[string]interface{}
	Result       string
	ErrorMessage string
	ToolVersion  string
}

// SelfAuditFilter provides filtering for self-audit queries.
type SelfAuditFilter struct {
	Since  *time.Time
	Action string
	Limit  int
}

// Store combines all storage interfaces.
type Store interface {
	RunStore
	SelfAuditStore

	// RecordRun converts and persists a finished orchestration run.
	RecordRun(ctx context.Context, sessionID uuid.UUID, run *security.Run) error

	// GetDatabaseInfo returns information about the database.
	GetDatabaseInfo(ctx context.Context) (*DatabaseInfo, error)

	// Init initializes the database schema.
	Init(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// DatabaseInfo contains information about the database.
type DatabaseInfo struct {
	Path           string
	SizeBytes      int64
	RunCount       int
	ViolationCount int
	SelfAuditCount int
	OldestRun      time.Time
	NewestRun      time.Time
}

// NewRunRecord converts an orchestration run into its persisted form.
func NewRunRecord(sessionID uuid.UUID, run *security.Run) *RunRecord {
	outcome := run.Outcome()

	rec := &RunRecord{
		ID:         run.ID,
		SessionID:  sessionID,
		Operation:  string(run.Operation),
		CheckKind:  outcome.Kind,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Passed:     outcome.Passed,
		Terminated: run.Terminated,
		Aborted:    run.Aborted,
		Message:    outcome.Message,
	}

	if rec.Message == "" && outcome.Primary != nil {
		rec.Message = outcome.Primary.Title + ": " + outcome.Primary.Message
	}

	for i, v := range run.Violations {
		vr := &ViolationRecord{
			ID:          uuid.New(),
			RunID:       run.ID,
			Sequence:    i,
			CheckKind:   v.Kind.Key(),
			Title:       v.Title,
			Message:     v.Result.Message(),
			Level:       v.Level.String(),
			RawSeverity: v.Result.Severity().String(),
			Fault:       v.Fault,
		}

		// A violation whose disclosure was released has no report.
		if i < len(run.Reports) {
			vr.ReportSeverity = string(run.Reports[i].Severity)
			vr.Continued = run.Reports[i].Continued
		}

		rec.Violations = append(rec.Violations, vr)
	}

	rec.ViolationCount = len(rec.Violations)
	return rec
}

// Outcome rebuilds the caller-facing outcome from a run loaded with its
// violations. Violations whose disclosure was released have no report.
func (r *RunRecord) Outcome() report.Outcome {
	out := report.Outcome{
		RunID:      r.ID,
		Operation:  report.Operation(r.Operation),
		Kind:       r.CheckKind,
		Passed:     r.Passed,
		Terminated: r.Terminated,
		Aborted:    r.Aborted,
		FinishedAt: r.FinishedAt,
	}

	if r.Passed {
		out.Message = r.Message
	}

	for _, v := range r.Violations {
		if v.ReportSeverity == "" {
			continue
		}

		kind, _ := check.ParseKind(v.CheckKind)
		out.Reports = append(out.Reports, report.Report{
			Kind:      kind,
			Title:     v.Title,
			Message:   v.Message,
			Severity:  report.Severity(v.ReportSeverity),
			Fault:     v.Fault,
			Continued: v.Continued,
		})
	}

	out.Primary = report.SelectPrimary(out.Reports)

	return out
}
