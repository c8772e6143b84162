package tui

import (
	"time"
)

// OutcomeView represents the outcome of one triggered operation.
type OutcomeView struct {
	RunID      string        `json:"run_id"`
	ShortRunID string        `json:"-"`
	Operation  string        `json:"operation"`
	Kind       string        `json:"kind,omitempty"`
	Passed     bool          `json:"passed"`
	Terminated bool          `json:"terminated"`
	Aborted    bool          `json:"aborted,omitempty"`
	Message    string        `json:"message,omitempty"`
	Primary    *ReportView   `json:"primary,omitempty"`
	Reports    []ReportView  `json:"reports"`
	Faults     int           `json:"faults"`
	Duration   time.Duration `json:"duration_ns"`
	FinishedAt time.Time     `json:"finished_at"`
}

// ReportView represents one disclosed violation.
type ReportView struct {
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Severity  string `json:"type"`
	Fault     bool   `json:"fault,omitempty"`
	Continued bool   `json:"continued"`
}

// RunView represents a recorded check run for display.
type RunView struct {
	ID             string           `json:"id"`
	ShortID        string           `json:"-"`
	SessionID      string           `json:"session_id"`
	Operation      string           `json:"operation"`
	CheckKind      string           `json:"check_kind,omitempty"`
	StartedAt      time.Time        `json:"started_at"`
	Duration       time.Duration    `json:"duration_ns"`
	Passed         bool             `json:"passed"`
	Terminated     bool             `json:"terminated"`
	Aborted        bool             `json:"aborted,omitempty"`
	Message        string           `json:"message,omitempty"`
	ViolationCount int              `json:"violation_count"`
	Violations     []*ViolationView `json:"violations,omitempty"`
}

// ViolationView represents a recorded violation for display.
type ViolationView struct {
	Sequence       int    `json:"sequence"`
	CheckKind      string `json:"check_kind"`
	Title          string `json:"title"`
	Message        string `json:"message"`
	Level          string `json:"level"`
	RawSeverity    string `json:"raw_severity"`
	ReportSeverity string `json:"report_severity,omitempty"`
	Fault          bool   `json:"fault,omitempty"`
	Continued      bool   `json:"continued"`
}

// PolicyView represents the effective policy.
type PolicyView struct {
	Source   string            `json:"source"`
	Entries  []PolicyEntryView `json:"entries"`
	Identity IdentityView      `json:"identity"`
}

// PolicyEntryView represents the resolved level of one check.
type PolicyEntryView struct {
	Kind     string `json:"kind"`
	Title    string `json:"title"`
	Level    string `json:"level"`
	Default  string `json:"default"`
	Raw      string `json:"raw,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
	Enabled  bool   `json:"enabled"`
	Optional bool   `json:"optional,omitempty"`
}

// IdentityView represents the identity values detectors compare against.
type IdentityView struct {
	ExpectedAppID           string `json:"expected_app_id"`
	RunningAppID            string `json:"running_app_id"`
	ExpectedCertFingerprint string `json:"expected_cert_fingerprint,omitempty"`
}

// StatusView represents the status output data.
type StatusView struct {
	Version  string           `json:"version"`
	Database DatabaseView     `json:"database"`
	Config   ConfigStatusView `json:"config"`
	Sinks    []SinkView       `json:"sinks"`
}

// SinkView represents a configured report sink.
type SinkView struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Enabled bool   `json:"enabled"`
}

// DatabaseView represents database information.
type DatabaseView struct {
	Location       string    `json:"location"`
	SizeBytes      int64     `json:"size_bytes"`
	SizeHuman      string    `json:"size_human"`
	RunCount       int       `json:"run_count"`
	ViolationCount int       `json:"violation_count"`
	SelfAuditCount int       `json:"self_audit_count"`
	OldestRun      time.Time `json:"oldest_run"`
	NewestRun      time.Time `json:"newest_run"`
}

// ConfigStatusView represents configuration status.
type ConfigStatusView struct {
	Location        string    `json:"location"`
	Workers         int       `json:"workers"`
	DisclosureMode  string    `json:"disclosure_mode"`
	RetentionDays   int       `json:"retention_days"`
	RunsToClean     int       `json:"runs_to_clean"`
	RetentionCutoff time.Time `json:"retention_cutoff"`
}

// DoctorView represents doctor check results.
type DoctorView struct {
	Checks []DoctorCheck `json:"checks"`
	AllOK  bool          `json:"all_ok"`
}

// DoctorCheck represents a single doctor check.
type DoctorCheck struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message,omitempty"`
	Suggestion  string      `json:"suggestion,omitempty"`
}

// CheckStatus represents the status of a doctor check.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// ConfigView represents configuration for display.
type ConfigView struct {
	Location string                 `json:"location"`
	Values   map[string]interface{} `json:"values"`
}

// SelfAuditView represents a self-audit entry for display.
type SelfAuditView struct {
	ID           string                 `json:"id"`
	Timestamp    time.Time              `json:"timestamp"`
	Action       string                 `json:"action"`
	CheckKind    string                 `json:"check_kind,omitempty"`
	Result       string                 `json:"result"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	ToolVersion  string                 `json:"tool_version"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// DiffView represents a unified diff for display.
type DiffView struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Content   string `json:"content"`
	Identical bool   `json:"identical"`
}

// RetentionView represents the retention policy and its effect.
type RetentionView struct {
	Enabled       bool      `json:"enabled"`
	RetentionDays int       `json:"retention_days"`
	Cutoff        time.Time `json:"cutoff"`
	RunsAffected  int       `json:"runs_affected"`
	DryRun        bool      `json:"dry_run"`
	Deleted       bool      `json:"deleted"`
}
