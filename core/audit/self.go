// Package audit provides self-audit logging for the tool's own actions.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SelfAuditAction represents the type of action the tool performed.
type SelfAuditAction string

const (
	// ActionConfigChange indicates configuration was modified.
	ActionConfigChange SelfAuditAction = "config_change"
	// ActionConfigReset indicates configuration was reset to defaults.
	ActionConfigReset SelfAuditAction = "config_reset"
	// ActionPolicyFallback indicates a policy string was replaced by its default.
	ActionPolicyFallback SelfAuditAction = "policy_fallback"
	// ActionSessionTerminated indicates enforcement ended the host session.
	ActionSessionTerminated SelfAuditAction = "session_terminated"
	// ActionDatabaseInit indicates the database was initialized.
	ActionDatabaseInit SelfAuditAction = "database_init"
	// ActionRetentionCleanup indicates old runs were deleted.
	ActionRetentionCleanup SelfAuditAction = "retention_cleanup"
)

// Actions lists every known action.
var Actions = []SelfAuditAction{
	ActionConfigChange,
	ActionConfigReset,
	ActionPolicyFallback,
	ActionSessionTerminated,
	ActionDatabaseInit,
	ActionRetentionCleanup,
}

// String returns the string representation of a SelfAuditAction.
func (a SelfAuditAction) String() string {
	return string(a)
}

// SelfAuditResult represents the outcome of a self-audit action.
type SelfAuditResult string

const (
	// ResultSuccess indicates the action completed successfully.
	ResultSuccess SelfAuditResult = "success"
	// ResultError indicates the action failed with an error.
	ResultError SelfAuditResult = "error"
	// ResultSkipped indicates the action was skipped.
	ResultSkipped SelfAuditResult = "skipped"
)

// String returns the string representation of a SelfAuditResult.
func (r SelfAuditResult) String() string {
	return string(r)
}

// SelfAudit represents a log entry for the tool's own actions.
type SelfAudit struct {
	// ID is the unique identifier for this audit entry.
	ID uuid.UUID `json:"id"`
	// Timestamp is when the action occurred (UTC).
	Timestamp time.Time `json:"timestamp"`
	// Action is the type of action performed.
	Action SelfAuditAction `json:"action"`
	// CheckKind is the relevant check, if applicable.
	CheckKind string `json:"check_kind,omitempty"`
	// Details contains action-specific data.
	Details json.RawMessage `json:"details,omitempty"`
	// Result is the outcome of the action.
	Result SelfAuditResult `json:"result"`
	// ErrorMessage contains error details if failed.
	ErrorMessage string `json:"error_message,omitempty"`
	// ToolVersion is the version of the tool that performed the action.
	ToolVersion string `json:"tool_version"`
}

// NewSelfAudit creates a new SelfAudit entry with a generated UUID.
func NewSelfAudit(action SelfAuditAction, toolVersion string) *SelfAudit {
	return &SelfAudit{
		ID:          uuid.New(),
		Timestamp:   time.Now().UTC(),
		Action:      action,
		Result:      ResultSuccess,
		ToolVersion: toolVersion,
	}
}

// WithCheck sets the CheckKind.
func (s *SelfAudit) WithCheck(kind string) *SelfAudit {
	s.CheckKind = kind
	return s
}

// WithDetails sets the Details from a given struct.
func (s *SelfAudit) WithDetails(details interface{}) *SelfAudit {
	data, _ := json.Marshal(details)
	s.Details = data
	return s
}

// WithError marks the audit as failed with the given error.
func (s *SelfAudit) WithError(err error) *SelfAudit {
	s.Result = ResultError
	s.ErrorMessage = err.Error()
	return s
}

// MarkSkipped marks the audit as skipped.
func (s *SelfAudit) MarkSkipped() *SelfAudit {
	s.Result = ResultSkipped
	return s
}

// DetailsMap decodes Details into a generic map for storage.
func (s *SelfAudit) DetailsMap() map[string]interface{} {
	if len(s.Details) == 0 {
		return nil
	}

	var m map[string]interface{}
	if err := json.Unmarshal(s.Details, &m); err != nil {
		return nil
	}
	return m
}

// ConfigChangeDetails contains details for config change actions.
type ConfigChangeDetails struct {
	Key      string `json:"key"`
	OldValue string `json:"old_value,omitempty"`
	NewValue string `json:"new_value"`
}

// PolicyFallbackDetails contains details for policy fallback actions.
type PolicyFallbackDetails struct {
	Raw     string `json:"raw"`
	Applied string `json:"applied"`
}

// SessionTerminatedDetails contains details for session termination.
type SessionTerminatedDetails struct {
	SessionID string `json:"session_id"`
	RunID     string `json:"run_id,omitempty"`
	Reason    string `json:"reason"`
}

// RetentionCleanupDetails contains details for retention cleanup actions.
type RetentionCleanupDetails struct {
	RunsDeleted   int       `json:"runs_deleted"`
	RetentionDays int       `json:"retention_days"`
	Cutoff        time.Time `json:"cutoff"`
}

// DatabaseInitDetails contains details for database initialization.
type DatabaseInitDetails struct {
	Path          string `json:"path"`
	SchemaVersion string `json:"schema_version"`
}
