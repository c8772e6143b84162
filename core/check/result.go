package check

import "strings"

// Severity is the raw severity a detector observed, independent of policy.
type Severity int

const (
	// SeveritySuccess means nothing was found.
	SeveritySuccess Severity = iota
	// SeverityWarning means a suspicious condition was found.
	SeverityWarning
	// SeverityCritical means a compromising condition was found.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps "success", "warning" or "critical" to a Severity.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success", "":
		return SeveritySuccess, true
	case "warning":
		return SeverityWarning, true
	case "critical":
		return SeverityCritical, true
	default:
		return SeveritySuccess, false
	}
}

const defaultMessage = "Security check failed"

// Result is the outcome of one detector invocation. The zero value is a
// Success. Warning and Critical results always carry a non-empty message.
type Result struct {
	severity Severity
	message  string
}

// Success returns a passing result.
func Success() Result {
	return Result{severity: SeveritySuccess}
}

// Warning returns a warning result with the given message.
func Warning(message string) Result {
	return Result{severity: SeverityWarning, message: nonEmpty(message)}
}

// Critical returns a critical result with the given message.
func Critical(message string) Result {
	return Result{severity: SeverityCritical, message: nonEmpty(message)}
}

// Severity returns the raw severity.
func (r Result) Severity() Severity {
	return r.severity
}

// Message returns the human readable message. Empty for Success.
func (r Result) Message() string {
	return r.message
}

// IsSuccess returns true for a passing result.
func (r Result) IsSuccess() bool {
	return r.severity == SeveritySuccess
}

// IsCritical returns true for a critical result.
func (r Result) IsCritical() bool {
	return r.severity == SeverityCritical
}

// String renders the result for logs.
func (r Result) String() string {
	if r.IsSuccess() {
		return r.severity.String()
	}
	return r.severity.String() + ": " + r.message
}

func nonEmpty(message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return defaultMessage
	}
	return message
}
