package audit

import (
	"time"
)

// RetentionPolicy defines how long check history is kept.
type RetentionPolicy struct {
	// RetentionDays is the number of days to keep runs (0 = never delete).
	RetentionDays int
	// KeepSelfAudit exempts self-audit entries from retention.
	KeepSelfAudit bool
}

// NewRetentionPolicy creates a new RetentionPolicy with the given retention days.
func NewRetentionPolicy(days int) *RetentionPolicy {
	return &RetentionPolicy{
		RetentionDays: days,
		KeepSelfAudit: true,
	}
}

// DefaultRetentionPolicy returns the default retention policy (30 days).
func DefaultRetentionPolicy() *RetentionPolicy {
	return NewRetentionPolicy(30)
}

// CutoffTime returns the time before which runs should be deleted relative
// to now. Returns zero time if retention is disabled.
func (p *RetentionPolicy) CutoffTime(now time.Time) time.Time {
	if !p.IsEnabled() {
		return time.Time{}
	}
	return now.AddDate(0, 0, -p.RetentionDays)
}

// IsEnabled returns true if retention is enabled.
func (p *RetentionPolicy) IsEnabled() bool {
	return p.RetentionDays > 0
}

// ShouldDelete returns true if a run started at t is past retention.
func (p *RetentionPolicy) ShouldDelete(t, now time.Time) bool {
	if !p.IsEnabled() {
		return false
	}
	return t.Before(p.CutoffTime(now))
}
