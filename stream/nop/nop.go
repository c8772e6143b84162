package nop

import (
	"context"

	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/stream"
)

// Target discards every outcome.
type Target struct {
	name    string
	enabled bool
}

func New(name string, enabled bool) *Target {
	return &Target{
		name:    name,
		enabled: enabled,
	}
}

func (t *Target) Name() string  { return t.name }
func (t *Target) Type() string  { return stream.TargetTypeNop }
func (t *Target) Enabled() bool { return t.enabled }

func (t *Target) Send(_ context.Context, _ []report.Outcome) error {
	return nil
}

func (t *Target) Close() error { return nil }

var _ report.Sink = (*Target)(nil)
