package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/stream"
)

// Target implements report.Sink by printing indented JSON.
type Target struct {
	name    string
	enabled bool

	mu sync.Mutex
	w  io.Writer
}

// New creates a new stdout sink. A nil writer means os.Stdout.
func New(name string, enabled bool, w io.Writer) *Target {
	if w == nil {
		w = os.Stdout
	}

	return &Target{
		name:    name,
		enabled: enabled,
		w:       w,
	}
}

func (t *Target) Name() string  { return t.name }
func (t *Target) Type() string  { return stream.TargetTypeStdout }
func (t *Target) Enabled() bool { return t.enabled }

func (t *Target) Send(_ context.Context, outcomes []report.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	enc := json.NewEncoder(t.w)
	enc.SetIndent("", "  ")

	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
	}

	return nil
}

func (t *Target) Close() error { return nil }

var _ report.Sink = (*Target)(nil)
