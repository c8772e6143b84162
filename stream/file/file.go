// Package file provides a sink that appends outcomes to a JSON Lines file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/stream"
)

// Target implements report.Sink by appending one JSON object per line.
type Target struct {
	name    string
	enabled bool
	path    string

	mu sync.Mutex
	f  *os.File
}

// New creates a file sink writing to path. The file is opened on first send.
func New(name string, enabled bool, path string) *Target {
	return &Target{
		name:    name,
		enabled: enabled,
		path:    path,
	}
}

func (t *Target) Name() string  { return t.name }
func (t *Target) Type() string  { return stream.TargetTypeFile }
func (t *Target) Enabled() bool { return t.enabled }

// Path returns the output file path.
func (t *Target) Path() string { return t.path }

func (t *Target) Send(_ context.Context, outcomes []report.Outcome) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.f == nil {
		if err := os.MkdirAll(filepath.Dir(t.path), 0700); err != nil {
			return fmt.Errorf("failed to create sink directory: %w", err)
		}

		f, err := os.OpenFile(t.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("failed to open sink file: %w", err)
		}
		t.f = f
	}

	enc := json.NewEncoder(t.f)
	for _, o := range outcomes {
		if err := enc.Encode(o); err != nil {
			return fmt.Errorf("failed to encode outcome: %w", err)
		}
	}

	return nil
}

func (t *Target) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.f == nil {
		return nil
	}

	err := t.f.Close()
	t.f = nil
	return err
}

var _ report.Sink = (*Target)(nil)
