// Package stream delivers check outcomes to the configured report sinks.
package stream

import (
	"sort"
	"sync"

	"github.com/safedep/safeguard/core/report"
)

// Sink types understood by the configuration.
const (
	TargetTypeStdout = "stdout"
	TargetTypeFile   = "file"
	TargetTypeNop    = "nop"
)

// Registry manages registered report sinks.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]report.Sink
}

// NewRegistry creates a new sink registry.
func NewRegistry() *Registry {
	return &Registry{
		targets: make(map[string]report.Sink),
	}
}

// Register adds a sink to the registry.
func (r *Registry) Register(target report.Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.targets[target.Name()] = target
}

// Get retrieves a sink by name.
func (r *Registry) Get(name string) (report.Sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target, ok := r.targets[name]
	return target, ok
}

// All returns all registered sinks ordered by name.
func (r *Registry) All() []report.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	targets := make([]report.Sink, 0, len(r.targets))
	for _, t := range r.targets {
		targets = append(targets, t)
	}

	sortByName(targets)
	return targets
}

// Enabled returns all enabled sinks ordered by name.
func (r *Registry) Enabled() []report.Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var targets []report.Sink
	for _, t := range r.targets {
		if t.Enabled() {
			targets = append(targets, t)
		}
	}

	sortByName(targets)
	return targets
}

// Close closes every registered sink and returns the first error.
func (r *Registry) Close() error {
	var first error
	for _, t := range r.All() {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func sortByName(targets []report.Sink) {
	sort.Slice(targets, func(i, j int) bool {
		return targets[i].Name() < targets[j].Name()
	})
}
