// Package detector provides the detectors that evaluate the host for each
// check kind, and a registry the orchestrator looks them up in.
package detector

import (
	"sync"

	"github.com/safedep/safeguard/core/check"
)

// Registry manages registered detectors, one per kind.
type Registry struct {
	mu        sync.RWMutex
	detectors map[check.Kind]check.Detector
}

// NewRegistry creates a new detector registry.
func NewRegistry() *Registry {
	return &Registry{
		detectors: make(map[check.Kind]check.Detector),
	}
}

// Register adds a detector to the registry, replacing any detector
// previously registered for the same kind.
func (r *Registry) Register(d check.Detector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detectors[d.Kind()] = d
}

// Get retrieves the detector for kind.
func (r *Registry) Get(kind check.Kind) (check.Detector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.detectors[kind]
	return d, ok
}

// Kinds returns the registered kinds in detection order.
func (r *Registry) Kinds() []check.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]check.Kind, 0, len(r.detectors))
	for _, kind := range check.All() {
		if _, ok := r.detectors[kind]; ok {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// Missing returns the kinds from want that have no registered detector.
func (r *Registry) Missing(want []check.Kind) []check.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var missing []check.Kind
	for _, kind := range want {
		if _, ok := r.detectors[kind]; !ok {
			missing = append(missing, kind)
		}
	}
	return missing
}
