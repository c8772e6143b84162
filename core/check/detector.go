package check

import "context"

// Detector produces a raw Result for one Kind. Detectors may block on I/O and
// must not share mutable state with other detectors. A returned error (or a
// panic) is treated as a detector fault by the orchestrator.
type Detector interface {
	// Kind returns the check this detector serves.
	Kind() Kind
	// Detect evaluates the environment.
	Detect(ctx context.Context) (Result, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc struct {
	K  Kind
	Fn func(ctx context.Context) (Result, error)
}

// Kind returns the check this detector serves.
func (d DetectorFunc) Kind() Kind {
	return d.K
}

// Detect calls the wrapped function.
func (d DetectorFunc) Detect(ctx context.Context) (Result, error) {
	return d.Fn(ctx)
}

var _ Detector = DetectorFunc{}
