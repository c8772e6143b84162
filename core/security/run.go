package security

import (
	"time"

	"github.com/google/uuid"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/core/report"
)

// Observation is the raw outcome of one detector invocation.
type Observation struct {
	Kind     check.Kind
	Result   check.Result
	Fault    bool
	Duration time.Duration
}

// Run aggregates one check pass. It is owned by the pass that created it and
// must not be mutated after the pass returns.
type Run struct {
	// ID is the unique identifier for this run.
	ID uuid.UUID
	// Operation is the caller operation that triggered the run.
	Operation report.Operation
	// Kinds are the kinds scheduled for this run, in detection order.
	Kinds []check.Kind
	// StartedAt is when the run acquired the engine.
	StartedAt time.Time
	// FinishedAt is when the run completed.
	FinishedAt time.Time
	// Observations holds the evaluated detector outcomes in detection order.
	Observations []Observation
	// Violations holds the classified violations in detection order.
	Violations []policy.Violation
	// Reports holds one report per resolved violation.
	Reports []report.Report
	// Terminated is set when a violation ended the session.
	Terminated bool
	// Aborted is set when the host session went away mid-pass.
	Aborted bool
}

func newRun(op report.Operation, kinds []check.Kind) *Run {
	return &Run{
		ID:        uuid.New(),
		Operation: op,
		Kinds:     kinds,
		StartedAt: time.Now().UTC(),
	}
}

// Passed returns true when the pass completed without violations.
func (r *Run) Passed() bool {
	return !r.Aborted && len(r.Violations) == 0
}

// Faults returns the observations synthesized from detector failures.
func (r *Run) Faults() []Observation {
	var out []Observation
	for _, o := range r.Observations {
		if o.Fault {
			out = append(out, o)
		}
	}
	return out
}

// Observation returns the observation for kind, if it was evaluated.
func (r *Run) Observation(kind check.Kind) (Observation, bool) {
	for _, o := range r.Observations {
		if o.Kind == kind {
			return o, true
		}
	}
	return Observation{}, false
}

// Outcome builds the single caller-facing outcome for the run.
func (r *Run) Outcome() report.Outcome {
	out := report.Outcome{
		RunID:      r.ID,
		Operation:  r.Operation,
		Passed:     r.Passed(),
		Terminated: r.Terminated,
		Aborted:    r.Aborted,
		Reports:    r.Reports,
		Primary:    report.SelectPrimary(r.Reports),
		FinishedAt: r.FinishedAt,
	}

	if r.Operation == report.OperationCheck && len(r.Kinds) == 1 {
		out.Kind = r.Kinds[0].Key()
	}

	if out.Passed {
		out.Message = "All security checks passed"
		if out.Kind != "" {
			out.Message = r.Kinds[0].SingleTitle() + ": Passed"
		}
	}

	return out
}
