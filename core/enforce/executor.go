// Package enforce turns a classified violation and the user's acknowledgement
// into a concrete action.
package enforce

import (
	"context"
	"sync"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/core/report"
)

// Action is the final action for a violation.
type Action int

const (
	// ActionContinue resumes the session.
	ActionContinue Action = iota
	// ActionTerminate ends the host session. Irreversible.
	ActionTerminate
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionContinue:
		return "continue"
	case ActionTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// Terminator ends the host session.
type Terminator interface {
	Terminate(reason string)
}

// Plan describes how a violation must be disclosed.
type Plan struct {
	// Disclose is true when the user must see the violation.
	Disclose bool
	// AllowContinue is true when the user may choose to carry on.
	AllowContinue bool
}

// Ack is the user's answer to a disclosure.
type Ack struct {
	ContinueAnyway bool
	// TimedOut is set when the disclosure expired without an answer.
	TimedOut bool
}

// Decision is the resolved action and the report describing it.
type Decision struct {
	Action Action
	Report report.Report
}

// Executor interprets (level, severity) pairs. Terminate runs at most once.
type Executor struct {
	terminator Terminator
	once       sync.Once
	terminated bool
	mu         sync.Mutex
}

// NewExecutor creates an Executor that ends sessions through t.
func NewExecutor(t Terminator) *Executor {
	return &Executor{terminator: t}
}

// Plan returns the disclosure plan for v. A detector fault under an ERROR
// policy is offered continue like a non-critical finding; it never ends the
// session by itself, but declining it does.
func (e *Executor) Plan(v policy.Violation) Plan {
	switch v.Level {
	case policy.LevelWarning:
		return Plan{Disclose: true, AllowContinue: true}
	case policy.LevelError:
		return Plan{Disclose: true, AllowContinue: v.Fault || !v.Result.IsCritical()}
	default:
		return Plan{}
	}
}

// Resolve returns the action for v given the user's acknowledgement. Under an
// ERROR policy any answer other than continue anyway terminates, including a
// timed out or closed prompt, and that holds for faults as well.
func (e *Executor) Resolve(v policy.Violation, ack Ack) Decision {
	action := ActionContinue

	if v.Level == policy.LevelError {
		plan := e.Plan(v)
		if !plan.AllowContinue || !ack.ContinueAnyway {
			action = ActionTerminate
		}
	}

	severity := report.SeverityWarning
	if v.Fault || v.Result.Severity() == check.SeverityCritical || action == ActionTerminate {
		severity = report.SeverityError
	}

	return Decision{
		Action: action,
		Report: report.Report{
			Kind:      v.Kind,
			Title:     v.Title,
			Message:   v.Result.Message(),
			Severity:  severity,
			Fault:     v.Fault,
			Continued: action == ActionContinue,
		},
	}
}

// Terminate ends the host session once. Later calls are no-ops.
func (e *Executor) Terminate(_ context.Context, v policy.Violation) {
	e.once.Do(func() {
		log.Infof("terminating session: %s: %s", v.Title, v.Result.Message())

		e.mu.Lock()
		e.terminated = true
		e.mu.Unlock()

		if e.terminator != nil {
			e.terminator.Terminate(v.Title + ": " + v.Result.Message())
		}
	})
}

// Terminated reports whether Terminate has run.
func (e *Executor) Terminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.terminated
}
