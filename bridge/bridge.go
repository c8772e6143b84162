// Package bridge is the caller-facing surface of the check engine. Every
// triggered operation produces exactly one outcome, which is recorded and
// published to the configured sinks.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/core/security"
	"github.com/safedep/safeguard/stream"
)

// ErrUnknownAction is returned by Execute for an action it does not serve.
var ErrUnknownAction = errors.New("unknown action")

// ActionCheckAll is the action name of a full pass with acknowledgement.
const ActionCheckAll = "checkAll"

// Runner executes check passes.
type Runner interface {
	RunAll(ctx context.Context, op report.Operation) (*security.Run, error)
	RunSingle(ctx context.Context, kind check.Kind) (check.Result, *security.Run, error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, sessionID uuid.UUID, run *security.Run) error
}

// Observer is notified of every finished run after it was recorded and
// published.
type Observer func(run *security.Run, outcome report.Outcome)

// Option configures a Bridge.
type Option func(*Bridge)

// WithRecorder records every finished run.
func WithRecorder(r Recorder) Option {
	return func(b *Bridge) {
		b.recorder = r
	}
}

// WithPublisher publishes every outcome to the publisher's sinks.
func WithPublisher(p *stream.Publisher) Option {
	return func(b *Bridge) {
		b.publisher = p
	}
}

// WithSessionID tags recorded runs with the host session.
func WithSessionID(id uuid.UUID) Option {
	return func(b *Bridge) {
		b.sessionID = id
	}
}

// WithObserver registers fn to be called for every finished run.
func WithObserver(fn Observer) Option {
	return func(b *Bridge) {
		b.observers = append(b.observers, fn)
	}
}

// Bridge adapts caller operations onto the orchestrator.
type Bridge struct {
	runner    Runner
	recorder  Recorder
	publisher *stream.Publisher
	sessionID uuid.UUID
	observers []Observer

	wg sync.WaitGroup
}

// New creates a Bridge over runner.
func New(runner Runner, opts ...Option) *Bridge {
	b := &Bridge{runner: runner}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// StartChecks starts a full pass in the background and returns immediately.
// The outcome only reaches sinks and observers.
func (b *Bridge) StartChecks(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		run, err := b.runner.RunAll(ctx, report.OperationStart)
		if err != nil {
			log.Warnf("startChecks did not run: %v", err)
			return
		}
		b.deliver(ctx, run)
	}()
}

// Wait blocks until every pass started by StartChecks has been delivered.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

// CheckAll runs a full pass and returns its aggregate outcome.
func (b *Bridge) CheckAll(ctx context.Context) (report.Outcome, error) {
	run, err := b.runner.RunAll(ctx, report.OperationCheckAll)
	if err != nil {
		return report.Outcome{}, fmt.Errorf("checkAll: %w", err)
	}
	return b.deliver(ctx, run), nil
}

// Check runs a single check and returns its outcome.
func (b *Bridge) Check(ctx context.Context, kind check.Kind) (report.Outcome, error) {
	_, run, err := b.runner.RunSingle(ctx, kind)
	if err != nil {
		return report.Outcome{}, fmt.Errorf("check %s: %w", kind, err)
	}
	return b.deliver(ctx, run), nil
}

// Execute dispatches a named action: checkAll, or a single check by its
// action name or configuration key.
func (b *Bridge) Execute(ctx context.Context, action string) (report.Outcome, error) {
	if action == ActionCheckAll {
		return b.CheckAll(ctx)
	}

	kind, err := check.ParseKind(action)
	if err != nil {
		return report.Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return b.Check(ctx, kind)
}

func (b *Bridge) deliver(ctx context.Context, run *security.Run) report.Outcome {
	outcome := run.Outcome()

	// Delivery outlives a torn down session so the record is not lost.
	ctx = context.WithoutCancel(ctx)

	if b.recorder != nil {
		if err := b.recorder.RecordRun(ctx, b.sessionID, run); err != nil {
			log.Errorf("failed to record run %s: %v", run.ID, err)
		}
	}

	if b.publisher != nil {
		b.publisher.Publish(ctx, outcome)
	}

	for _, fn := range b.observers {
		fn(run, outcome)
	}

	return outcome
}
