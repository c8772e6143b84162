// Package security orchestrates the integrity checks: it runs detectors on a
// bounded worker pool, classifies their results against policy in a fixed
// order, discloses violations and applies enforcement.
package security

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/disclosure"
	"github.com/safedep/safeguard/core/enforce"
	"github.com/safedep/safeguard/core/policy"
	"github.com/safedep/safeguard/core/report"
	"golang.org/x/sync/errgroup"
)

// ErrKindDisabled is returned when a single check targets an optional kind
// that is not enabled.
var ErrKindDisabled = errors.New("check kind is disabled")

const defaultWorkers = 4

// Detectors resolves the detector serving a kind.
type Detectors interface {
	Get(kind check.Kind) (check.Detector, bool)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the size of the detector worker pool.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// Orchestrator runs check passes. At most one pass (full or single) is in
// flight at a time; later callers wait their turn.
type Orchestrator struct {
	policy    *policy.Config
	detectors Detectors
	gate      *disclosure.Gate
	executor  *enforce.Executor
	workers   int

	// turn is the single-flight token shared by RunAll and RunSingle.
	turn chan struct{}
}

// New creates an Orchestrator.
func New(p *policy.Config, detectors Detectors, gate *disclosure.Gate, executor *enforce.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		policy:    p,
		detectors: detectors,
		gate:      gate,
		executor:  executor,
		workers:   defaultWorkers,
		turn:      make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Policy returns the policy the orchestrator enforces.
func (o *Orchestrator) Policy() *policy.Config {
	return o.policy
}

// RunAll runs every enabled check. Detector faults never surface as errors;
// the only errors are failing to start the pass because ctx ended.
func (o *Orchestrator) RunAll(ctx context.Context, op report.Operation) (*Run, error) {
	return o.run(ctx, op, o.policy.EnabledKinds(), false)
}

// RunSingle runs exactly one check through the same classification,
// disclosure and enforcement path as a full pass.
func (o *Orchestrator) RunSingle(ctx context.Context, kind check.Kind) (check.Result, *Run, error) {
	if !kind.Valid() {
		return check.Result{}, nil, fmt.Errorf("%w: %d", check.ErrUnknownKind, int(kind))
	}
	if !o.policy.Enabled(kind) {
		return check.Result{}, nil, fmt.Errorf("%w: %s", ErrKindDisabled, kind)
	}

	run, err := o.run(ctx, report.OperationCheck, []check.Kind{kind}, true)
	if err != nil {
		return check.Result{}, nil, err
	}

	obs, _ := run.Observation(kind)
	return obs.Result, run, nil
}

func (o *Orchestrator) run(ctx context.Context, op report.Operation, kinds []check.Kind, single bool) (*Run, error) {
	select {
	case o.turn <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-o.turn }()

	run := newRun(op, kinds)
	defer func() { run.FinishedAt = time.Now().UTC() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := o.dispatch(runCtx, kinds)

	for i, kind := range kinds {
		var obs Observation
		select {
		case obs = <-slots[i]:
		case <-runCtx.Done():
			run.Aborted = true
			log.Warnf("check pass %s abandoned: %v", run.ID, ctx.Err())
			return run, nil
		}

		run.Observations = append(run.Observations, obs)

		title := kind.Title()
		if single {
			title = kind.SingleTitle()
		}

		v, ok := o.policy.Classify(kind, obs.Result, title)
		if !ok {
			continue
		}
		v.Fault = obs.Fault
		run.Violations = append(run.Violations, v)

		decision, released := o.enforce(runCtx, v)
		if released {
			run.Aborted = true
			log.Warnf("check pass %s abandoned during disclosure of %s", run.ID, kind)
			return run, nil
		}

		run.Reports = append(run.Reports, decision.Report)

		if decision.Action == enforce.ActionTerminate {
			run.Terminated = true
			cancel()
			o.terminate(ctx, v)
			return run, nil
		}
	}

	return run, nil
}

// dispatch starts detectors on the worker pool. Each kind gets a buffered
// slot so completions can arrive in any order and be replayed in order.
func (o *Orchestrator) dispatch(ctx context.Context, kinds []check.Kind) []chan Observation {
	slots := make([]chan Observation, len(kinds))
	for i := range slots {
		slots[i] = make(chan Observation, 1)
	}

	go func() {
		var g errgroup.Group
		g.SetLimit(o.workers)

		for i, kind := range kinds {
			if ctx.Err() != nil {
				break
			}

			g.Go(func() error {
				slots[i] <- o.invoke(ctx, kind)
				return nil
			})
		}

		_ = g.Wait()
	}()

	return slots
}

// invoke runs one detector in isolation. Errors and panics become a
// Critical result flagged as a fault.
func (o *Orchestrator) invoke(ctx context.Context, kind check.Kind) (obs Observation) {
	start := time.Now()
	obs.Kind = kind

	defer func() {
		if r := recover(); r != nil {
			obs.Result = faultResult(kind, fmt.Sprintf("panic: %v", r))
			obs.Fault = true
		}

		obs.Duration = time.Since(start)

		if obs.Fault {
			log.Errorf("detector fault for %s: %s", kind, obs.Result.Message())
		} else {
			log.Debugf("check %s finished in %s: %s", kind, obs.Duration, obs.Result)
		}
	}()

	detector, ok := o.detectors.Get(kind)
	if !ok {
		obs.Result = faultResult(kind, "no detector registered")
		obs.Fault = true
		return obs
	}

	result, err := detector.Detect(ctx)
	if err != nil {
		obs.Result = faultResult(kind, err.Error())
		obs.Fault = true
		return obs
	}

	obs.Result = result
	return obs
}

// enforce discloses v when the plan requires it and resolves the action.
// released is true when the host session went away while waiting.
func (o *Orchestrator) enforce(ctx context.Context, v policy.Violation) (enforce.Decision, bool) {
	plan := o.executor.Plan(v)

	var ack enforce.Ack
	if plan.Disclose {
		var err error
		ack, err = o.gate.Disclose(ctx, v, plan.AllowContinue)
		switch {
		case errors.Is(err, disclosure.ErrReleased):
			return enforce.Decision{}, true
		case err != nil:
			log.Errorf("disclosure of %s failed: %v", v.Kind, err)
			ack = enforce.Ack{}
		}
	}

	return o.executor.Resolve(v, ack), false
}

// terminate ends the host session on the UI loop.
func (o *Orchestrator) terminate(ctx context.Context, v policy.Violation) {
	err := o.gate.Do(context.WithoutCancel(ctx), func() {
		o.executor.Terminate(ctx, v)
	})
	if err != nil {
		log.Errorf("failed to run termination for %s: %v", v.Kind, err)
	}
}

func faultResult(kind check.Kind, diag string) check.Result {
	label := strings.ReplaceAll(kind.Key(), "_", " ")
	return check.Critical(fmt.Sprintf("Error checking %s: %s", label, diag))
}
