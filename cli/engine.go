package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/bridge"
	"github.com/safedep/safeguard/config"
	"github.com/safedep/safeguard/core/audit"
	"github.com/safedep/safeguard/core/disclosure"
	"github.com/safedep/safeguard/core/enforce"
	"github.com/safedep/safeguard/core/report"
	"github.com/safedep/safeguard/core/security"
	"github.com/safedep/safeguard/core/session"
	"github.com/safedep/safeguard/detector"
	"github.com/safedep/safeguard/stream"
	"github.com/safedep/safeguard/stream/file"
	"github.com/safedep/safeguard/stream/nop"
	"github.com/safedep/safeguard/stream/stdout"
	"github.com/safedep/safeguard/tui/component/dialog"
)

// Engine is one protected host session with everything needed to run
// checks in it.
type Engine struct {
	Session *session.Session
	Bridge  *bridge.Bridge

	app   *App
	loop  *disclosure.Loop
	gate  *disclosure.Gate
	sinks *stream.Registry

	mu   sync.Mutex
	runs map[uuid.UUID]*security.Run
	last *report.Outcome
}

type engineOptions struct {
	// Scenario replaces host probes with scripted detectors.
	Scenario string
	// Input and Output are where disclosures are shown.
	Input  io.Reader
	Output io.Writer
	// SinkOutput is where stdout sinks write.
	SinkOutput io.Writer
}

// newEngine builds an engine over app. History is best effort: when the
// database cannot be opened checks still run, unrecorded.
func newEngine(ctx context.Context, app *App, opts engineOptions) (*Engine, error) {
	if opts.Scenario != "" {
		scenario, err := detector.LoadScenario(opts.Scenario)
		if err != nil {
			return nil, ErrConfig("invalid scenario", err)
		}
		scenario.Register(app.Detectors)
		log.Infof("Loaded scenario %q from %s", scenario.Name, opts.Scenario)
	}

	if missing := app.Detectors.Missing(app.Policy.EnabledKinds()); len(missing) > 0 {
		return nil, fmt.Errorf("no detector registered for %v", missing)
	}

	discloser, err := dialog.New(app.Config.Disclosure.Mode, dialog.Options{
		Input:  opts.Input,
		Output: opts.Output,
	})
	if err != nil {
		return nil, ErrConfig("invalid disclosure mode", err)
	}

	if err := app.InitStore(ctx); err != nil {
		log.Warnf("history disabled: failed to open database: %v", err)
	}

	sess := session.New(ctx)
	loop := disclosure.NewLoop()
	gate := disclosure.NewGate(loop, discloser, disclosure.WithTimeout(app.Config.Engine.DisclosureTimeout))
	executor := enforce.NewExecutor(sess)

	orchestrator := security.New(app.Policy, app.Detectors, gate, executor,
		security.WithWorkers(app.Config.Engine.Workers))

	sinks := buildStreamRegistry(app.Config, opts.SinkOutput)

	e := &Engine{
		Session: sess,
		app:     app,
		loop:    loop,
		gate:    gate,
		sinks:   sinks,
		runs:    make(map[uuid.UUID]*security.Run),
	}

	bopts := []bridge.Option{
		bridge.WithPublisher(stream.NewPublisher(sinks)),
		bridge.WithSessionID(sess.ID),
		bridge.WithObserver(e.observe),
		bridge.WithObserver(e.auditTermination),
	}
	if app.Store != nil {
		bopts = append(bopts, bridge.WithRecorder(app.Store))
	}

	e.Bridge = bridge.New(orchestrator, bopts...)

	e.auditFallbacks(ctx)

	return e, nil
}

// Close tears the session down and releases the UI loop and sinks.
func (e *Engine) Close() {
	e.gate.Close()
	e.Session.Teardown()
	e.loop.Stop()

	if err := e.sinks.Close(); err != nil {
		log.Warnf("failed to close report sinks: %v", err)
	}
}

func (e *Engine) observe(run *security.Run, outcome report.Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runs[run.ID] = run
	e.last = &outcome
}

// Run returns a run delivered by this engine.
func (e *Engine) Run(id uuid.UUID) *security.Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs[id]
}

// LastOutcome returns the most recently delivered outcome.
func (e *Engine) LastOutcome() (report.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.last == nil {
		return report.Outcome{}, false
	}
	return *e.last, true
}

func (e *Engine) auditFallbacks(ctx context.Context) {
	for _, fb := range e.app.Policy.Fallbacks() {
		log.Warnf("policy.%s: unknown level %q, using %s", fb.Kind.Key(), fb.Raw, fb.Applied)

		logSelfAudit(ctx, e.app.Store, newSelfAudit(audit.ActionPolicyFallback).
			WithCheck(fb.Kind.Key()).
			WithDetails(audit.PolicyFallbackDetails{
				Raw:     fb.Raw,
				Applied: fb.Applied.String(),
			}))
	}
}

func (e *Engine) auditTermination(run *security.Run, outcome report.Outcome) {
	if !outcome.Terminated {
		return
	}

	entry := newSelfAudit(audit.ActionSessionTerminated).
		WithDetails(audit.SessionTerminatedDetails{
			SessionID: e.Session.ID.String(),
			RunID:     run.ID.String(),
			Reason:    e.Session.Reason(),
		})
	if outcome.Primary != nil {
		entry.WithCheck(outcome.Primary.Kind.Key())
	}

	logSelfAudit(context.Background(), e.app.Store, entry)
}

// buildStreamRegistry registers a sink per configured target.
func buildStreamRegistry(cfg *config.Config, out io.Writer) *stream.Registry {
	if out == nil {
		out = os.Stdout
	}

	registry := stream.NewRegistry()
	for _, tc := range cfg.Streams.Targets {
		switch tc.Type {
		case stream.TargetTypeStdout:
			registry.Register(stdout.New(tc.Name, tc.Enabled, out))
		case stream.TargetTypeFile:
			path, _ := tc.Config["path"].(string)
			registry.Register(file.New(tc.Name, tc.Enabled, path))
		case stream.TargetTypeNop:
			registry.Register(nop.New(tc.Name, tc.Enabled))
		}
	}

	return registry
}
