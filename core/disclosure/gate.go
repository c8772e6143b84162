package disclosure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/enforce"
	"github.com/safedep/safeguard/core/policy"
)

// ErrReleased is returned when a pending disclosure is abandoned because the
// host session was torn down.
var ErrReleased = errors.New("disclosure released")

// Prompt is what the user is shown for one violation.
type Prompt struct {
	Kind          check.Kind
	Title         string
	Message       string
	Critical      bool
	Fault         bool
	Level         policy.Level
	AllowContinue bool
}

// Discloser renders a prompt and waits for the user's answer. It is always
// called on the Loop and must return once ctx is done.
type Discloser interface {
	Disclose(ctx context.Context, p Prompt) (enforce.Ack, error)
}

// DiscloserFunc adapts a function to the Discloser interface.
type DiscloserFunc func(ctx context.Context, p Prompt) (enforce.Ack, error)

// Disclose calls f.
func (f DiscloserFunc) Disclose(ctx context.Context, p Prompt) (enforce.Ack, error) {
	return f(ctx, p)
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithTimeout bounds how long a disclosure waits for an answer. Zero waits
// forever. An expired disclosure resolves as "do not continue".
func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) {
		g.timeout = d
	}
}

// Gate serializes disclosures onto the Loop so at most one is visible.
type Gate struct {
	loop      *Loop
	discloser Discloser
	timeout   time.Duration

	closed    chan struct{}
	closeOnce sync.Once
}

// NewGate creates a Gate that renders through d on loop.
func NewGate(loop *Loop, d Discloser, opts ...GateOption) *Gate {
	g := &Gate{
		loop:      loop,
		discloser: d,
		closed:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Disclose shows v to the user and returns the acknowledgement. It returns
// ErrReleased when ctx is cancelled or the gate is closed while waiting.
func (g *Gate) Disclose(ctx context.Context, v policy.Violation, allowContinue bool) (enforce.Ack, error) {
	ctx, cancel := g.bind(ctx)
	defer cancel()

	dctx := ctx
	if g.timeout > 0 {
		var cancelTimeout context.CancelFunc
		dctx, cancelTimeout = context.WithTimeout(ctx, g.timeout)
		defer cancelTimeout()
	}

	prompt := Prompt{
		Kind:          v.Kind,
		Title:         v.Title,
		Message:       v.Result.Message(),
		Critical:      v.Result.IsCritical(),
		Fault:         v.Fault,
		Level:         v.Level,
		AllowContinue: allowContinue,
	}

	ack, err := Call(dctx, g.loop, func() (enforce.Ack, error) {
		return g.discloser.Disclose(dctx, prompt)
	})

	switch {
	case err == nil:
		if !allowContinue {
			ack.ContinueAnyway = false
		}
		return ack, nil
	case ctx.Err() != nil:
		return enforce.Ack{}, ErrReleased
	case errors.Is(err, context.DeadlineExceeded):
		log.Warnf("disclosure for %s timed out after %s", v.Kind, g.timeout)
		return enforce.Ack{TimedOut: true}, nil
	default:
		return enforce.Ack{}, err
	}
}

// Do runs fn on the Loop. Used for enforcement actions that touch the
// process lifecycle.
func (g *Gate) Do(ctx context.Context, fn func()) error {
	return g.loop.Post(ctx, fn)
}

// Close releases any pending disclosure. It does not stop the Loop.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		close(g.closed)
	})
}

// bind derives a context that is also cancelled by Close.
func (g *Gate) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		select {
		case <-g.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
