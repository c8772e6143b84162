// Package session provides the host session the engine protects.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of a session.
type State string

const (
	// StateActive means the session is running.
	StateActive State = "active"
	// StateTerminated means enforcement ended the session.
	StateTerminated State = "terminated"
	// StateTornDown means the host closed the session.
	StateTornDown State = "torn_down"
)

// Session represents one run of the host application.
type Session struct {
	// ID is the unique identifier for this session.
	ID uuid.UUID `json:"id"`
	// StartedAt is the session start time (UTC).
	StartedAt time.Time `json:"started_at"`

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	state   State
	endedAt time.Time
	reason  string
}

// New creates an active Session derived from parent.
func New(parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateActive,
	}
}

// Context is cancelled when the session ends for any reason.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Terminate ends the session because of a violation. Irreversible; only the
// first call has an effect.
func (s *Session) Terminate(reason string) {
	s.end(StateTerminated, reason)
}

// Teardown ends the session without enforcement, e.g. on host shutdown.
func (s *Session) Teardown() {
	s.end(StateTornDown, "")
}

func (s *Session) end(state State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateActive {
		return
	}

	s.state = state
	s.reason = reason
	s.endedAt = time.Now().UTC()
	s.cancel()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsActive returns true if the session has not ended.
func (s *Session) IsActive() bool {
	return s.State() == StateActive
}

// Terminated returns true if enforcement ended the session.
func (s *Session) Terminated() bool {
	return s.State() == StateTerminated
}

// Reason returns the termination reason, if any.
func (s *Session) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Duration returns the duration of the session.
// If the session is still active, it returns the duration since start.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateActive {
		return time.Since(s.StartedAt)
	}
	return s.endedAt.Sub(s.StartedAt)
}
