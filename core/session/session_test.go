package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_Terminate(t *testing.T) {
	s := New(context.Background())
	assert.True(t, s.IsActive())
	assert.NoError(t, s.Context().Err())

	s.Terminate("Root Access Detected: su found")
	s.Terminate("second reason")
	s.Teardown()

	assert.Equal(t, StateTerminated, s.State())
	assert.True(t, s.Terminated())
	assert.False(t, s.IsActive())
	assert.Equal(t, "Root Access Detected: su found", s.Reason())
	assert.ErrorIs(t, s.Context().Err(), context.Canceled)

	d := s.Duration()
	assert.Equal(t, d, s.Duration())
}

func TestSession_Teardown(t *testing.T) {
	s := New(context.Background())

	s.Teardown()
	s.Terminate("too late")

	assert.Equal(t, StateTornDown, s.State())
	assert.False(t, s.Terminated())
	assert.Empty(t, s.Reason())
	assert.Error(t, s.Context().Err())
}

func TestSession_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	s := New(parent)

	cancel()

	assert.Error(t, s.Context().Err())
	assert.True(t, s.IsActive())
}
