package disclosure

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
	"github.com/safedep/safeguard/core/enforce"
	"github.com/safedep/safeguard/core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("APP_LOG_SKIP_STDOUT_LOGGER", "true")
	log.Init("safeguard-test", "test")

	os.Exit(m.Run())
}

func errorViolation() policy.Violation {
	return policy.Violation{
		Kind:   check.KindRoot,
		Result: check.Warning("adb root shell"),
		Level:  policy.LevelError,
		Title:  check.KindRoot.Title(),
	}
}

func TestLoop_RunsInOrder(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	var got []int
	for i := 0; i < 5; i++ {
		require.NoError(t, loop.Post(context.Background(), func() {
			got = append(got, i)
		}))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLoop_SurvivesPanic(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	require.NoError(t, loop.Post(context.Background(), func() { panic("boom") }))

	v, err := Call(context.Background(), loop, func() (int, error) { panic("boom") })
	assert.Error(t, err)
	assert.Zero(t, v)

	v, err = Call(context.Background(), loop, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestLoop_Stopped(t *testing.T) {
	loop := NewLoop()
	loop.Stop()
	loop.Stop()

	err := loop.Post(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrLoopClosed)
}

func TestLoop_PostCancelled(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	release := make(chan struct{})
	go func() {
		_ = loop.Post(context.Background(), func() { <-release })
	}()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// The loop is busy so the second task cannot start.
	time.Sleep(5 * time.Millisecond)
	err := loop.Post(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGate_Disclose(t *testing.T) {
	tests := []struct {
		name          string
		allowContinue bool
		answer        enforce.Ack
		want          enforce.Ack
	}{
		{"continue allowed", true, enforce.Ack{ContinueAnyway: true}, enforce.Ack{ContinueAnyway: true}},
		{"continue stripped when not allowed", false, enforce.Ack{ContinueAnyway: true}, enforce.Ack{}},
		{"declined", true, enforce.Ack{}, enforce.Ack{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loop := NewLoop()
			defer loop.Stop()

			var seen Prompt
			gate := NewGate(loop, DiscloserFunc(func(_ context.Context, p Prompt) (enforce.Ack, error) {
				seen = p
				return tt.answer, nil
			}))

			ack, err := gate.Disclose(context.Background(), errorViolation(), tt.allowContinue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ack)

			assert.Equal(t, check.KindRoot, seen.Kind)
			assert.Equal(t, "Root Access Detected", seen.Title)
			assert.Equal(t, "adb root shell", seen.Message)
			assert.Equal(t, policy.LevelError, seen.Level)
			assert.Equal(t, tt.allowContinue, seen.AllowContinue)
			assert.False(t, seen.Critical)
		})
	}
}

func TestGate_Timeout(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	gate := NewGate(loop, DiscloserFunc(func(ctx context.Context, _ Prompt) (enforce.Ack, error) {
		<-ctx.Done()
		return enforce.Ack{}, ctx.Err()
	}), WithTimeout(20*time.Millisecond))

	ack, err := gate.Disclose(context.Background(), errorViolation(), true)
	require.NoError(t, err)
	assert.True(t, ack.TimedOut)
	assert.False(t, ack.ContinueAnyway)
}

func TestGate_Close(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	started := make(chan struct{})
	gate := NewGate(loop, DiscloserFunc(func(ctx context.Context, _ Prompt) (enforce.Ack, error) {
		close(started)
		<-ctx.Done()
		return enforce.Ack{}, ctx.Err()
	}))

	errCh := make(chan error, 1)
	go func() {
		_, err := gate.Disclose(context.Background(), errorViolation(), true)
		errCh <- err
	}()

	<-started
	gate.Close()
	gate.Close()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrReleased)
	case <-time.After(time.Second):
		t.Fatal("disclosure was not released")
	}
}

func TestGate_DiscloserError(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	boom := errors.New("terminal gone")
	gate := NewGate(loop, DiscloserFunc(func(context.Context, Prompt) (enforce.Ack, error) {
		return enforce.Ack{}, boom
	}))

	_, err := gate.Disclose(context.Background(), errorViolation(), true)
	assert.ErrorIs(t, err, boom)
}

func TestGate_SerializesDisclosures(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	var active, peak int32
	gate := NewGate(loop, DiscloserFunc(func(context.Context, Prompt) (enforce.Ack, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return enforce.Ack{}, nil
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gate.Disclose(context.Background(), errorViolation(), true)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestGate_Do(t *testing.T) {
	loop := NewLoop()
	defer loop.Stop()

	gate := NewGate(loop, DiscloserFunc(func(context.Context, Prompt) (enforce.Ack, error) {
		return enforce.Ack{}, nil
	}))

	ran := false
	require.NoError(t, gate.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}
