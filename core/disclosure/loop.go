// Package disclosure presents violations to the user one at a time on a
// single UI-affine execution context.
package disclosure

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrLoopClosed is returned when work is posted to a stopped Loop.
var ErrLoopClosed = errors.New("ui loop closed")

// Loop is a single goroutine that runs posted tasks in FIFO order. Everything
// that touches user facing state or the process lifecycle runs here.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop starts a Loop.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func()),
		done:  make(chan struct{}),
	}

	go l.run()

	return l
}

func (l *Loop) run() {
	for {
		select {
		case <-l.done:
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Post schedules fn on the loop and waits for it to return. It gives up
// waiting when ctx is done; fn may still be running in that case.
func (l *Loop) Post(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		defer func() {
			// A panicking task must not kill the loop.
			_ = recover()
		}()
		fn()
	}

	select {
	case <-l.done:
		return ErrLoopClosed
	case <-ctx.Done():
		return ctx.Err()
	case l.tasks <- task:
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// Call runs fn on the loop and returns its value.
func Call[T any](ctx context.Context, l *Loop, fn func() (T, error)) (T, error) {
	var (
		out  T
		ferr error
	)

	err := l.Post(ctx, func() {
		defer func() {
			if r := recover(); r != nil {
				ferr = fmt.Errorf("ui task panicked: %v", r)
			}
		}()
		out, ferr = fn()
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("ui loop: %w", err)
	}

	return out, ferr
}

// Stop ends the loop. A task that is already running is not interrupted but
// nothing new is started.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
