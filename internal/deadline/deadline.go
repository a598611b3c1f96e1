// Package deadline runs a cancellable operation against a timer.
package deadline

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when the deadline fires before the operation settles.
var ErrTimeout = errors.New("deadline: operation timed out")

type result[T any] struct {
	val T
	err error
}

// Do runs fn with a context that is cancelled after d or when ctx ends,
// whichever comes first. If fn has not returned by then, Do returns
// ErrTimeout (or ctx.Err() when the parent was cancelled) and fn's context is
// already cancelled, so the abandoned call stops as soon as it honours ctx.
// A non-positive d disables the timer.
func Do[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var cancel context.CancelFunc
	if d > 0 {
		ctx, cancel = context.WithTimeout(ctx, d)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- result[T]{val: v, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
