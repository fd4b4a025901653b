// Copyright (c) 2025 BVK Chaitanya

package chatcmd

import (
	"context"
	"fmt"
)

// Promise holds a value that is available now or after a suspension
// point. Synchronous entry points return promises that are already
// settled; asynchronous entry points settle them from a separate
// goroutine. A promise settles exactly once and never changes after
// settling.
type Promise[T any] struct {
	done chan struct{}

	value T
	err   error
}

// settled returns an already-settled promise.
func settled[T any](v T, err error) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{}), value: v, err: err}
	close(p.done)
	return p
}

// spawn settles the promise with fn's result from a new goroutine. A
// panic inside fn settles the promise with an error.
func spawn[T any](fn func() (T, error)) *Promise[T] {
	p := &Promise[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer func() {
			if r := recover(); r != nil {
				p.err = fmt.Errorf("panic: %v", r)
			}
		}()
		p.value, p.err = fn()
	}()
	return p
}

// promised runs fn inline or in a goroutine based on the async mode.
func promised[T any](async bool, fn func() (T, error)) *Promise[T] {
	if async {
		return spawn(fn)
	}
	return settled(fn())
}

// Done returns a channel that is closed when the promise settles.
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// Settled reports whether the promise has settled. A promise returned
// from a synchronous entry point is always settled.
func (p *Promise[T]) Settled() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the promise settles or the context expires. An
// early context expiry abandons the wait, but the in-flight operation
// still runs to completion; there is no cancellation.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, context.Cause(ctx)
	}
}
