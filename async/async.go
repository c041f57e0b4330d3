// Package async models values that are either available now or at some later point.
//
// A Future is a one-shot awaitable settled exactly once with a value or an error. A Result is a
// tagged outcome that is either already settled or pending on a Future, which lets callers take a
// fast synchronous path and only pay for a goroutine when something actually suspends.
package async

import (
	"context"
	"errors"
	"sync"
)

var ErrNilFuture = errors.New("async: nil future")

// Future represents the eventual result of a computation.
type Future[T any] struct {
	value T
	err   error
	once  sync.Once
	done  chan struct{}
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) settle(value T, err error) {
	f.once.Do(func() {
		f.value = value
		f.err = err
		close(f.done)
	})
}

// NewPromise returns an unsettled future together with the functions that settle it.
// Only the first call to either function has an effect.
func NewPromise[T any]() (*Future[T], func(T), func(error)) {
	f := newFuture[T]()
	resolve := func(value T) {
		f.settle(value, nil)
	}
	reject := func(err error) {
		var zero T
		f.settle(zero, err)
	}
	return f, resolve, reject
}

// Go runs fn on its own goroutine and returns a future for its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	go func() {
		value, err := fn()
		f.settle(value, err)
	}()
	return f
}

// Then returns a future settled with fn applied to the outcome of f, whether f succeeded or not.
func Then[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	return Go(func() (U, error) {
		return fn(f.Wait())
	})
}

// Wait blocks until the future settles.
func (f *Future[T]) Wait() (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFuture
	}
	<-f.done
	return f.value, f.err
}

// Await blocks until the future settles or ctx is done. Giving up on ctx does not stop the
// underlying computation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if f == nil {
		var zero T
		return zero, ErrNilFuture
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsComplete reports whether the future has settled without blocking.
func (f *Future[T]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
