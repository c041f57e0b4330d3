package async

import "context"

// Result is either settled (a value or an error) or pending on a Future.
type Result[T any] struct {
	value   T
	err     error
	future  *Future[T]
	pending bool
}

func Ready[T any](value T) Result[T] {
	return Result[T]{value: value}
}

func Failed[T any](err error) Result[T] {
	return Result[T]{err: err}
}

func Pending[T any](future *Future[T]) Result[T] {
	return Result[T]{future: future, pending: true}
}

// IsPending reports whether the result still has to be awaited.
func (r Result[T]) IsPending() bool {
	return r.pending
}

// Future returns the future behind a pending result, or nil for a settled one.
func (r Result[T]) Future() *Future[T] {
	return r.future
}

// Get returns the settled value and error. For a pending result it returns the zero value and
// a nil error without blocking; use Wait or Await instead.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Wait returns the outcome, blocking if the result is pending.
func (r Result[T]) Wait() (T, error) {
	if !r.pending {
		return r.value, r.err
	}
	return r.future.Wait()
}

// Await is Wait bounded by ctx.
func (r Result[T]) Await(ctx context.Context) (T, error) {
	if !r.pending {
		return r.value, r.err
	}
	return r.future.Await(ctx)
}

// Map applies fn to the outcome. Settled results are transformed in place; pending ones are
// chained onto a new future.
func Map[T, U any](r Result[T], fn func(T, error) (U, error)) Result[U] {
	if !r.pending {
		value, err := fn(r.value, r.err)
		if err != nil {
			return Failed[U](err)
		}
		return Ready(value)
	}
	return Pending(Then(r.future, fn))
}
