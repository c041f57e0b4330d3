// Package bus is the publish/subscribe collaborator the state machine drives its lifecycle
// through. Handlers are kept per event in registration order; emitting an event reports whether
// every handler finished synchronously or hands back a future that settles once they all have.
package bus

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stateforward/go-asm/async"
)

// Handler receives the emission arguments and returns a settled or pending outcome. The
// boolean value is ignored by the bus; only errors matter.
type Handler[A any] func(args A) async.Result[bool]

// Bus is the contract consumed by the machine.
type Bus[A any] interface {
	// On appends handler to the ordered handler list of event. Registering the same handler
	// twice adds it twice.
	On(event string, handler Handler[A])
	// Emit invokes every handler registered for event, in order.
	Emit(event string, args A) Emission
}

// Emission is the outcome of Emit: immediate (every handler returned a settled result) or
// pending on a future that settles once all asynchronous handlers have.
type Emission struct {
	err     error
	pending *async.Future[struct{}]
}

func Immediate(err error) Emission {
	return Emission{err: err}
}

func Pending(future *async.Future[struct{}]) Emission {
	return Emission{pending: future}
}

// IsImmediate reports whether every handler completed synchronously.
func (e Emission) IsImmediate() bool {
	return e.pending == nil
}

// Err is the synchronous failure of an immediate emission.
func (e Emission) Err() error {
	return e.err
}

// Future returns the completion future of a pending emission, nil otherwise.
func (e Emission) Future() *async.Future[struct{}] {
	return e.pending
}

// Wait blocks until every handler has settled and returns the first failure.
func (e Emission) Wait() error {
	if e.pending == nil {
		return e.err
	}
	_, err := e.pending.Wait()
	return err
}

// Memory is an in-process Bus. It is safe for concurrent use.
type Memory[A any] struct {
	mu       sync.RWMutex
	handlers map[string][]Handler[A]
}

func NewMemory[A any]() *Memory[A] {
	return &Memory[A]{handlers: make(map[string][]Handler[A])}
}

func (b *Memory[A]) On(event string, handler Handler[A]) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	b.handlers[event] = append(b.handlers[event], handler)
	b.mu.Unlock()
}

// Handlers returns the number of handlers registered for event.
func (b *Memory[A]) Handlers(event string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Emit runs handlers in registration order on the calling goroutine. A handler that fails
// synchronously stops the emission; handlers that returned pending results before it are left to
// settle on their own. When at least one handler is pending the emission settles after all of
// them have, with the first failure observed.
func (b *Memory[A]) Emit(event string, args A) Emission {
	b.mu.RLock()
	handlers := append([]Handler[A](nil), b.handlers[event]...)
	b.mu.RUnlock()

	var pending []*async.Future[bool]
	for _, handler := range handlers {
		result := handler(args)
		if result.IsPending() {
			pending = append(pending, result.Future())
			continue
		}
		if _, err := result.Get(); err != nil {
			return Immediate(err)
		}
	}
	if len(pending) == 0 {
		return Immediate(nil)
	}
	return Pending(async.Go(func() (struct{}, error) {
		var group errgroup.Group
		for _, future := range pending {
			group.Go(func() error {
				_, err := future.Wait()
				return err
			})
		}
		return struct{}{}, group.Wait()
	}))
}

var _ Bus[struct{}] = (*Memory[struct{}])(nil)
