package asm

import (
	"github.com/stateforward/go-asm/async"
	"github.com/stateforward/go-asm/bus"
	"github.com/stateforward/go-asm/kinds"
)

// entering is the lifecycle position at which the current state switches to the target.
const entering = 4

func (machine *Machine) bind(from, to *State) Context {
	return Context{
		Context: machine.ctx,
		Machine: machine,
		From:    from,
		To:      to,
	}
}

func (machine *Machine) begin(step string, elements ...Element) func(...any) {
	if machine.trace == nil {
		return nil
	}
	traced := make([]Element, 0, len(elements)+1)
	traced = append(traced, machine)
	for _, element := range elements {
		switch element := element.(type) {
		case *State:
			if element == nil {
				continue
			}
		case *Transition:
			if element == nil {
				continue
			}
		}
		traced = append(traced, element)
	}
	return machine.trace(machine.ctx, step, traced...)
}

// finish reports the outcome of result to end, once result has settled.
func (machine *Machine) finish(end func(...any), result Result) Result {
	if end == nil {
		return result
	}
	if !result.IsPending() {
		value, err := result.Get()
		end(value, err)
		return result
	}
	return async.Map(result, func(value bool, err error) (bool, error) {
		end(value, err)
		return value, err
	})
}

// evaluate calls the condition of transition. The outcome is true only for a condition that
// settles to true without an error.
func (machine *Machine) evaluate(transition *Transition) Result {
	end := machine.begin("evaluate", transition)
	result := transition.condition(machine.bind(machine.State(), machine.StateByName(transition.target)))
	return machine.finish(end, async.Map(result, func(value bool, err error) (bool, error) {
		return value && err == nil, err
	}))
}

func (machine *Machine) goTo(transition *Transition, name string, bypass bool) Result {
	if transition == nil {
		return Sync(false)
	}
	if bypass {
		return machine.execute(name)
	}
	condition := machine.evaluate(transition)
	if condition.IsPending() {
		return async.Pending(async.Go(func() (bool, error) {
			ok, err := condition.Wait()
			if err != nil || !ok {
				return false, err
			}
			return machine.execute(name).Wait()
		}))
	}
	ok, err := condition.Get()
	if err != nil {
		return Fail(err)
	}
	if !ok {
		return Sync(false)
	}
	return machine.execute(name)
}

// execute runs the lifecycle of the transition from the current state to name, resolved at
// call time. A transition or target that cannot be resolved settles to false.
func (machine *Machine) execute(name string) Result {
	transition := machine.transitionTo(name)
	if transition == nil {
		return Sync(false)
	}
	target := machine.StateByName(name)
	if target == nil {
		return Sync(false)
	}
	if machine.IsPending() {
		return Fail(&ErrTransitionPending{Target: name})
	}
	source := machine.State()
	end := machine.begin("transition", transition)
	machine.logger.Debug("asm: transition", "machine", machine.id, "from", source.name, "to", target.name)

	events := []event{
		{kind: kinds.GlobalEvent, name: BeforeEvent},
		{kind: kinds.TransitionEvent, name: transition.beforeEvent},
		{kind: kinds.StateEvent, name: source.leaveEvent},
		{kind: kinds.GlobalEvent, name: LeaveEvent},
		{kind: kinds.GlobalEvent, name: EnterEvent},
		{kind: kinds.StateEvent, name: target.enterEvent},
		{kind: kinds.TransitionEvent, name: transition.afterEvent},
		{kind: kinds.GlobalEvent, name: AfterEvent},
	}
	result := machine.lifecycle(events, machine.bind(source, target), 0)
	if !result.IsPending() {
		machine.settled(source, target, result)
		return machine.finish(end, result)
	}

	future, resolve, reject := async.NewPromise[bool]()
	machine.guard.Store(future)
	go func() {
		value, err := result.Wait()
		if err == nil || !machine.sticky {
			machine.guard.CompareAndSwap(future, nil)
		}
		machine.settled(source, target, result)
		if err != nil {
			reject(err)
			return
		}
		resolve(value)
	}()
	return machine.finish(end, async.Pending(future))
}

func (machine *Machine) settled(source, target *State, result Result) {
	if _, err := result.Wait(); err != nil {
		machine.logger.Debug("asm: transition failed", "machine", machine.id, "from", source.name, "to", target.name, "error", err)
		return
	}
	machine.logger.Debug("asm: transition settled", "machine", machine.id, "from", source.name, "to", target.name)
}

// lifecycle emits events[index:] one at a time. The remainder of the sequence runs on a new
// goroutine once an emission turns out to be pending.
func (machine *Machine) lifecycle(events []event, ctx Context, index int) Result {
	for ; index < len(events); index++ {
		if index == entering {
			machine.current.Store(ctx.To)
		}
		emission := machine.emit(events[index], ctx)
		if emission.IsImmediate() {
			if err := emission.Err(); err != nil {
				return Fail(err)
			}
			continue
		}
		next := index + 1
		return async.Pending(async.Go(func() (bool, error) {
			if err := emission.Wait(); err != nil {
				return false, err
			}
			return machine.lifecycle(events, ctx, next).Wait()
		}))
	}
	return Sync(true)
}

func (machine *Machine) emit(step event, ctx Context) bus.Emission {
	end := machine.begin("emit", step)
	emission := machine.bus.Emit(step.name, ctx)
	if end == nil {
		return emission
	}
	if emission.IsImmediate() {
		end(emission.Err())
		return emission
	}
	return bus.Pending(async.Then(emission.Future(), func(value struct{}, err error) (struct{}, error) {
		end(err)
		return value, err
	}))
}

func (machine *Machine) step(transitions []*Transition, index int) Result {
	for ; index < len(transitions); index++ {
		transition := transitions[index]
		condition := machine.evaluate(transition)
		if condition.IsPending() {
			next := index + 1
			return async.Pending(async.Go(func() (bool, error) {
				ok, err := condition.Wait()
				if err != nil {
					return false, err
				}
				if ok {
					return machine.GoTo(transition.target, true).Wait()
				}
				return machine.step(transitions, next).Wait()
			}))
		}
		ok, err := condition.Get()
		if err != nil {
			return Fail(err)
		}
		if ok {
			return machine.GoTo(transition.target, true)
		}
	}
	return Sync(false)
}

func (machine *Machine) waterfall() Result {
	for {
		result := machine.Step()
		if result.IsPending() {
			return async.Pending(async.Go(func() (bool, error) {
				return machine.drain(result)
			}))
		}
		ok, err := result.Get()
		if err != nil {
			return Fail(err)
		}
		if !ok {
			return Sync(true)
		}
	}
}

func (machine *Machine) drain(result Result) (bool, error) {
	for {
		ok, err := result.Wait()
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		result = machine.Step()
	}
}
