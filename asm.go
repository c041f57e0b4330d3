// Package asm is an auto state machine: a declaratively configured finite state machine whose
// transitions run an ordered lifecycle of hook events and may suspend at any step.
//
// Every hook and condition returns a Result that is either settled or pending. A machine only
// spends a goroutine when a hook actually suspends, and it allows a single outstanding
// asynchronous transition at a time.
//
//	machine, err := asm.New(ctx, asm.Config{
//		State: "idle",
//		Graph: []asm.StateConfig{
//			{State: "idle", To: []asm.TransitionConfig{{State: "running", Condition: ready}}},
//			{State: "running"},
//		},
//	})
//	ok, err := machine.Waterfall().Wait()
package asm

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/stateforward/go-asm/async"
	"github.com/stateforward/go-asm/bus"
	"github.com/stateforward/go-asm/kinds"
	"github.com/stateforward/go-asm/pkg/set"
)

// Global lifecycle events, emitted for every transition.
const (
	BeforeEvent = "before"
	AfterEvent  = "after"
	EnterEvent  = "enter"
	LeaveEvent  = "leave"
)

// Result is the outcome of a hook, a condition or a machine operation.
type Result = async.Result[bool]

// Hook is a lifecycle handler or a transition condition. A hook fails by returning Fail; a
// condition allows its transition only when it settles to true.
type Hook func(ctx Context) Result

// Bus carries the lifecycle events of a machine.
type Bus = bus.Bus[Context]

func Sync(value bool) Result {
	return async.Ready(value)
}

func Fail(err error) Result {
	return async.Failed[bool](err)
}

// Async runs fn on its own goroutine and returns its pending result.
func Async(fn func() (bool, error)) Result {
	return async.Pending(async.Go(fn))
}

// Context is handed to every hook and condition. From and To are the states of the transition
// being evaluated or executed; To is nil when the target names no state.
type Context struct {
	context.Context
	*Machine
	From *State
	To   *State
}

// Trace is called at the start of a step with the elements involved and returns a function
// called with the outcome of the step once it settles: the value and the error for steps
// producing a Result, the error alone for "emit".
type Trace func(ctx context.Context, step string, elements ...Element) func(...any)

// Traces combines traces into one. Nil traces are skipped.
func Traces(traces ...Trace) Trace {
	traces = slices.DeleteFunc(slices.Clone(traces), func(trace Trace) bool {
		return trace == nil
	})
	switch len(traces) {
	case 0:
		return nil
	case 1:
		return traces[0]
	}
	return func(ctx context.Context, step string, elements ...Element) func(...any) {
		ends := make([]func(...any), 0, len(traces))
		for _, trace := range traces {
			if end := trace(ctx, step, elements...); end != nil {
				ends = append(ends, end)
			}
		}
		return func(args ...any) {
			for _, end := range slices.Backward(ends) {
				end(args...)
			}
		}
	}
}

type Option func(*Machine)

func WithLogger(logger *slog.Logger) Option {
	return func(machine *Machine) {
		if logger != nil {
			machine.logger = logger
		}
	}
}

func WithTrace(traces ...Trace) Option {
	return func(machine *Machine) {
		machine.trace = Traces(append([]Trace{machine.trace}, traces...)...)
	}
}

// WithStickyGuard keeps the pending guard set after an asynchronous transition fails, so the
// machine refuses every further transition.
func WithStickyGuard() Option {
	return func(machine *Machine) {
		machine.sticky = true
	}
}

func WithID(id string) Option {
	return func(machine *Machine) {
		machine.id = id
	}
}

// Machine is a running instance of a Config.
type Machine struct {
	ctx     context.Context
	id      string
	config  Config
	states  []*State
	bus     Bus
	logger  *slog.Logger
	trace   Trace
	sticky  bool
	current atomic.Pointer[State]
	guard   atomic.Pointer[async.Future[bool]]
}

// New normalizes config, enters its initial state and registers every hook with the bus.
func New(ctx context.Context, config Config, options ...Option) (*Machine, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	normalized := Normalize(config)
	machine := &Machine{
		ctx:    ctx,
		id:     uuid.NewString(),
		config: normalized,
		bus:    normalized.Event,
		logger: slog.Default(),
	}
	for _, option := range options {
		option(machine)
	}
	machine.states = make([]*State, 0, len(normalized.Graph))
	for _, state := range normalized.Graph {
		machine.states = append(machine.states, newState(state))
	}
	initial := machine.StateByName(normalized.State)
	if initial == nil {
		return nil, &ErrInitialStateNotFound{State: normalized.State}
	}
	machine.current.Store(initial)
	machine.register()
	return machine, nil
}

// MustNew is New that panics on error.
func MustNew(ctx context.Context, config Config, options ...Option) *Machine {
	machine, err := New(ctx, config, options...)
	if err != nil {
		slog.Error("asm: invalid config", "error", err)
		panic(err)
	}
	return machine
}

func (machine *Machine) register() {
	seen := set.New[string]()
	shared := set.New[string]()
	on := func(event string, hook Hook) {
		if seen.Add(event) == 0 {
			shared.Add(event)
		}
		machine.bus.On(event, bus.Handler[Context](hook))
	}
	on(BeforeEvent, machine.config.Before)
	on(AfterEvent, machine.config.After)
	on(EnterEvent, machine.config.Enter)
	on(LeaveEvent, machine.config.Leave)
	for _, state := range machine.states {
		on(state.enterEvent, state.enter)
		on(state.leaveEvent, state.leave)
		for _, transition := range state.transitions {
			on(transition.beforeEvent, transition.before)
			on(transition.afterEvent, transition.after)
		}
	}
	for event := range shared.Items() {
		machine.logger.Warn("asm: event shared by several hooks", "machine", machine.id, "event", event)
	}
}

func (machine *Machine) Kind() uint64 {
	return kinds.Machine
}

// Name is the instance id.
func (machine *Machine) Name() string {
	return machine.id
}

func (machine *Machine) ID() string {
	return machine.id
}

// Config returns the normalized config the machine was built from.
func (machine *Machine) Config() Config {
	return machine.config
}

// State returns the current state.
func (machine *Machine) State() *State {
	return machine.current.Load()
}

func (machine *Machine) Is(name string) bool {
	return machine.State().Name() == name
}

// IsPending reports whether an asynchronous transition has not settled yet.
func (machine *Machine) IsPending() bool {
	return machine.guard.Load() != nil
}

// Pending returns the outstanding asynchronous transition, or nil.
func (machine *Machine) Pending() *async.Future[bool] {
	return machine.guard.Load()
}

func (machine *Machine) AllStates() []*State {
	return slices.Clone(machine.states)
}

func (machine *Machine) AllStateNames() []string {
	names := make([]string, 0, len(machine.states))
	for _, state := range machine.states {
		names = append(names, state.name)
	}
	return names
}

func (machine *Machine) AllTransitions() []*Transition {
	var transitions []*Transition
	for _, state := range machine.states {
		transitions = append(transitions, state.transitions...)
	}
	return transitions
}

// NextTransitions returns the transitions leaving the current state.
func (machine *Machine) NextTransitions() []*Transition {
	return machine.State().Transitions()
}

func (machine *Machine) NextStateNames() []string {
	transitions := machine.State().transitions
	names := make([]string, 0, len(transitions))
	for _, transition := range transitions {
		names = append(names, transition.target)
	}
	return names
}

// NextStates resolves NextStateNames. It panics if a target names no state.
func (machine *Machine) NextStates() []*State {
	names := machine.NextStateNames()
	states := make([]*State, 0, len(names))
	for _, name := range names {
		state := machine.StateByName(name)
		if state == nil {
			machine.logger.Error("asm: state not found", "machine", machine.id, "from", machine.State().Name(), "to", name)
			panic(fmt.Errorf("state %s is not found in the config", name))
		}
		states = append(states, state)
	}
	return states
}

// StateByName returns the first state called name, or nil.
func (machine *Machine) StateByName(name string) *State {
	for _, state := range machine.states {
		if state.name == name {
			return state
		}
	}
	return nil
}

// MightGoTo reports whether a transition from the current state targets name. Conditions are
// not evaluated.
func (machine *Machine) MightGoTo(name string) bool {
	return machine.transitionTo(name) != nil
}

// CanGoTo evaluates the condition of the first transition from the current state to name.
func (machine *Machine) CanGoTo(name string) Result {
	transition := machine.transitionTo(name)
	if transition == nil {
		return Sync(false)
	}
	return machine.evaluate(transition)
}

// GoTo runs the transition from the current state to name when its condition allows it, or
// unconditionally when bypass is true.
func (machine *Machine) GoTo(name string, maybeBypass ...bool) Result {
	bypass := len(maybeBypass) > 0 && maybeBypass[0]
	transition := machine.transitionTo(name)
	end := machine.begin("GoTo", transition)
	return machine.finish(end, machine.goTo(transition, name, bypass))
}

// Step takes the first transition from the current state whose condition holds. It settles
// to false when none does.
func (machine *Machine) Step() Result {
	end := machine.begin("Step", machine.State())
	return machine.finish(end, machine.step(machine.NextTransitions(), 0))
}

// Waterfall steps until no condition holds and then settles to true. A graph whose conditions
// keep holding around a cycle never settles.
func (machine *Machine) Waterfall() Result {
	end := machine.begin("Waterfall", machine.State())
	return machine.finish(end, machine.waterfall())
}

func (machine *Machine) transitionTo(name string) *Transition {
	for _, transition := range machine.State().transitions {
		if transition.target == name {
			return transition
		}
	}
	return nil
}
