package asm

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stateforward/go-asm/bus"
	"github.com/stateforward/go-asm/kinds"
)

/******* Config *******/

// Config declares a machine. Every hook and event name is optional; Normalize fills them in.
type Config struct {
	// State is the name of the initial state.
	State string
	// Event is the bus hooks are registered on. A new in-memory bus is used when nil.
	Event Bus
	// Global hooks, fired for every transition.
	Before Hook
	After  Hook
	Enter  Hook
	Leave  Hook
	Graph  []StateConfig
}

type StateConfig struct {
	State      string
	Enter      Hook
	Leave      Hook
	EnterEvent string
	LeaveEvent string
	// To lists the outgoing transitions. Order decides which transition Step takes first.
	To []TransitionConfig
}

type TransitionConfig struct {
	// State is the target state name. It is resolved when the transition is attempted, so it
	// may name a state declared later or not at all.
	State       string
	Condition   Hook
	Before      Hook
	After       Hook
	BeforeEvent string
	AfterEvent  string
}

func defaultHook(Context) Result {
	return Sync(true)
}

func defaultCondition(Context) Result {
	return Sync(false)
}

// Normalize returns a copy of config with every optional field populated. Normalizing an
// already normalized config returns an equivalent config.
func Normalize(config Config) Config {
	normalized := Config{
		State:  config.State,
		Event:  config.Event,
		Before: hookOr(config.Before, defaultHook),
		After:  hookOr(config.After, defaultHook),
		Enter:  hookOr(config.Enter, defaultHook),
		Leave:  hookOr(config.Leave, defaultHook),
		Graph:  make([]StateConfig, 0, len(config.Graph)),
	}
	if normalized.Event == nil {
		normalized.Event = bus.NewMemory[Context]()
	}
	for _, state := range config.Graph {
		normalized.Graph = append(normalized.Graph, normalizeState(state))
	}
	return normalized
}

func normalizeState(state StateConfig) StateConfig {
	normalized := StateConfig{
		State:      state.State,
		Enter:      hookOr(state.Enter, defaultHook),
		Leave:      hookOr(state.Leave, defaultHook),
		EnterEvent: nameOr(state.EnterEvent, EnterEvent+UpperCamel(state.State)),
		LeaveEvent: nameOr(state.LeaveEvent, LeaveEvent+UpperCamel(state.State)),
		To:         make([]TransitionConfig, 0, len(state.To)),
	}
	for _, transition := range state.To {
		normalized.To = append(normalized.To, normalizeTransition(state.State, transition))
	}
	return normalized
}

func normalizeTransition(from string, transition TransitionConfig) TransitionConfig {
	edge := UpperCamel(from) + "To" + UpperCamel(transition.State)
	return TransitionConfig{
		State:       transition.State,
		Condition:   hookOr(transition.Condition, defaultCondition),
		Before:      hookOr(transition.Before, defaultHook),
		After:       hookOr(transition.After, defaultHook),
		BeforeEvent: nameOr(transition.BeforeEvent, BeforeEvent+edge),
		AfterEvent:  nameOr(transition.AfterEvent, AfterEvent+edge),
	}
}

func hookOr(hook, fallback Hook) Hook {
	if hook == nil {
		return fallback
	}
	return hook
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// UpperCamel splits label on '_' and '-', upper-cases the first letter of every word and joins
// the words back together: "wait_for-input" becomes "WaitForInput".
func UpperCamel(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return r == '_' || r == '-'
	})
	var builder strings.Builder
	builder.Grow(len(label))
	for _, word := range words {
		first, size := utf8.DecodeRuneInString(word)
		builder.WriteRune(unicode.ToUpper(first))
		builder.WriteString(word[size:])
	}
	return builder.String()
}

/******* Elements *******/

// Element is anything a Trace can be told about.
type Element interface {
	Kind() uint64
	Name() string
}

// State is a normalized, immutable state of the graph.
type State struct {
	name        string
	enter       Hook
	leave       Hook
	enterEvent  string
	leaveEvent  string
	transitions []*Transition
}

func newState(config StateConfig) *State {
	state := &State{
		name:       config.State,
		enter:      config.Enter,
		leave:      config.Leave,
		enterEvent: config.EnterEvent,
		leaveEvent: config.LeaveEvent,
	}
	for _, transition := range config.To {
		state.transitions = append(state.transitions, &Transition{
			source:      config.State,
			target:      transition.State,
			condition:   transition.Condition,
			before:      transition.Before,
			after:       transition.After,
			beforeEvent: transition.BeforeEvent,
			afterEvent:  transition.AfterEvent,
		})
	}
	return state
}

func (state *State) Kind() uint64 {
	return kinds.State
}

func (state *State) Name() string {
	if state == nil {
		return ""
	}
	return state.name
}

func (state *State) EnterEvent() string {
	return state.enterEvent
}

func (state *State) LeaveEvent() string {
	return state.leaveEvent
}

// Transitions returns the outgoing transitions in declaration order.
func (state *State) Transitions() []*Transition {
	return slices.Clone(state.transitions)
}

// Transition is a normalized, immutable edge of the graph.
type Transition struct {
	source      string
	target      string
	condition   Hook
	before      Hook
	after       Hook
	beforeEvent string
	afterEvent  string
}

func (transition *Transition) Kind() uint64 {
	return kinds.Transition
}

// Name is "source->target".
func (transition *Transition) Name() string {
	return transition.source + "->" + transition.target
}

func (transition *Transition) Source() string {
	return transition.source
}

func (transition *Transition) Target() string {
	return transition.target
}

func (transition *Transition) BeforeEvent() string {
	return transition.beforeEvent
}

func (transition *Transition) AfterEvent() string {
	return transition.afterEvent
}

// event is a lifecycle step as seen by a Trace.
type event struct {
	kind uint64
	name string
}

func (event event) Kind() uint64 {
	return event.kind
}

func (event event) Name() string {
	return event.name
}
