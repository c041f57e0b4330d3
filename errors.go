package asm

import (
	"errors"
	"fmt"
)

// ErrInitialStateNotFound is returned by New when the initial state names no state of the graph.
type ErrInitialStateNotFound struct {
	State string
}

func (e *ErrInitialStateNotFound) Error() string {
	return fmt.Sprintf("asm: initial state '%s' not found in graph", e.State)
}

// ErrTransitionPending is returned when a transition is requested while another one has not
// settled yet.
type ErrTransitionPending struct {
	Target string
}

func (e *ErrTransitionPending) Error() string {
	return fmt.Sprintf("asm: cannot go to '%s', another transition is pending", e.Target)
}

func IsInitialStateNotFoundError(err error) bool {
	var e *ErrInitialStateNotFound
	return errors.As(err, &e)
}

func IsTransitionPendingError(err error) bool {
	var e *ErrTransitionPending
	return errors.As(err, &e)
}
