package statemachine

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid transition: from, to, or event cannot be empty")

// NoTransitionError indicates no transition exists for the given state/event combination.
type NoTransitionError struct {
	State string
	Event string
}

func (e *NoTransitionError) Error() string {
	return fmt.Sprintf("no transition available from state '%s' for event '%s'", e.State, e.Event)
}

func newNoTransitionError(state, event any) *NoTransitionError {
	return &NoTransitionError{State: fmt.Sprint(state), Event: fmt.Sprint(event)}
}

// RejectedError indicates every candidate transition was blocked by its guards.
type RejectedError struct {
	State string
	Event string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("transition from state '%s' for event '%s' was rejected by guards", e.State, e.Event)
}

func newRejectedError(state, event any) *RejectedError {
	return &RejectedError{State: fmt.Sprint(state), Event: fmt.Sprint(event)}
}

func IsNoTransition(err error) bool {
	var e *NoTransitionError
	return errors.As(err, &e)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
