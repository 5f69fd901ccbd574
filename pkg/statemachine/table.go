package statemachine

import (
	"fmt"
	"slices"
)

// Table is an immutable set of transitions shared by many machines.
// Build it once at startup and create a Machine per entity.
type Table[S, E comparable] struct {
	transitions map[S]map[E][]Transition[S, E]
	wildcard    map[E][]Transition[S, E]
	events      []E // declaration order
}

// Option configures a Table during construction.
type Option[S, E comparable] func(*Table[S, E]) error

// TransitionOption configures a single transition.
type TransitionOption[S, E comparable] func(*Transition[S, E])

// NewTable builds a transition table from options.
func NewTable[S, E comparable](opts ...Option[S, E]) (*Table[S, E], error) {
	t := &Table[S, E]{
		transitions: make(map[S]map[E][]Transition[S, E]),
		wildcard:    make(map[E][]Transition[S, E]),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// MustNewTable is like NewTable but panics on error.
// Transition tables are static configuration, so a broken one should stop startup.
func MustNewTable[S, E comparable](opts ...Option[S, E]) *Table[S, E] {
	t, err := NewTable(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build transition table: %v", err))
	}
	return t
}

// WithTransition adds a transition from one state to another.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(t *Table[S, E]) error {
		tr := Transition[S, E]{From: from, To: to, Event: event}
		for _, opt := range opts {
			opt(&tr)
		}
		return t.add(tr)
	}
}

// WithTransitionFromAny adds a transition that fires from every state.
// State-specific transitions for the same event take precedence.
func WithTransitionFromAny[S, E comparable](to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(t *Table[S, E]) error {
		tr := Transition[S, E]{To: to, Event: event, FromAny: true}
		for _, opt := range opts {
			opt(&tr)
		}
		return t.add(tr)
	}
}

// WithGuard adds a guard to a transition. Nil guards are ignored.
func WithGuard[S, E comparable](guard Guard[S, E]) TransitionOption[S, E] {
	return func(tr *Transition[S, E]) {
		if guard != nil {
			tr.Guards = append(tr.Guards, guard)
		}
	}
}

// WithAction adds an action to a transition. Nil actions are ignored.
func WithAction[S, E comparable](action Action[S, E]) TransitionOption[S, E] {
	return func(tr *Transition[S, E]) {
		if action != nil {
			tr.Actions = append(tr.Actions, action)
		}
	}
}

func (t *Table[S, E]) add(tr Transition[S, E]) error {
	var zeroS S
	var zeroE E
	if tr.To == zeroS || tr.Event == zeroE || (!tr.FromAny && tr.From == zeroS) {
		return fmt.Errorf("%w: %v -> %v on %v", ErrInvalidTransition, tr.From, tr.To, tr.Event)
	}

	if !slices.Contains(t.events, tr.Event) {
		t.events = append(t.events, tr.Event)
	}

	if tr.FromAny {
		t.wildcard[tr.Event] = append(t.wildcard[tr.Event], tr)
		return nil
	}

	if _, ok := t.transitions[tr.From]; !ok {
		t.transitions[tr.From] = make(map[E][]Transition[S, E])
	}
	// Multiple transitions for the same from/event support guard-based branching.
	t.transitions[tr.From][tr.Event] = append(t.transitions[tr.From][tr.Event], tr)
	return nil
}

// candidates returns the transitions for from/event in priority order:
// state-specific first, then wildcard.
func (t *Table[S, E]) candidates(from S, event E) []Transition[S, E] {
	specific := t.transitions[from][event]
	wildcard := t.wildcard[event]
	if len(wildcard) == 0 {
		return specific
	}
	out := make([]Transition[S, E], 0, len(specific)+len(wildcard))
	out = append(out, specific...)
	return append(out, wildcard...)
}

// Events returns every declared event in declaration order.
func (t *Table[S, E]) Events() []E {
	return slices.Clone(t.events)
}

// Machine creates a machine positioned at initial.
func (t *Table[S, E]) Machine(initial S) *Machine[S, E] {
	return &Machine[S, E]{table: t, initial: initial, current: initial}
}
