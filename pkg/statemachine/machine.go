package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine tracks the current state of one entity against a shared Table.
// It is safe for concurrent use.
type Machine[S, E comparable] struct {
	table   *Table[S, E]
	initial S
	mu      sync.RWMutex
	current S
}

// Current returns the current state.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Fire triggers event. The first candidate transition whose guards pass wins;
// its actions run in order and any failure aborts the transition.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	candidates := m.table.candidates(m.current, event)
	if len(candidates) == 0 {
		return newNoTransitionError(m.current, event)
	}

	var chosen *Transition[S, E]
	for i := range candidates {
		if candidates[i].allowed(ctx, m.current, event, data) {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return newRejectedError(m.current, event)
	}

	for _, action := range chosen.Actions {
		if err := action(ctx, m.current, chosen.To, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = chosen.To
	return nil
}

// CanFire reports whether Fire would find an allowed transition. Actions are not run.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, tr := range m.table.candidates(m.current, event) {
		if tr.allowed(ctx, m.current, event, data) {
			return true
		}
	}
	return false
}

// Available returns the events that can fire from the current state.
func (m *Machine[S, E]) Available(ctx context.Context, data any) []E {
	out := make([]E, 0)
	for _, event := range m.table.Events() {
		if m.CanFire(ctx, event, data) {
			out = append(out, event)
		}
	}
	return out
}

// Reset moves the machine back to its initial state.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
}
