// Package statemachine provides a generic finite-state machine.
//
// Transitions are declared once in an immutable Table keyed by comparable
// state and event types (typically string enums). Each entity then gets its
// own Machine positioned at its persisted state:
//
//	type Status string
//	type Event string
//
//	table := statemachine.MustNewTable(
//	    statemachine.WithTransition[Status, Event]("draft", "review", "submit"),
//	    statemachine.WithTransitionFromAny[Status, Event]("archived", "archive"),
//	)
//
//	m := table.Machine(Status(row.Status))
//	if err := m.Fire(ctx, "submit", nil); err != nil {
//	    // statemachine.IsNoTransition(err) or statemachine.IsRejected(err)
//	}
//	row.Status = string(m.Current())
//
// Guards veto a transition based on runtime data; Actions run after guards
// pass and before the state changes. When several transitions match a
// state/event pair, the first one whose guards pass wins; state-specific
// transitions take precedence over WithTransitionFromAny ones.
package statemachine
