package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/restokit/pkg/statemachine"
)

// transition carries the clock into guards and actions.
type transition struct {
	state     *State
	now       time.Time
	periodEnd *time.Time
}

// ApplyOption configures a single Apply call.
type ApplyOption func(*transition)

// WithPeriodEnd sets the end of the paid period reported by the billing provider.
// Transitions into active store it as the new EndsAt.
func WithPeriodEnd(end time.Time) ApplyOption {
	return func(tr *transition) {
		if end.IsZero() {
			return
		}
		e := end.UTC()
		tr.periodEnd = &e
	}
}

// Lifecycle applies events to subscription states using a shared transition table:
//
//	trialing  -> active    payment_succeeded, admin_confirmed
//	trialing  -> inactive  trial_expired (only after TrialEndsAt)
//	active    -> past_due  payment_failed
//	past_due  -> active    payment_succeeded
//	active    -> canceled  cancel
//	past_due  -> canceled  cancel
//	inactive  -> active    reactivate
//	canceled  -> active    reactivate
//	*         -> inactive  deactivate
type Lifecycle struct {
	table *statemachine.Table[Status, Event]
}

// NewLifecycle builds the subscription transition table.
func NewLifecycle() *Lifecycle {
	endTrial := statemachine.WithAction[Status, Event](clearTrial)
	cancel := statemachine.WithAction[Status, Event](markCanceled)
	restore := statemachine.WithAction[Status, Event](clearCanceled)
	renew := statemachine.WithAction[Status, Event](renewPeriod)

	table := statemachine.MustNewTable(
		statemachine.WithTransition(StatusTrialing, StatusActive, EventPaymentSucceeded, endTrial, renew),
		statemachine.WithTransition(StatusTrialing, StatusActive, EventAdminConfirmed, endTrial, renew),
		statemachine.WithTransition(StatusTrialing, StatusInactive, EventTrialExpired,
			statemachine.WithGuard[Status, Event](trialOver)),
		statemachine.WithTransition[Status, Event](StatusActive, StatusPastDue, EventPaymentFailed),
		statemachine.WithTransition(StatusPastDue, StatusActive, EventPaymentSucceeded, renew),
		statemachine.WithTransition(StatusActive, StatusCanceled, EventCancel, cancel),
		statemachine.WithTransition(StatusPastDue, StatusCanceled, EventCancel, cancel),
		statemachine.WithTransition(StatusInactive, StatusActive, EventReactivate, restore, renew),
		statemachine.WithTransition(StatusCanceled, StatusActive, EventReactivate, restore, renew),
		statemachine.WithTransitionFromAny[Status, Event](StatusInactive, EventDeactivate),
	)

	return &Lifecycle{table: table}
}

// Apply fires event against st and updates it in place. Illegal moves return
// ErrTransitionNotAllowed joined with the state machine error and leave st unchanged.
//
// Every transition into active renews the paid period: EndsAt becomes the
// period end passed with WithPeriodEnd, or is cleared when it already passed
// and no new end is known.
func (l *Lifecycle) Apply(ctx context.Context, st *State, event Event, now time.Time, opts ...ApplyOption) error {
	if st == nil {
		return errors.Join(ErrTransitionNotAllowed, errors.New("nil subscription state"))
	}
	if !st.Status.Valid() {
		return errors.Join(ErrTransitionNotAllowed, ErrUnknownStatus)
	}

	draft := *st
	tr := &transition{state: &draft, now: now.UTC()}
	for _, opt := range opts {
		opt(tr)
	}
	m := l.table.Machine(st.Status)
	if err := m.Fire(ctx, event, tr); err != nil {
		return errors.Join(ErrTransitionNotAllowed, err)
	}

	draft.Status = m.Current()
	draft.UpdatedAt = now.UTC()
	*st = draft
	return nil
}

// Can reports whether event is allowed for st at now.
func (l *Lifecycle) Can(ctx context.Context, st State, event Event, now time.Time) bool {
	draft := st
	return l.table.Machine(st.Status).CanFire(ctx, event, &transition{state: &draft, now: now.UTC()})
}

// Available lists the events allowed for st at now.
func (l *Lifecycle) Available(ctx context.Context, st State, now time.Time) []Event {
	draft := st
	return l.table.Machine(st.Status).Available(ctx, &transition{state: &draft, now: now.UTC()})
}

func trialOver(_ context.Context, _ Status, _ Event, data any) bool {
	tr, ok := data.(*transition)
	return ok && tr.state.TrialEndsAt != nil && !tr.now.Before(*tr.state.TrialEndsAt)
}

func clearTrial(_ context.Context, _, _ Status, _ Event, data any) error {
	if tr, ok := data.(*transition); ok {
		tr.state.TrialEndsAt = nil
	}
	return nil
}

func markCanceled(_ context.Context, _, _ Status, _ Event, data any) error {
	if tr, ok := data.(*transition); ok {
		now := tr.now
		tr.state.CanceledAt = &now
	}
	return nil
}

func clearCanceled(_ context.Context, _, _ Status, _ Event, data any) error {
	if tr, ok := data.(*transition); ok {
		tr.state.CanceledAt = nil
	}
	return nil
}

func renewPeriod(_ context.Context, _, _ Status, _ Event, data any) error {
	tr, ok := data.(*transition)
	if !ok {
		return nil
	}
	switch {
	case tr.periodEnd != nil:
		end := *tr.periodEnd
		tr.state.EndsAt = &end
	case tr.state.IsPeriodEndedAt(tr.now):
		tr.state.EndsAt = nil
	}
	return nil
}
