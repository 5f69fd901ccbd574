package subscription_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/statemachine"
	"github.com/dmitrymomot/restokit/pkg/subscription"
)

func TestLifecycle_Transitions(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()

	tests := []struct {
		name  string
		from  subscription.Status
		event subscription.Event
		want  subscription.Status
	}{
		{"first payment", subscription.StatusTrialing, subscription.EventPaymentSucceeded, subscription.StatusActive},
		{"admin confirmation", subscription.StatusTrialing, subscription.EventAdminConfirmed, subscription.StatusActive},
		{"payment failure", subscription.StatusActive, subscription.EventPaymentFailed, subscription.StatusPastDue},
		{"retry succeeds", subscription.StatusPastDue, subscription.EventPaymentSucceeded, subscription.StatusActive},
		{"cancel active", subscription.StatusActive, subscription.EventCancel, subscription.StatusCanceled},
		{"cancel past due", subscription.StatusPastDue, subscription.EventCancel, subscription.StatusCanceled},
		{"deactivate trialing", subscription.StatusTrialing, subscription.EventDeactivate, subscription.StatusInactive},
		{"deactivate active", subscription.StatusActive, subscription.EventDeactivate, subscription.StatusInactive},
		{"deactivate canceled", subscription.StatusCanceled, subscription.EventDeactivate, subscription.StatusInactive},
		{"deactivate inactive", subscription.StatusInactive, subscription.EventDeactivate, subscription.StatusInactive},
		{"reactivate inactive", subscription.StatusInactive, subscription.EventReactivate, subscription.StatusActive},
		{"reactivate canceled", subscription.StatusCanceled, subscription.EventReactivate, subscription.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			st := subscription.State{Status: tt.from}
			require.NoError(t, lc.Apply(context.Background(), &st, tt.event, now))
			assert.Equal(t, tt.want, st.Status)
			assert.Equal(t, now, st.UpdatedAt)
		})
	}
}

func TestLifecycle_IllegalTransitions(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()

	tests := []struct {
		from  subscription.Status
		event subscription.Event
	}{
		{subscription.StatusTrialing, subscription.EventCancel},
		{subscription.StatusActive, subscription.EventAdminConfirmed},
		{subscription.StatusCanceled, subscription.EventPaymentSucceeded},
		{subscription.StatusInactive, subscription.EventPaymentFailed},
		{subscription.StatusActive, subscription.EventReactivate},
	}

	for _, tt := range tests {
		st := subscription.State{Status: tt.from}
		err := lc.Apply(context.Background(), &st, tt.event, now)
		require.Error(t, err, "%s on %s", tt.event, tt.from)
		assert.ErrorIs(t, err, subscription.ErrTransitionNotAllowed)
		assert.True(t, statemachine.IsNoTransition(err))
		assert.Equal(t, tt.from, st.Status, "state unchanged")
	}
}

func TestLifecycle_TrialExpiry(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()
	ctx := context.Background()

	t.Run("rejected while trial runs", func(t *testing.T) {
		t.Parallel()
		st := subscription.NewTrial(now, now.AddDate(0, 0, 7))
		assert.False(t, lc.Can(ctx, st, subscription.EventTrialExpired, now))

		err := lc.Apply(ctx, &st, subscription.EventTrialExpired, now)
		require.Error(t, err)
		assert.True(t, statemachine.IsRejected(err))
		assert.Equal(t, subscription.StatusTrialing, st.Status)
	})

	t.Run("allowed after trial end", func(t *testing.T) {
		t.Parallel()
		st := subscription.NewTrial(now.AddDate(0, 0, -14), now.Add(-time.Minute))
		require.NoError(t, lc.Apply(ctx, &st, subscription.EventTrialExpired, now))
		assert.Equal(t, subscription.StatusInactive, st.Status)
		assert.ErrorIs(t, st.Access(now), subscription.ErrSubscriptionInactive)
	})
}

func TestLifecycle_SideEffects(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()
	ctx := context.Background()

	st := subscription.NewTrial(now, now.AddDate(0, 0, 7))
	require.NoError(t, lc.Apply(ctx, &st, subscription.EventPaymentSucceeded, now))
	assert.Nil(t, st.TrialEndsAt, "trial cleared on activation")

	require.NoError(t, lc.Apply(ctx, &st, subscription.EventCancel, now))
	require.NotNil(t, st.CanceledAt)
	assert.Equal(t, now, *st.CanceledAt)

	require.NoError(t, lc.Apply(ctx, &st, subscription.EventReactivate, now.Add(time.Hour)))
	assert.Nil(t, st.CanceledAt)
	assert.Equal(t, subscription.StatusActive, st.Status)
}

func TestLifecycle_PeriodRenewal(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()
	ctx := context.Background()
	nextEnd := now.AddDate(0, 1, 0)

	t.Run("retry after period end takes reported end", func(t *testing.T) {
		t.Parallel()
		st := subscription.State{Status: subscription.StatusPastDue, EndsAt: ptr(now.Add(-time.Hour))}
		require.ErrorIs(t, st.Access(now), subscription.ErrSubscriptionExpired)

		require.NoError(t, lc.Apply(ctx, &st, subscription.EventPaymentSucceeded, now, subscription.WithPeriodEnd(nextEnd)))
		assert.Equal(t, subscription.StatusActive, st.Status)
		require.NotNil(t, st.EndsAt)
		assert.Equal(t, nextEnd, *st.EndsAt)
		assert.NoError(t, st.Access(now))
	})

	t.Run("retry after period end without reported end", func(t *testing.T) {
		t.Parallel()
		st := subscription.State{Status: subscription.StatusPastDue, EndsAt: ptr(now.Add(-time.Hour))}

		require.NoError(t, lc.Apply(ctx, &st, subscription.EventPaymentSucceeded, now))
		assert.Nil(t, st.EndsAt, "stale period end cleared")
		assert.NoError(t, st.Access(now))
	})

	t.Run("running period kept without reported end", func(t *testing.T) {
		t.Parallel()
		end := now.Add(48 * time.Hour)
		st := subscription.State{Status: subscription.StatusPastDue, EndsAt: ptr(end)}

		require.NoError(t, lc.Apply(ctx, &st, subscription.EventPaymentSucceeded, now))
		require.NotNil(t, st.EndsAt)
		assert.Equal(t, end, *st.EndsAt)
	})

	t.Run("reactivation renews period", func(t *testing.T) {
		t.Parallel()
		st := subscription.State{Status: subscription.StatusCanceled, EndsAt: ptr(now.AddDate(0, -1, 0))}

		require.NoError(t, lc.Apply(ctx, &st, subscription.EventReactivate, now, subscription.WithPeriodEnd(nextEnd)))
		require.NotNil(t, st.EndsAt)
		assert.Equal(t, nextEnd, *st.EndsAt)
	})

	t.Run("failed move leaves period untouched", func(t *testing.T) {
		t.Parallel()
		end := now.Add(-time.Hour)
		st := subscription.State{Status: subscription.StatusInactive, EndsAt: ptr(end)}

		err := lc.Apply(ctx, &st, subscription.EventPaymentSucceeded, now, subscription.WithPeriodEnd(nextEnd))
		assert.ErrorIs(t, err, subscription.ErrTransitionNotAllowed)
		assert.Equal(t, end, *st.EndsAt)
	})
}

func TestLifecycle_Available(t *testing.T) {
	t.Parallel()

	lc := subscription.NewLifecycle()
	got := lc.Available(context.Background(), subscription.State{Status: subscription.StatusActive}, now)
	assert.ElementsMatch(t, []subscription.Event{
		subscription.EventPaymentFailed,
		subscription.EventCancel,
		subscription.EventDeactivate,
	}, got)
}

func TestLifecycle_NilState(t *testing.T) {
	t.Parallel()

	err := subscription.NewLifecycle().Apply(context.Background(), nil, subscription.EventCancel, now)
	assert.ErrorIs(t, err, subscription.ErrTransitionNotAllowed)
}
