package quota_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/svc/quota"
)

type failingAuditor struct{ err error }

func (a failingAuditor) Record(context.Context, uuid.UUID, audit.Action, ...audit.EventOption) error {
	return a.err
}

func TestAuditTrail(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("admin override", func(t *testing.T) {
		t.Parallel()
		trail := audit.NewMemoryStorage()
		tn := activeTenant(limits.PlanBasic)
		counter := newStubCounter(map[limits.Resource]int64{limits.ResourceProducts: 120})
		svc := newService(t, counter,
			quota.WithTenantStore(tenant.NewMemoryStore(tn)),
			quota.WithAuditor(audit.NewRecorder(trail, audit.WithClock(clock))),
		)

		require.NoError(t, svc.ChangePlan(ctx, tn, limits.PlanFree, quota.WithAdminOverride("ops@restokit.io", "contract ended")))

		events := trail.Events(tn.ID)
		require.Len(t, events, 2)
		assert.Equal(t, audit.ActionPlanOverride, events[0].Action)
		assert.Equal(t, "ops@restokit.io", events[0].Actor)
		assert.Equal(t, "contract ended", events[0].Reason)
		assert.Equal(t, "basic", events[0].Metadata["from_plan"])
		assert.Equal(t, audit.ActionPlanChanged, events[1].Action)
		assert.Equal(t, "free", events[1].Metadata["to_plan"])
	})

	t.Run("override refused when not recorded", func(t *testing.T) {
		t.Parallel()
		tn := activeTenant(limits.PlanBasic)
		store := tenant.NewMemoryStore(tn)
		counter := newStubCounter(map[limits.Resource]int64{limits.ResourceProducts: 120})
		svc := newService(t, counter,
			quota.WithTenantStore(store),
			quota.WithAuditor(failingAuditor{err: errors.New("db down")}),
		)

		err := svc.ChangePlan(ctx, tn, limits.PlanFree, quota.WithAdminOverride("ops@restokit.io", "contract ended"))
		assert.ErrorIs(t, err, quota.ErrAuditFailed)

		saved, err := store.Get(ctx, tn.ID)
		require.NoError(t, err)
		assert.Equal(t, limits.PlanBasic, saved.PlanID)
	})

	t.Run("regular change survives audit failure", func(t *testing.T) {
		t.Parallel()
		tn := activeTenant(limits.PlanFree)
		svc := newService(t, newStubCounter(nil),
			quota.WithTenantStore(tenant.NewMemoryStore(tn)),
			quota.WithAuditor(failingAuditor{err: errors.New("db down")}),
		)

		require.NoError(t, svc.ChangePlan(ctx, tn, limits.PlanPro))
		assert.Equal(t, limits.PlanPro, tn.PlanID)
	})

	t.Run("billing changes survive audit failure", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		tn := activeTenant(limits.PlanPro)
		store := tenant.NewMemoryStore(tn)
		svc := newService(t, newStubCounter(nil),
			quota.WithTenantStore(store),
			quota.WithAuditor(failingAuditor{err: errors.New("db down")}),
			quota.WithLogger(bufferLogger(&buf)),
		)

		nextEnd := now.AddDate(0, 1, 0)
		require.NoError(t, svc.HandleBillingEvent(ctx, &subscription.BillingEvent{
			Type:          subscription.BillingPaymentSucceeded,
			ProviderEvent: "transaction.completed",
			CustomerID:    tn.ID.String(),
			PeriodEndsAt:  nextEnd,
		}))
		require.NoError(t, svc.Transition(ctx, tn, subscription.EventPaymentFailed))

		saved, err := store.Get(ctx, tn.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPastDue, saved.Subscription.Status)
		require.NotNil(t, saved.Subscription.EndsAt)
		assert.Equal(t, nextEnd, *saved.Subscription.EndsAt)
		assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("failed to record audit event")))
	})

	t.Run("subscription transition", func(t *testing.T) {
		t.Parallel()
		trail := audit.NewMemoryStorage()
		tn := activeTenant(limits.PlanPro)
		svc := newService(t, newStubCounter(nil),
			quota.WithTenantStore(tenant.NewMemoryStore(tn)),
			quota.WithAuditor(audit.NewRecorder(trail)),
		)

		require.NoError(t, svc.Transition(ctx, tn, subscription.EventPaymentFailed))

		events := trail.Events(tn.ID)
		require.Len(t, events, 1)
		assert.Equal(t, audit.ActionSubscriptionTransition, events[0].Action)
		assert.Equal(t, "system", events[0].Actor)
		assert.Equal(t, "active", events[0].Metadata["from"])
		assert.Equal(t, "past_due", events[0].Metadata["to"])
	})
}
