package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/statemachine"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
)

// SubscriptionFinder is implemented by stores that can look tenants up by
// billing provider subscription ID.
type SubscriptionFinder = tenant.SubscriptionFinder

// Transition applies a lifecycle event to t and saves it.
// Deactivation also turns the tenant kill-switch off; reactivation turns it back on.
// On success t is updated in place.
func (s *Service) Transition(ctx context.Context, t *tenant.Tenant, event subscription.Event, opts ...subscription.ApplyOption) error {
	if s.tenants == nil {
		return ErrNoTenantStore
	}
	if t == nil {
		return ErrTenantRequired
	}

	now := s.now()
	updated := t.Clone()
	from := updated.Subscription.Status
	if err := s.lifecycle.Apply(ctx, &updated.Subscription, event, now, opts...); err != nil {
		return err
	}

	switch event {
	case subscription.EventDeactivate:
		updated.Active = false
	case subscription.EventReactivate:
		updated.Active = true
	}
	updated.UpdatedAt = now

	if err := s.tenants.Save(ctx, updated); err != nil {
		return err
	}
	*t = *updated

	// The transition is already saved, a failed record is only logged.
	s.record(ctx, t.ID, audit.ActionSubscriptionTransition,
		audit.WithMetadata("event", string(event)),
		audit.WithMetadata("from", string(from)),
		audit.WithMetadata("to", string(t.Subscription.Status)),
	)

	s.log.InfoContext(ctx, "subscription transitioned",
		logger.TenantID(t.ID),
		logger.Event(string(event)),
		"from", from,
		logger.Status(t.Subscription.Status),
	)
	return nil
}

// HandleBillingEvent applies a verified billing event to the tenant it
// belongs to. A successful payment on an active tenant is a renewal and moves
// the paid period end forward. Events that do not affect the lifecycle and
// events that are not valid from the tenant's current state, such as
// redelivered webhooks, are logged and ignored.
func (s *Service) HandleBillingEvent(ctx context.Context, ev *subscription.BillingEvent) error {
	if s.tenants == nil {
		return ErrNoTenantStore
	}
	if ev == nil {
		return subscription.ErrInvalidWebhookPayload
	}

	event, ok := ev.LifecycleEvent()
	if !ok {
		s.log.DebugContext(ctx, "billing event ignored", logger.EventType(ev.ProviderEvent))
		return nil
	}

	t, err := s.billingTenant(ctx, ev)
	if err != nil {
		return err
	}
	linked := false
	if t.Subscription.ProviderSubID == "" && ev.SubscriptionID != "" {
		t.Subscription.ProviderSubID = ev.SubscriptionID
		linked = true
	}

	if event == subscription.EventPaymentSucceeded && t.Subscription.IsActive() {
		return s.renew(ctx, t, ev, linked)
	}

	var opts []subscription.ApplyOption
	if !ev.PeriodEndsAt.IsZero() {
		opts = append(opts, subscription.WithPeriodEnd(ev.PeriodEndsAt))
	}
	err = s.Transition(ctx, t, event, opts...)
	if statemachine.IsNoTransition(err) {
		s.log.WarnContext(ctx, "billing event does not apply to current status",
			logger.TenantID(t.ID),
			logger.EventType(ev.ProviderEvent),
			logger.Status(t.Subscription.Status),
		)
		return nil
	}
	return err
}

// renew extends the paid period of an active tenant. Renewals that report no
// later period end are ignored unless the subscription ID was just linked.
func (s *Service) renew(ctx context.Context, t *tenant.Tenant, ev *subscription.BillingEvent, linked bool) error {
	updated := t.Clone()
	extended := updated.Subscription.ExtendPeriod(ev.PeriodEndsAt)
	if !extended && !linked {
		s.log.DebugContext(ctx, "billing renewal does not extend period",
			logger.TenantID(t.ID),
			logger.EventType(ev.ProviderEvent),
		)
		return nil
	}

	now := s.now()
	updated.Subscription.UpdatedAt = now
	updated.UpdatedAt = now
	if err := s.tenants.Save(ctx, updated); err != nil {
		return err
	}
	*t = *updated

	if !extended {
		return nil
	}
	endsAt := t.Subscription.EndsAt.Format(time.RFC3339)
	// The period is already saved, a failed record is only logged.
	s.record(ctx, t.ID, audit.ActionSubscriptionRenewed,
		audit.WithMetadata("event", ev.ProviderEvent),
		audit.WithMetadata("ends_at", endsAt),
	)
	s.log.InfoContext(ctx, "subscription renewed",
		logger.TenantID(t.ID),
		logger.EventType(ev.ProviderEvent),
		"ends_at", endsAt,
	)
	return nil
}

// billingTenant resolves the tenant by custom data first, then by provider subscription.
func (s *Service) billingTenant(ctx context.Context, ev *subscription.BillingEvent) (*tenant.Tenant, error) {
	if ev.CustomerID != "" {
		id, err := uuid.Parse(ev.CustomerID)
		if err != nil {
			return nil, errors.Join(subscription.ErrInvalidWebhookPayload, fmt.Errorf("tenant id %q: %w", ev.CustomerID, err))
		}
		return s.tenants.Get(ctx, id)
	}
	if finder, ok := s.tenants.(SubscriptionFinder); ok && ev.SubscriptionID != "" {
		return finder.GetByProviderSubscription(ctx, ev.SubscriptionID)
	}
	return nil, tenant.ErrTenantNotFound
}
