package tenant

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/subscription"
)

// Tenant is a restaurant account together with its plan, limit overrides
// and subscription state.
type Tenant struct {
	ID           uuid.UUID          `json:"id"`
	Name         string             `json:"name"`
	Slug         string             `json:"slug"`
	PlanID       limits.PlanID      `json:"plan_id"`
	CustomLimits limits.Overrides   `json:"custom_limits,omitempty"`
	Subscription subscription.State `json:"subscription"`
	Active       bool               `json:"active"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// New returns an active tenant on planID with a fresh ID.
// The subscription starts trialing until trialEndsAt.
func New(name, slug string, planID limits.PlanID, now, trialEndsAt time.Time) (*Tenant, error) {
	slug = NormalizeSlug(slug)
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	if !planID.Valid() {
		return nil, limits.ErrUnknownPlan
	}

	return &Tenant{
		ID:           uuid.New(),
		Name:         name,
		Slug:         slug,
		PlanID:       planID,
		Subscription: subscription.NewTrial(now, trialEndsAt),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Access reports whether the tenant may use the product at now.
// The account kill-switch is checked before the subscription state.
func (t *Tenant) Access(now time.Time) error {
	if t == nil || !t.Active {
		return ErrInactiveTenant
	}
	return t.Subscription.Access(now)
}

// Limit resolves the effective limit for res against plan.
func (t *Tenant) Limit(plan *limits.Plan, res limits.Resource) int64 {
	return limits.Resolve(plan, t.CustomLimits, res)
}

// Clone returns a deep copy of t.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	if t.CustomLimits != nil {
		c.CustomLimits = maps.Clone(t.CustomLimits)
	}
	c.Subscription = cloneState(t.Subscription)
	return &c
}

func cloneState(s subscription.State) subscription.State {
	s.TrialEndsAt = clonePtr(s.TrialEndsAt)
	s.EndsAt = clonePtr(s.EndsAt)
	s.CanceledAt = clonePtr(s.CanceledAt)
	return s
}

func clonePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Provider loads tenants by ID.
type Provider interface {
	// Get returns ErrTenantNotFound if no tenant has the given ID.
	Get(ctx context.Context, id uuid.UUID) (*Tenant, error)
}

// Store is a Provider that can also persist tenants.
type Store interface {
	Provider

	// Save inserts or updates t.
	Save(ctx context.Context, t *Tenant) error
}

// SubscriptionFinder looks tenants up by billing provider subscription ID.
type SubscriptionFinder interface {
	// GetByProviderSubscription returns ErrTenantNotFound if no tenant is linked to subscriptionID.
	GetByProviderSubscription(ctx context.Context, subscriptionID string) (*Tenant, error)
}
