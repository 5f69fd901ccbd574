package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/pg"
	"github.com/dmitrymomot/restokit/pkg/subscription"
	"github.com/dmitrymomot/restokit/pkg/tenant"
)

const tenantColumns = `
id, name, slug, plan_id, custom_limits,
subscription_status, trial_ends_at, subscription_ends_at, canceled_at,
COALESCE(provider_subscription_id, ''), subscription_updated_at,
active, created_at, updated_at`

const upsertTenant = `
INSERT INTO tenants (
    id, name, slug, plan_id, custom_limits,
    subscription_status, trial_ends_at, subscription_ends_at, canceled_at,
    provider_subscription_id, subscription_updated_at,
    active, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name,
    slug = EXCLUDED.slug,
    plan_id = EXCLUDED.plan_id,
    custom_limits = EXCLUDED.custom_limits,
    subscription_status = EXCLUDED.subscription_status,
    trial_ends_at = EXCLUDED.trial_ends_at,
    subscription_ends_at = EXCLUDED.subscription_ends_at,
    canceled_at = EXCLUDED.canceled_at,
    provider_subscription_id = EXCLUDED.provider_subscription_id,
    subscription_updated_at = EXCLUDED.subscription_updated_at,
    active = EXCLUDED.active,
    updated_at = EXCLUDED.updated_at`

// TenantStore persists tenants in the tenants table. It implements tenant.Store.
type TenantStore struct {
	db DB
}

func NewTenantStore(db DB) *TenantStore {
	if db == nil {
		panic("store: db cannot be nil")
	}
	return &TenantStore{db: db}
}

// Get implements tenant.Provider.
func (s *TenantStore) Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.getBy(ctx, "id = $1", id)
}

// GetBySlug returns tenant.ErrTenantNotFound if no tenant uses slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.getBy(ctx, "slug = $1", tenant.NormalizeSlug(slug))
}

// GetByProviderSubscription finds the tenant linked to a billing provider subscription.
func (s *TenantStore) GetByProviderSubscription(ctx context.Context, subscriptionID string) (*tenant.Tenant, error) {
	if subscriptionID == "" {
		return nil, tenant.ErrTenantNotFound
	}
	return s.getBy(ctx, "provider_subscription_id = $1", subscriptionID)
}

func (s *TenantStore) getBy(ctx context.Context, where string, arg any) (*tenant.Tenant, error) {
	row := s.db.QueryRow(ctx, "SELECT "+tenantColumns+" FROM tenants WHERE "+where, arg)

	var (
		t       tenant.Tenant
		planID  string
		rawJSON []byte
		status  string
	)
	err := row.Scan(
		&t.ID, &t.Name, &t.Slug, &planID, &rawJSON,
		&status, &t.Subscription.TrialEndsAt, &t.Subscription.EndsAt, &t.Subscription.CanceledAt,
		&t.Subscription.ProviderSubID, &t.Subscription.UpdatedAt,
		&t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, errors.Join(ErrScanFailed, err)
	}

	t.PlanID = limits.PlanID(planID)
	if t.Subscription.Status, err = subscription.ParseStatus(status); err != nil {
		return nil, errors.Join(ErrScanFailed, err)
	}
	if t.CustomLimits, err = decodeOverrides(rawJSON); err != nil {
		return nil, errors.Join(ErrScanFailed, err)
	}
	return &t, nil
}

// Save implements tenant.Store.
func (s *TenantStore) Save(ctx context.Context, t *tenant.Tenant) error {
	if err := tenant.ValidateSlug(t.Slug); err != nil {
		return err
	}
	overrides, err := encodeOverrides(t.CustomLimits)
	if err != nil {
		return err
	}

	updatedAt := t.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = updatedAt
	}
	subUpdatedAt := t.Subscription.UpdatedAt
	if subUpdatedAt.IsZero() {
		subUpdatedAt = updatedAt
	}

	_, err = s.db.Exec(ctx, upsertTenant,
		t.ID, t.Name, t.Slug, string(t.PlanID), overrides,
		string(t.Subscription.Status), t.Subscription.TrialEndsAt, t.Subscription.EndsAt, t.Subscription.CanceledAt,
		t.Subscription.ProviderSubID, subUpdatedAt,
		t.Active, createdAt, updatedAt,
	)
	switch {
	case err == nil:
		return nil
	case pg.IsDuplicateKeyError(err):
		return errors.Join(tenant.ErrDuplicateSlug, err)
	case pg.IsForeignKeyViolationError(err):
		return errors.Join(limits.ErrUnknownPlan, err)
	default:
		return errors.Join(ErrQueryFailed, err)
	}
}

// encodeOverrides stores overrides as a JSON object keyed by resource name.
func encodeOverrides(o limits.Overrides) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	raw := o.Raw()
	if raw == nil {
		raw = map[string]int64{}
	}
	return json.Marshal(raw)
}

func decodeOverrides(data []byte) (limits.Overrides, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var raw map[string]int64
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return limits.ParseOverrides(raw)
}
