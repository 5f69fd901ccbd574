package usage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/restokit/pkg/limits"
)

// Counter returns the current usage of a resource for a tenant.
// now selects the window for time-scoped resources such as monthly orders.
type Counter interface {
	Count(ctx context.Context, tenantID uuid.UUID, res limits.Resource, now time.Time) (int64, error)
}

// CounterFunc counts one resource for a tenant.
// Should be fast: cache or aggregate at repository level.
type CounterFunc func(ctx context.Context, tenantID uuid.UUID, now time.Time) (int64, error)

// Registry maps a Resource to its CounterFunc.
// Not thread-safe for writes: register all counters at startup only.
type Registry map[limits.Resource]CounterFunc

// NewRegistry returns a new, empty Registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Register sets or replaces the CounterFunc for res.
// Panics if fn is nil or res is not a known resource.
func (r Registry) Register(res limits.Resource, fn CounterFunc) Registry {
	limits.MustValid(res)
	if fn == nil {
		panic(fmt.Sprintf("usage: CounterFunc for resource %q cannot be nil", res))
	}
	r[res] = fn
	return r
}

// Count implements Counter.
func (r Registry) Count(ctx context.Context, tenantID uuid.UUID, res limits.Resource, now time.Time) (int64, error) {
	fn, ok := r[res]
	if !ok {
		return 0, errors.Join(ErrNoCounter, fmt.Errorf("resource %q", res))
	}

	n, err := fn(ctx, tenantID, now)
	if err != nil {
		return 0, errors.Join(ErrCountFailed, fmt.Errorf("resource %q", res), err)
	}
	return n, nil
}

// Repository exposes one accessor per resource, as a tenant's data store would.
type Repository interface {
	CountProducts(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountUsers(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountOrdersInMonth(ctx context.Context, tenantID uuid.UUID, month YearMonth) (int64, error)
	CountCategories(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountCoupons(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountMotoboys(ctx context.Context, tenantID uuid.UUID) (int64, error)
	StorageUsedMB(ctx context.Context, tenantID uuid.UUID) (int64, error)
	CountStockItems(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// FromRepository returns a Registry with a counter for every resource.
// Monthly orders are counted in the UTC calendar month of now.
func FromRepository(repo Repository) Registry {
	if repo == nil {
		panic("usage: repository cannot be nil")
	}

	static := func(fn func(context.Context, uuid.UUID) (int64, error)) CounterFunc {
		return func(ctx context.Context, tenantID uuid.UUID, _ time.Time) (int64, error) {
			return fn(ctx, tenantID)
		}
	}

	return NewRegistry().
		Register(limits.ResourceProducts, static(repo.CountProducts)).
		Register(limits.ResourceUsers, static(repo.CountUsers)).
		Register(limits.ResourceOrdersThisMonth, func(ctx context.Context, tenantID uuid.UUID, now time.Time) (int64, error) {
			return repo.CountOrdersInMonth(ctx, tenantID, YearMonthOf(now))
		}).
		Register(limits.ResourceCategories, static(repo.CountCategories)).
		Register(limits.ResourceCoupons, static(repo.CountCoupons)).
		Register(limits.ResourceMotoboys, static(repo.CountMotoboys)).
		Register(limits.ResourceStorageMB, static(repo.StorageUsedMB)).
		Register(limits.ResourceStockItems, static(repo.CountStockItems))
}
