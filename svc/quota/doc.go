// Package quota enforces plan limits and subscription access for restaurant tenants.
//
// A Service combines the plan catalog, a usage counter and the subscription
// lifecycle:
//
//	svc := quota.NewService(catalog, usage.FromRepository(repo),
//		quota.WithTenantStore(tenants),
//		quota.WithLocker(quota.NewRedisLocker(rdb)),
//	)
//
//	ok, err := svc.CanAdd(ctx, t, limits.ResourceProducts)
//
// Access is checked before limits: a canceled, expired or disabled tenant is
// denied with an error wrapping subscription.ErrAccessDenied whatever its
// usage. A reached limit is reported as *LimitError, and a failed count as
// ErrDataAccess, which callers must treat as a denial.
//
// CanAdd alone is best effort: two requests may both pass before either
// writes. Reserve closes that gap by holding a per tenant and resource lock
// across the check and the write:
//
//	err := svc.Reserve(ctx, t, limits.ResourceProducts, func(ctx context.Context) error {
//		return products.Insert(ctx, p)
//	})
//
// CanDowngradeTo is a dry run listing every resource whose usage exceeds a
// target plan. ChangePlan applies the change, refusing blocked downgrades
// unless WithAdminOverride is given.
package quota
