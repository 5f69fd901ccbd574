// Package tenant defines the restaurant tenant record and the stores that load it.
//
// A Tenant carries its plan, per-tenant limit overrides and subscription state.
// Tenant.Access combines the account kill-switch with the subscription access
// gate, so callers can deny access with a single check:
//
//	if err := t.Access(time.Now()); err != nil {
//		// errors.Is(err, subscription.ErrAccessDenied) is true
//	}
//
// # Stores
//
// Provider loads tenants by ID and Store adds persistence. MemoryStore keeps
// tenants in process; the Postgres implementation lives in pkg/store.
// CachedStore puts an LRU cache with TTL in front of any Store:
//
//	cache := tenant.NewInMemoryCache(tenant.DefaultCacheSize)
//	defer cache.Close()
//	tenants := tenant.NewCachedStore(pgStore, cache, time.Minute)
//
// # Context
//
// WithTenant and FromContext propagate the current tenant through a request.
// LoggerExtractor and PlanExtractor add tenant_id and plan_id to every log
// record written with that context. Require fails with ErrNoTenantInContext.
package tenant
