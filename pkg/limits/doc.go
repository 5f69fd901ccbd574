// Package limits defines the plan catalog: plan tiers, the closed set of
// countable resources, per-tenant limit overrides and plan feature flags.
//
// Key concepts:
//
//   - Plan: a tier (free, basic, pro, custom) with resource limits and features
//   - Resource: a countable entity such as products, users or orders this month
//   - Overrides: per-tenant limits that supersede the plan defaults
//   - Catalog: read-only plans loaded once from a Source (memory, YAML, database)
//
// A missing limit, or the Unlimited sentinel, means the resource is not limited.
// Resolve implements the single resolution rule used everywhere:
// tenant override, then plan limit, then unlimited.
//
// Basic usage:
//
//	src := limits.NewInMemSource(
//	    limits.Plan{
//	        ID:            limits.PlanFree,
//	        ShowWatermark: true,
//	        Limits: map[limits.Resource]int64{
//	            limits.ResourceProducts: 15,
//	            limits.ResourceUsers:    2,
//	        },
//	    },
//	    limits.Plan{
//	        ID:       limits.PlanPro,
//	        Limits:   map[limits.Resource]int64{limits.ResourceUsers: 20},
//	        Features: []limits.Feature{limits.FeatureWhatsAppBot},
//	    },
//	)
//
//	catalog, err := limits.NewCatalog(ctx, src)
//	plan, err := catalog.Plan(limits.PlanFree)
//	max := limits.Resolve(&plan, tenantOverrides, limits.ResourceProducts)
package limits
