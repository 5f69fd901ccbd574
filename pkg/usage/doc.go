// Package usage counts how much of each plan-limited resource a tenant uses.
//
// Counters are registered per resource in a Registry. FromRepository builds a
// complete Registry from a data store with one accessor per resource; monthly
// orders are scoped to the UTC calendar month of the evaluation time.
//
//	counter := usage.FromRepository(repo)
//	n, err := counter.Count(ctx, tenantID, limits.ResourceProducts, time.Now())
//
// Collect fans out over several resources and returns a Snapshot.
package usage
