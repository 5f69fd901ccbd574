package quota

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/tenant"
	"github.com/dmitrymomot/restokit/pkg/usage"
)

// Warning describes a resource close to or above its limit.
type Warning struct {
	Resource limits.Resource `json:"resource"`
	Percent  float64         `json:"percent"`
	Current  int64           `json:"current"`
	Limit    int64           `json:"limit"`
}

// CanAdd reports whether t may create one more res.
//
// A tenant without access gets false and the access error. A count failure
// gets false and an error wrapping ErrDataAccess. A reached limit gets false
// and no error. Panics on an unknown resource.
func (s *Service) CanAdd(ctx context.Context, t *tenant.Tenant, res limits.Resource) (bool, error) {
	err := s.Check(ctx, t, res)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, limits.ErrLimitExceeded) {
		return false, nil
	}
	return false, err
}

// Check is CanAdd returning the reason for a denial: an access error
// (subscription.ErrAccessDenied), a *LimitError or ErrDataAccess.
func (s *Service) Check(ctx context.Context, t *tenant.Tenant, res limits.Resource) error {
	limits.MustValid(res)
	if t == nil {
		return ErrTenantRequired
	}

	if err := t.Access(s.now()); err != nil {
		s.log.DebugContext(ctx, "access denied",
			logger.TenantID(t.ID), logger.Resource(res), logger.Status(t.Subscription.Status), logger.Error(err))
		return err
	}

	limit, err := s.effectiveLimit(t, res)
	if err != nil {
		return err
	}
	if limit == limits.Unlimited {
		return nil
	}

	current, err := s.count(ctx, t, res)
	if err != nil {
		return err
	}
	if current >= limit {
		return &LimitError{Resource: res, Current: current, Limit: limit}
	}
	return nil
}

// UsagePercentage returns 100*usage/limit for res. Unlimited resources
// report 0. The value is not clamped: above 100 means overage. A zero limit
// reports 100 when unused and 100*usage otherwise.
func (s *Service) UsagePercentage(ctx context.Context, t *tenant.Tenant, res limits.Resource) (float64, error) {
	limits.MustValid(res)
	if t == nil {
		return 0, ErrTenantRequired
	}

	limit, err := s.effectiveLimit(t, res)
	if err != nil {
		return 0, err
	}
	if limit == limits.Unlimited {
		return 0, nil
	}

	current, err := s.count(ctx, t, res)
	if err != nil {
		return 0, err
	}
	return percent(current, limit), nil
}

// ResourceWarnings lists finite-limit resources at or above the warning
// threshold, highest percent first. Ties keep the canonical resource order.
func (s *Service) ResourceWarnings(ctx context.Context, t *tenant.Tenant) ([]Warning, error) {
	if t == nil {
		return nil, ErrTenantRequired
	}

	plan, err := s.planFor(t.PlanID)
	if err != nil {
		return nil, err
	}

	finite := make(map[limits.Resource]int64)
	var resources []limits.Resource
	for _, res := range limits.AllResources() {
		if limit := t.Limit(plan, res); limit != limits.Unlimited {
			finite[res] = limit
			resources = append(resources, res)
		}
	}
	if len(resources) == 0 {
		return nil, nil
	}

	snap, err := s.collect(ctx, t, resources)
	if err != nil {
		return nil, err
	}

	var warnings []Warning
	for _, res := range resources {
		p := percent(snap[res], finite[res])
		if p >= s.threshold {
			warnings = append(warnings, Warning{Resource: res, Percent: p, Current: snap[res], Limit: finite[res]})
		}
	}
	slices.SortStableFunc(warnings, func(a, b Warning) int {
		return cmp.Compare(b.Percent, a.Percent)
	})
	return warnings, nil
}

// Usage returns current usage and the effective limit for every resource.
func (s *Service) Usage(ctx context.Context, t *tenant.Tenant) (map[limits.Resource]limits.UsageInfo, error) {
	if t == nil {
		return nil, ErrTenantRequired
	}

	plan, err := s.planFor(t.PlanID)
	if err != nil {
		return nil, err
	}

	snap, err := s.collect(ctx, t, limits.AllResources())
	if err != nil {
		return nil, err
	}

	out := make(map[limits.Resource]limits.UsageInfo, len(snap))
	for res, current := range snap {
		out[res] = limits.UsageInfo{Current: current, Limit: t.Limit(plan, res)}
	}
	return out, nil
}

// HasFeature reports whether the tenant's plan enables feature.
func (s *Service) HasFeature(t *tenant.Tenant, feature limits.Feature) bool {
	return t != nil && s.catalog.HasFeature(t.PlanID, feature)
}

// ShowWatermark reports whether the tenant's storefront carries the watermark.
func (s *Service) ShowWatermark(t *tenant.Tenant) bool {
	return t == nil || s.catalog.ShowWatermark(t.PlanID)
}

// planFor returns the catalog plan. A custom plan missing from the catalog
// resolves to nil, so only tenant overrides apply.
func (s *Service) planFor(id limits.PlanID) (*limits.Plan, error) {
	plan, err := s.catalog.Plan(id)
	if err != nil {
		if id == limits.PlanCustom {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (s *Service) effectiveLimit(t *tenant.Tenant, res limits.Resource) (int64, error) {
	plan, err := s.planFor(t.PlanID)
	if err != nil {
		return 0, err
	}
	return t.Limit(plan, res), nil
}

func (s *Service) count(ctx context.Context, t *tenant.Tenant, res limits.Resource) (int64, error) {
	n, err := s.counter.Count(ctx, t.ID, res, s.now())
	if err != nil {
		s.log.ErrorContext(ctx, "failed to count usage",
			logger.TenantID(t.ID), logger.Resource(res), logger.Error(err))
		return 0, errors.Join(ErrDataAccess, err)
	}
	return n, nil
}

func (s *Service) collect(ctx context.Context, t *tenant.Tenant, resources []limits.Resource) (usage.Snapshot, error) {
	snap, err := usage.Collect(ctx, s.counter, t.ID, s.now(), resources...)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to collect usage", logger.TenantID(t.ID), logger.Error(err))
		return nil, errors.Join(ErrDataAccess, err)
	}
	return snap, nil
}

func percent(current, limit int64) float64 {
	if limit == 0 {
		if current == 0 {
			return 100
		}
		return 100 * float64(current)
	}
	return 100 * float64(current) / float64(limit)
}
