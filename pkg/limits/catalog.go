package limits

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Source defines how plans are loaded into a Catalog.
type Source interface {
	Load(ctx context.Context) (map[PlanID]Plan, error)
}

// Catalog is a read-only set of plans loaded once from a Source.
// It is safe for concurrent use: plans are never mutated after NewCatalog returns.
type Catalog struct {
	plans map[PlanID]Plan
}

// NewCatalog loads and validates plans from src.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	if src == nil {
		panic("limits: Source is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if plans == nil {
		plans = make(map[PlanID]Plan)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	return &Catalog{plans: plans}, nil
}

// Plan returns a copy of the plan with the given ID.
func (c *Catalog) Plan(id PlanID) (Plan, error) {
	plan, ok := c.plans[id]
	if !ok {
		return Plan{}, errors.Join(ErrUnknownPlan, fmt.Errorf("plan %q", id))
	}
	return plan.Clone(), nil
}

// Plans returns all plans ordered by tier rank.
func (c *Catalog) Plans() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, id := range slices.SortedFunc(maps.Keys(c.plans), func(a, b PlanID) int {
		return cmp.Compare(a.Rank(), b.Rank())
	}) {
		out = append(out, c.plans[id].Clone())
	}
	return out
}

// HasFeature reports whether the plan enables feature. Unknown plans have no features.
func (c *Catalog) HasFeature(id PlanID, feature Feature) bool {
	plan, ok := c.plans[id]
	return ok && plan.HasFeature(feature)
}

// ShowWatermark reports whether tenants on the plan get the watermark.
// Unknown plans show it.
func (c *Catalog) ShowWatermark(id PlanID) bool {
	plan, ok := c.plans[id]
	return !ok || plan.ShowWatermark
}

func validatePlans(plans map[PlanID]Plan) error {
	for id, plan := range plans {
		if plan.ID != id {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", id, plan.ID))
		}
		if !id.Valid() {
			return errors.Join(ErrInvalidPlanConfiguration, ErrUnknownPlan,
				fmt.Errorf("plan %s", id))
		}
		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", id, plan.TrialDays))
		}
		for res, limit := range plan.Limits {
			if !res.Valid() {
				return errors.Join(ErrInvalidPlanConfiguration, ErrUnknownResource,
					fmt.Errorf("plan %s resource %q", id, res))
			}
			if limit < 0 && limit != Unlimited {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s has negative limit for %s: %d", id, res, limit))
			}
		}
	}
	return nil
}
