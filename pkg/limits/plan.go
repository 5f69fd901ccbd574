package limits

import (
	"maps"
	"slices"
	"time"
)

// Plan describes a subscription tier: its resource limits and feature flags.
type Plan struct {
	ID            PlanID
	Name          string
	Description   string
	Limits        map[Resource]int64 // missing entry or Unlimited means no limit
	ShowWatermark bool
	Features      []Feature
	Public        bool // available for self-service signup
	TrialDays     int
	Price         Money
}

// Limit returns the plan's limit for res. Missing entries resolve to Unlimited.
func (p Plan) Limit(res Resource) int64 {
	if v, ok := p.Limits[res]; ok {
		return v
	}
	return Unlimited
}

// HasFeature reports whether the plan enables feature.
func (p Plan) HasFeature(feature Feature) bool {
	return slices.Contains(p.Features, feature)
}

// TrialEndsAt returns when a trial started at startedAt ends.
// If no trial is available, returns startedAt.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	if p.TrialDays <= 0 {
		return startedAt
	}
	return startedAt.AddDate(0, 0, p.TrialDays).UTC()
}

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	p.Limits = maps.Clone(p.Limits)
	p.Features = slices.Clone(p.Features)
	return p
}

// Overrides holds per-tenant limits that supersede the plan defaults.
// Keys are restricted to the closed Resource enumeration.
type Overrides map[Resource]int64

// ParseOverrides builds Overrides from untyped input, rejecting unknown
// resources and negative values other than Unlimited.
func ParseOverrides(raw map[string]int64) (Overrides, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(Overrides, len(raw))
	for key, v := range raw {
		res, err := ParseResource(key)
		if err != nil {
			return nil, err
		}
		out[res] = v
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks every key and value of the override map.
func (o Overrides) Validate() error {
	for res, v := range o {
		if !res.Valid() {
			return ErrUnknownResource
		}
		if v < 0 && v != Unlimited {
			return ErrInvalidOverride
		}
	}
	return nil
}

// Raw converts overrides back to a string-keyed map for persistence.
func (o Overrides) Raw() map[string]int64 {
	out := make(map[string]int64, len(o))
	for res, v := range o {
		out[string(res)] = v
	}
	return out
}

// Resolve returns the effective limit for res: the tenant override if one is
// set, otherwise the plan limit, otherwise Unlimited. plan may be nil.
func Resolve(plan *Plan, overrides Overrides, res Resource) int64 {
	if v, ok := overrides[res]; ok {
		return v
	}
	if plan == nil {
		return Unlimited
	}
	return plan.Limit(res)
}

// PlanComparison contains the differences between two plans.
type PlanComparison struct {
	NewFeatures     []Feature
	LostFeatures    []Feature
	IncreasedLimits map[Resource]ResourceChange
	DecreasedLimits map[Resource]ResourceChange
	WatermarkAdded  bool
}

// ResourceChange represents a change in a resource limit.
type ResourceChange struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// HasResourceDecreases returns true if any resource limit shrinks.
func (c *PlanComparison) HasResourceDecreases() bool {
	return len(c.DecreasedLimits) > 0
}

// ComparePlans returns the differences between current and target plans.
// Missing limits are treated as unlimited on both sides.
func ComparePlans(current, target *Plan) *PlanComparison {
	if current == nil || target == nil {
		return nil
	}

	comparison := &PlanComparison{
		NewFeatures:     make([]Feature, 0),
		LostFeatures:    make([]Feature, 0),
		IncreasedLimits: make(map[Resource]ResourceChange),
		DecreasedLimits: make(map[Resource]ResourceChange),
		WatermarkAdded:  target.ShowWatermark && !current.ShowWatermark,
	}

	for _, feature := range target.Features {
		if !current.HasFeature(feature) {
			comparison.NewFeatures = append(comparison.NewFeatures, feature)
		}
	}
	for _, feature := range current.Features {
		if !target.HasFeature(feature) {
			comparison.LostFeatures = append(comparison.LostFeatures, feature)
		}
	}

	for _, res := range allResources {
		from, to := current.Limit(res), target.Limit(res)
		if from == to {
			continue
		}
		change := ResourceChange{From: from, To: to}
		switch {
		case from == Unlimited:
			comparison.DecreasedLimits[res] = change
		case to == Unlimited, to > from:
			comparison.IncreasedLimits[res] = change
		default:
			comparison.DecreasedLimits[res] = change
		}
	}

	return comparison
}
