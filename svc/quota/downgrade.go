package quota

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/restokit/pkg/audit"
	"github.com/dmitrymomot/restokit/pkg/limits"
	"github.com/dmitrymomot/restokit/pkg/logger"
	"github.com/dmitrymomot/restokit/pkg/tenant"
)

// Issue is a resource whose usage exceeds the target plan's limit.
type Issue struct {
	Resource limits.Resource `json:"resource"`
	Current  int64           `json:"current"`
	Limit    int64           `json:"limit"`
	Action   string          `json:"action"` // e.g. "reduce products from 120 to 15 or fewer"
}

// DowngradeResult is the outcome of a plan change dry run.
type DowngradeResult struct {
	Target       limits.PlanID
	CanDowngrade bool // true iff Issues is empty
	Issues       []Issue
	Comparison   *limits.PlanComparison // nil when either plan is missing from the catalog
}

// CanDowngradeTo checks whether t's current usage fits the target plan.
// It never mutates t. Target limits come from the target plan only, except
// for the custom plan where the tenant's overrides apply. Issues follow the
// canonical resource order. An unknown target returns limits.ErrUnknownPlan.
func (s *Service) CanDowngradeTo(ctx context.Context, t *tenant.Tenant, target limits.PlanID) (*DowngradeResult, error) {
	if t == nil {
		return nil, ErrTenantRequired
	}
	if !target.Valid() {
		return nil, errors.Join(limits.ErrUnknownPlan, fmt.Errorf("plan %q", target))
	}

	targetPlan, err := s.planFor(target)
	if err != nil {
		return nil, err
	}
	var overrides limits.Overrides
	if target == limits.PlanCustom {
		overrides = t.CustomLimits
	}

	targetLimits := make(map[limits.Resource]int64)
	var resources []limits.Resource
	for _, res := range limits.AllResources() {
		if limit := limits.Resolve(targetPlan, overrides, res); limit != limits.Unlimited {
			targetLimits[res] = limit
			resources = append(resources, res)
		}
	}

	result := &DowngradeResult{Target: target}
	if current, err := s.planFor(t.PlanID); err == nil && current != nil && targetPlan != nil {
		result.Comparison = limits.ComparePlans(current, targetPlan)
	}

	if len(resources) > 0 {
		snap, err := s.collect(ctx, t, resources)
		if err != nil {
			return nil, err
		}
		for _, res := range resources {
			if current, limit := snap[res], targetLimits[res]; current > limit {
				result.Issues = append(result.Issues, Issue{
					Resource: res,
					Current:  current,
					Limit:    limit,
					Action:   s.printer.Sprintf("reduce %s from %d to %d or fewer", res.Label(), current, limit),
				})
			}
		}
	}
	result.CanDowngrade = len(result.Issues) == 0

	return result, nil
}

type changeOptions struct {
	actor  string
	reason string
}

// ChangeOption configures ChangePlan.
type ChangeOption func(*changeOptions)

// WithAdminOverride applies a plan change even when usage exceeds the target
// limits. The override is logged with actor and reason.
func WithAdminOverride(actor, reason string) ChangeOption {
	return func(o *changeOptions) {
		o.actor = actor
		o.reason = reason
	}
}

// ChangePlan moves t to target and saves it. When current usage does not fit
// the target plan it returns a *DowngradeError unless WithAdminOverride is given.
// On success t is updated in place.
func (s *Service) ChangePlan(ctx context.Context, t *tenant.Tenant, target limits.PlanID, opts ...ChangeOption) error {
	if s.tenants == nil {
		return ErrNoTenantStore
	}

	var o changeOptions
	for _, opt := range opts {
		opt(&o)
	}
	override := o.actor != "" || o.reason != ""
	if override && (o.actor == "" || o.reason == "") {
		return ErrOverrideReasonRequired
	}

	result, err := s.CanDowngradeTo(ctx, t, target)
	if err != nil {
		return err
	}

	if !result.CanDowngrade {
		if !override {
			return &DowngradeError{Target: target, Issues: result.Issues}
		}
		err := s.record(ctx, t.ID, audit.ActionPlanOverride,
			audit.WithActor(o.actor),
			audit.WithReason(o.reason),
			audit.WithMetadata("from_plan", string(t.PlanID)),
			audit.WithMetadata("to_plan", string(target)),
			audit.WithMetadata("issues", result.Issues),
		)
		if err != nil {
			return errors.Join(ErrAuditFailed, err)
		}
		s.log.WarnContext(ctx, "plan change forced over usage limits",
			logger.TenantID(t.ID),
			logger.PlanID(target),
			logger.Actor(o.actor),
			"reason", o.reason,
			"issues", result.Issues,
		)
	}

	updated := t.Clone()
	previous := updated.PlanID
	updated.PlanID = target
	updated.UpdatedAt = s.now()
	if err := s.tenants.Save(ctx, updated); err != nil {
		return err
	}
	*t = *updated

	var actor []audit.EventOption
	if o.actor != "" {
		actor = append(actor, audit.WithActor(o.actor))
	}
	// The plan is already saved, a failed record is only logged.
	s.record(ctx, t.ID, audit.ActionPlanChanged, append(actor,
		audit.WithMetadata("from_plan", string(previous)),
		audit.WithMetadata("to_plan", string(target)),
	)...)

	s.log.InfoContext(ctx, "plan changed",
		logger.TenantID(t.ID), "from_plan", previous, logger.PlanID(target))
	return nil
}
