package limits

import "errors"

var (
	ErrUnknownPlan              = errors.New("limits.errors.unknown_plan")
	ErrInvalidPlanConfiguration = errors.New("limits.errors.invalid_plan_configuration")
	ErrFailedToLoadPlans        = errors.New("limits.errors.failed_to_load_plans")

	ErrUnknownResource = errors.New("limits.errors.unknown_resource")
	ErrInvalidOverride = errors.New("limits.errors.invalid_override")
	ErrLimitExceeded   = errors.New("limits.errors.limit_exceeded")
)
