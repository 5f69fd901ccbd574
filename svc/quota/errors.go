package quota

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrymomot/restokit/pkg/limits"
)

var (
	// ErrDataAccess is returned when usage could not be counted.
	// Callers must treat it as a denial, never as permission.
	ErrDataAccess = errors.New("quota: failed to read usage data")

	// ErrDowngradeBlocked is returned when current usage does not fit the target plan.
	ErrDowngradeBlocked = errors.New("quota: downgrade blocked by current usage")

	// ErrLockFailed is returned when a reservation lock cannot be acquired.
	ErrLockFailed = errors.New("quota: failed to acquire reservation lock")

	// ErrTenantRequired is returned when a nil tenant is passed.
	ErrTenantRequired = errors.New("quota: tenant is required")

	// ErrNoTenantStore is returned by operations that persist tenants when no store is configured.
	ErrNoTenantStore = errors.New("quota: tenant store not configured")

	// ErrAuditFailed is returned when an admin override could not be recorded.
	ErrAuditFailed = errors.New("quota: failed to record audit event")

	// ErrOverrideReasonRequired is returned when an admin override lacks actor or reason.
	ErrOverrideReasonRequired = errors.New("quota: admin override requires actor and reason")
)

// LimitError reports a resource at or above its effective limit.
// It wraps limits.ErrLimitExceeded.
type LimitError struct {
	Resource limits.Resource
	Current  int64
	Limit    int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("quota: %s limit reached (%d of %d)", e.Resource, e.Current, e.Limit)
}

func (e *LimitError) Unwrap() error {
	return limits.ErrLimitExceeded
}

// DowngradeError lists the resources that block a plan change.
// It wraps ErrDowngradeBlocked.
type DowngradeError struct {
	Target limits.PlanID
	Issues []Issue
}

func (e *DowngradeError) Error() string {
	actions := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		actions = append(actions, issue.Action)
	}
	return fmt.Sprintf("quota: cannot change to plan %q: %s", e.Target, strings.Join(actions, "; "))
}

func (e *DowngradeError) Unwrap() error {
	return ErrDowngradeBlocked
}

// IsLimitExceeded reports whether err is a LimitError and returns it.
func IsLimitExceeded(err error) (*LimitError, bool) {
	var le *LimitError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
