package subscription

import (
	"math"
	"time"
)

// State is the subscription part of a tenant record.
type State struct {
	Status        Status     `json:"status"`
	TrialEndsAt   *time.Time `json:"trial_ends_at,omitempty"` // set only while a trial applies
	EndsAt        *time.Time `json:"ends_at,omitempty"`       // end of the paid period, if known
	CanceledAt    *time.Time `json:"canceled_at,omitempty"`
	ProviderSubID string     `json:"provider_subscription_id,omitempty"` // empty for free plans
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewTrial returns a trialing state ending at trialEndsAt.
func NewTrial(now, trialEndsAt time.Time) State {
	end := trialEndsAt.UTC()
	return State{Status: StatusTrialing, TrialEndsAt: &end, UpdatedAt: now.UTC()}
}

func (s State) IsTrialing() bool {
	return s.Status == StatusTrialing
}

func (s State) IsActive() bool {
	return s.Status == StatusActive
}

func (s State) IsPastDue() bool {
	return s.Status == StatusPastDue
}

func (s State) IsCanceled() bool {
	return s.Status == StatusCanceled
}

// IsTrialExpiredAt reports whether a trialing subscription ran past its trial end.
func (s State) IsTrialExpiredAt(now time.Time) bool {
	return s.IsTrialing() && s.TrialEndsAt != nil && !now.Before(*s.TrialEndsAt)
}

// IsPeriodEndedAt reports whether the paid period ended.
func (s State) IsPeriodEndedAt(now time.Time) bool {
	return s.EndsAt != nil && !now.Before(*s.EndsAt)
}

// ExtendPeriod moves EndsAt forward to end. It never moves the period end back,
// so redelivered or out-of-order renewals are no-ops. Reports whether EndsAt changed.
func (s *State) ExtendPeriod(end time.Time) bool {
	if end.IsZero() {
		return false
	}
	end = end.UTC()
	if s.EndsAt != nil && !end.After(*s.EndsAt) {
		return false
	}
	s.EndsAt = &end
	return true
}

// TrialDaysRemainingAt returns the whole days left in the trial, rounding
// partial days up. Returns 0 when not trialing or expired.
func (s State) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEndsAt == nil {
		return 0
	}
	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// Access reports whether the subscription lets the tenant use the product at now.
// Every non-nil result wraps ErrAccessDenied.
//
// Past-due subscriptions keep access until their period ends, trials are
// treated as expired as soon as TrialEndsAt passes even if no transition fired yet.
func (s State) Access(now time.Time) error {
	switch s.Status {
	case StatusInactive:
		return ErrSubscriptionInactive
	case StatusCanceled:
		return ErrSubscriptionCanceled
	case StatusTrialing:
		if s.IsTrialExpiredAt(now) {
			return ErrTrialExpired
		}
		return nil
	case StatusActive, StatusPastDue:
		if s.IsPeriodEndedAt(now) {
			return ErrSubscriptionExpired
		}
		return nil
	default:
		return ErrSubscriptionInactive
	}
}
