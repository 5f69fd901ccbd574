package subscription

import (
	"errors"
	"fmt"
	"strings"
)

// Status represents the lifecycle state of a tenant's subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTrialing, StatusActive, StatusPastDue, StatusCanceled, StatusInactive:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes status strings coming from storage or billing providers.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trialing", "trial":
		return StatusTrialing, nil
	case "active":
		return StatusActive, nil
	case "past_due":
		return StatusPastDue, nil
	case "canceled", "cancelled":
		return StatusCanceled, nil
	case "inactive", "expired", "paused":
		return StatusInactive, nil
	}
	return "", errors.Join(ErrUnknownStatus, fmt.Errorf("status %q", s))
}

// Event triggers a lifecycle transition.
type Event string

const (
	EventPaymentSucceeded Event = "payment_succeeded"
	EventPaymentFailed    Event = "payment_failed"
	EventAdminConfirmed   Event = "admin_confirmed"
	EventTrialExpired     Event = "trial_expired"
	EventCancel           Event = "cancel"
	EventDeactivate       Event = "deactivate"
	EventReactivate       Event = "reactivate"
)

func (e Event) String() string {
	return string(e)
}
