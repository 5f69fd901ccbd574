package audit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Action names a recorded change.
type Action string

const (
	ActionPlanChanged            Action = "plan.changed"
	ActionPlanOverride           Action = "plan.override"
	ActionSubscriptionTransition Action = "subscription.transition"
	ActionSubscriptionRenewed    Action = "subscription.renewed"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultFailure Result = "failure"
)

// Event is a single audit trail entry for a tenant.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	Actor     string         `json:"actor"` // admin email, "billing" or "system"
	Action    Action         `json:"action"`
	Result    Result         `json:"result"`
	Reason    string         `json:"reason,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.TenantID == uuid.Nil {
		return fmt.Errorf("%w: tenant id is required", ErrEventValidation)
	}
	if e.Actor == "" {
		return fmt.Errorf("%w: actor is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

func WithActor(actor string) EventOption {
	return func(e *Event) {
		e.Actor = actor
	}
}

func WithReason(reason string) EventOption {
	return func(e *Event) {
		e.Reason = reason
	}
}

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// WithError marks the event as failed.
func WithError(err error) EventOption {
	return func(e *Event) {
		if err != nil {
			e.Result = ResultFailure
			e.Error = err.Error()
		}
	}
}
