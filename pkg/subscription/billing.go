package subscription

import "time"

// EventType is a billing event normalized across providers.
type EventType string

const (
	BillingSubscriptionCreated  EventType = "subscription_created"
	BillingSubscriptionUpdated  EventType = "subscription_updated"
	BillingSubscriptionCanceled EventType = "subscription_canceled"
	BillingSubscriptionResumed  EventType = "subscription_resumed"
	BillingPaymentSucceeded     EventType = "payment_succeeded"
	BillingPaymentFailed        EventType = "payment_failed"
)

// BillingEvent is a verified, normalized webhook event from a billing provider.
type BillingEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider's subscription ID
	CustomerID     string // tenant ID from custom data
	Status         string // provider's subscription status, if present
	PriceID        string
	PeriodEndsAt   time.Time // end of the current billing period, zero if not reported
	OccurredAt     time.Time
}

// LifecycleEvent maps a billing event to the lifecycle event it implies.
// The second result is false for events that do not change the subscription state.
func (e BillingEvent) LifecycleEvent() (Event, bool) {
	switch e.Type {
	case BillingPaymentSucceeded:
		return EventPaymentSucceeded, true
	case BillingPaymentFailed:
		return EventPaymentFailed, true
	case BillingSubscriptionCanceled:
		return EventCancel, true
	case BillingSubscriptionResumed:
		return EventReactivate, true
	case BillingSubscriptionCreated, BillingSubscriptionUpdated:
		status, err := ParseStatus(e.Status)
		if err != nil {
			return "", false
		}
		switch status {
		case StatusActive:
			return EventPaymentSucceeded, true
		case StatusPastDue:
			return EventPaymentFailed, true
		case StatusCanceled:
			return EventCancel, true
		}
	}
	return "", false
}
