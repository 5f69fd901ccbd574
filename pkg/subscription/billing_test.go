package subscription_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/restokit/pkg/subscription"
)

func TestBillingEvent_LifecycleEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  subscription.BillingEvent
		want   subscription.Event
		mapped bool
	}{
		{"payment succeeded", subscription.BillingEvent{Type: subscription.BillingPaymentSucceeded}, subscription.EventPaymentSucceeded, true},
		{"payment failed", subscription.BillingEvent{Type: subscription.BillingPaymentFailed}, subscription.EventPaymentFailed, true},
		{"canceled", subscription.BillingEvent{Type: subscription.BillingSubscriptionCanceled}, subscription.EventCancel, true},
		{"resumed", subscription.BillingEvent{Type: subscription.BillingSubscriptionResumed}, subscription.EventReactivate, true},
		{"updated to past due", subscription.BillingEvent{Type: subscription.BillingSubscriptionUpdated, Status: "past_due"}, subscription.EventPaymentFailed, true},
		{"created active", subscription.BillingEvent{Type: subscription.BillingSubscriptionCreated, Status: "active"}, subscription.EventPaymentSucceeded, true},
		{"created trialing", subscription.BillingEvent{Type: subscription.BillingSubscriptionCreated, Status: "trialing"}, "", false},
		{"updated unknown status", subscription.BillingEvent{Type: subscription.BillingSubscriptionUpdated, Status: "weird"}, "", false},
		{"unmapped provider event", subscription.BillingEvent{Type: "adjustment.created"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tt.event.LifecycleEvent()
			assert.Equal(t, tt.mapped, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPaddleParser(t *testing.T) {
	t.Parallel()

	_, err := subscription.NewPaddleParser(subscription.PaddleConfig{})
	assert.ErrorIs(t, err, subscription.ErrMissingWebhookSecret)

	p, err := subscription.NewPaddleParser(subscription.PaddleConfig{WebhookSecret: "pdl_ntfset_secret"})
	require.NoError(t, err)

	_, err = p.Parse(context.Background(), []byte(`{"event_type":"transaction.completed"}`), "ts=1;h1=deadbeef")
	assert.ErrorIs(t, err, subscription.ErrWebhookVerificationFailed)
}
