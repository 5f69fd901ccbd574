package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for Paddle webhook verification.
type PaddleConfig struct {
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
}

// PaddleParser verifies and normalizes Paddle webhook notifications.
type PaddleParser struct {
	verifier *paddle.WebhookVerifier
}

// NewPaddleParser creates a parser for webhooks signed with the configured secret.
func NewPaddleParser(cfg PaddleConfig) (*PaddleParser, error) {
	if cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &PaddleParser{verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret)}, nil
}

type paddleNotification struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	OccurredAt string         `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// Parse verifies the Paddle-Signature header value and decodes payload.
func (p *PaddleParser) Parse(ctx context.Context, payload []byte, signature string) (*BillingEvent, error) {
	// The SDK verifier works on requests, so wrap the payload in one.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	return decodePaddleNotification(payload)
}

// ParseRequest is like Parse but reads the payload and signature from r.
func (p *PaddleParser) ParseRequest(r *http.Request) (*BillingEvent, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	return p.Parse(r.Context(), body, r.Header.Get("Paddle-Signature"))
}

// decodePaddleNotification normalizes subscription.* and transaction.* notifications.
func decodePaddleNotification(payload []byte) (*BillingEvent, error) {
	var n paddleNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if n.EventType == "" {
		return nil, errors.Join(ErrInvalidWebhookPayload, errors.New("missing event_type"))
	}

	event := &BillingEvent{
		Type:          mapPaddleEventType(n.EventType),
		ProviderEvent: n.EventType,
	}
	if ts, err := time.Parse(time.RFC3339Nano, n.OccurredAt); err == nil {
		event.OccurredAt = ts.UTC()
	}

	if status, ok := n.Data["status"].(string); ok {
		event.Status = status
	}
	if customData, ok := n.Data["custom_data"].(map[string]any); ok {
		if customerID, ok := customData["tenant_id"].(string); ok {
			event.CustomerID = customerID
		}
	}

	switch {
	case strings.HasPrefix(n.EventType, "subscription."):
		if subID, ok := n.Data["id"].(string); ok {
			event.SubscriptionID = subID
		}
		event.PeriodEndsAt = periodEnd(n.Data, "current_billing_period")
		if item := firstItem(n.Data); item != nil {
			if price, ok := item["price"].(map[string]any); ok {
				if priceID, ok := price["id"].(string); ok {
					event.PriceID = priceID
				}
			}
		}
	case strings.HasPrefix(n.EventType, "transaction."):
		if subID, ok := n.Data["subscription_id"].(string); ok {
			event.SubscriptionID = subID
		}
		event.PeriodEndsAt = periodEnd(n.Data, "billing_period")
		if item := firstItem(n.Data); item != nil {
			if priceID, ok := item["price_id"].(string); ok {
				event.PriceID = priceID
			}
		}
	}

	return event, nil
}

// periodEnd reads data[key].ends_at. Paddle reports subscription periods as
// current_billing_period and transaction periods as billing_period.
func periodEnd(data map[string]any, key string) time.Time {
	period, ok := data[key].(map[string]any)
	if !ok {
		return time.Time{}
	}
	raw, ok := period["ends_at"].(string)
	if !ok {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

func firstItem(data map[string]any) map[string]any {
	items, ok := data["items"].([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	item, _ := items[0].(map[string]any)
	return item
}

func mapPaddleEventType(paddleEvent string) EventType {
	switch paddleEvent {
	case "subscription.created", "subscription.activated":
		return BillingSubscriptionCreated
	case "subscription.updated", "subscription.past_due":
		return BillingSubscriptionUpdated
	case "subscription.canceled":
		return BillingSubscriptionCanceled
	case "subscription.resumed":
		return BillingSubscriptionResumed
	case "transaction.completed", "transaction.paid":
		return BillingPaymentSucceeded
	case "transaction.payment_failed":
		return BillingPaymentFailed
	default:
		return EventType(paddleEvent)
	}
}
