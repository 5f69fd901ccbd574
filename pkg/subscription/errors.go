package subscription

import (
	"errors"
	"fmt"
)

// ErrAccessDenied is the parent of every access-gate error, so callers can
// tell "may not use the product" apart from "limit exceeded".
var ErrAccessDenied = errors.New("subscription access denied")

var (
	ErrSubscriptionInactive = fmt.Errorf("%w: subscription is inactive", ErrAccessDenied)
	ErrSubscriptionCanceled = fmt.Errorf("%w: subscription is canceled", ErrAccessDenied)
	ErrSubscriptionExpired  = fmt.Errorf("%w: subscription period has ended", ErrAccessDenied)
	ErrTrialExpired         = fmt.Errorf("%w: trial has expired", ErrAccessDenied)
)

var (
	ErrUnknownStatus        = errors.New("unknown subscription status")
	ErrTransitionNotAllowed = errors.New("subscription transition not allowed")

	ErrMissingWebhookSecret      = errors.New("billing provider webhook secret is required")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")
)
