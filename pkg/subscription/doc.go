// Package subscription models the tenant subscription lifecycle and the
// access gate derived from it.
//
// States: trialing, active, past_due, canceled, inactive. Lifecycle applies
// events (payment_succeeded, payment_failed, admin_confirmed, trial_expired,
// cancel, deactivate, reactivate) through a shared statemachine table:
//
//	lc := subscription.NewLifecycle()
//	if err := lc.Apply(ctx, &t.Subscription, subscription.EventPaymentFailed, time.Now()); err != nil {
//	    // errors.Is(err, subscription.ErrTransitionNotAllowed)
//	}
//
// State.Access answers whether the tenant may use the product at all. It runs
// before any resource-limit check and every denial wraps ErrAccessDenied:
//
//	if err := t.Subscription.Access(time.Now()); err != nil {
//	    // ErrTrialExpired, ErrSubscriptionCanceled, ErrSubscriptionInactive, ErrSubscriptionExpired
//	}
//
// Billing providers feed the lifecycle through normalized BillingEvents.
// PaddleParser verifies Paddle webhook signatures and decodes notifications;
// BillingEvent.LifecycleEvent maps them onto lifecycle events.
package subscription
