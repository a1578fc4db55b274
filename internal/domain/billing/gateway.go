package billing

import "context"

// Gateway is the billing provider
type Gateway interface {
	// ParseEvent verifies the webhook signature and decodes the payload
	ParseEvent(payload []byte, signature string) (*Event, error)

	// FetchSubscription retrieves the provider's current view of a subscription
	FetchSubscription(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)

	// SetCancelAtPeriodEnd schedules or clears cancellation at the end of the paid period
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*SubscriptionSnapshot, error)

	// CreateCheckout opens a hosted checkout for the premium plan
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
