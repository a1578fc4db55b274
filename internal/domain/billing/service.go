package billing

import (
	"context"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
)

// Service defines the interface for billing business logic
type Service interface {
	// HandleEvent folds a billing event into the plan store
	HandleEvent(ctx context.Context, event *Event) error

	// Apply runs a cancel or reactivate action for the caller. A non-empty
	// subscriptionRef must match the caller's billing subscription.
	Apply(ctx context.Context, accountID string, action Action, subscriptionRef string) (*plan.Subscription, error)

	// Checkout opens a hosted checkout for the premium plan
	Checkout(ctx context.Context, id profile.Identity) (*CheckoutSession, error)

	// Plans lists the plan catalogue
	Plans() []PlanInfo
}
