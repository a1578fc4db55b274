package plan

import (
	"context"

	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
)

// Service defines the interface for plan and quota business logic
type Service interface {
	// Status resolves the caller's plan status without side effects
	Status(ctx context.Context, id profile.Identity) (*PlanStatus, error)

	// Bootstrap ensures the caller has a subscription row, starting a trial on first contact
	Bootstrap(ctx context.Context, id profile.Identity) (*Subscription, error)

	// TryConsume spends one free tier message for today. allowed is false when
	// the daily limit is already reached; the counter is then left untouched.
	TryConsume(ctx context.Context, id profile.Identity) (allowed bool, status *PlanStatus, err error)

	// Subscription returns the caller's row, or nil when none exists
	Subscription(ctx context.Context, accountID string) (*Subscription, error)

	// Policy returns the active tier policy
	Policy() Policy
}
