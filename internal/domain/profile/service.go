package profile

import "context"

// Service defines the interface for profile business logic
type Service interface {
	// Ensure returns the caller's profile, creating it on first contact
	Ensure(ctx context.Context, id Identity) (*Profile, error)

	// GetByID retrieves a profile by account ID
	GetByID(ctx context.Context, id string) (*Profile, error)

	// FindAccountByEmail returns the account ID owning email, or "" when unknown
	FindAccountByEmail(ctx context.Context, email string) (string, error)

	// SyncPremium writes the premium projection derived from the subscription
	SyncPremium(ctx context.Context, accountID string, premium bool) error
}
