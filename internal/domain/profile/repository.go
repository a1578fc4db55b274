package profile

import "context"

// Repository defines the interface for profile data access
type Repository interface {
	// Ensure inserts the profile if no row exists for its ID and returns the stored row
	Ensure(ctx context.Context, p *Profile) (*Profile, error)

	// GetByID retrieves a profile by account ID
	GetByID(ctx context.Context, id string) (*Profile, error)

	// GetByEmail retrieves a profile by email, case-insensitively
	GetByEmail(ctx context.Context, email string) (*Profile, error)

	// SetPremium updates the cached premium projection
	SetPremium(ctx context.Context, id string, premium bool) error
}
