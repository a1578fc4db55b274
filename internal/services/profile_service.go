package services

import (
	"context"

	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
)

// ProfileService implements profile.Service
type ProfileService struct {
	repo   profile.Repository
	clock  Clock
	logger *logger.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(repo profile.Repository, clock Clock, log *logger.Logger) profile.Service {
	return &ProfileService{
		repo:   repo,
		clock:  clock,
		logger: log,
	}
}

// Ensure returns the caller's profile, creating it on first contact
func (s *ProfileService) Ensure(ctx context.Context, id profile.Identity) (*profile.Profile, error) {
	now := s.clock.now()
	p, err := s.repo.Ensure(ctx, &profile.Profile{
		ID:        id.AccountID,
		Email:     id.Email,
		Role:      id.Role,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"account_id": id.AccountID,
		}).ErrorWithErr(err, "Failed to ensure profile")
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a profile by account ID
func (s *ProfileService) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// FindAccountByEmail returns the account owning email, or "" when unknown
func (s *ProfileService) FindAccountByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", nil
	}
	p, err := s.repo.GetByEmail(ctx, email)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// SyncPremium writes the premium projection. Accounts without a profile yet
// are skipped; the profile picks the value up on its next billing event.
func (s *ProfileService) SyncPremium(ctx context.Context, accountID string, premium bool) error {
	err := s.repo.SetPremium(ctx, accountID, premium)
	if errors.HasCode(err, errors.ErrCodeNotFound) {
		s.logger.WithFields(map[string]interface{}{
			"account_id": accountID,
		}).Debug("No profile to project premium flag onto")
		return nil
	}
	return err
}
