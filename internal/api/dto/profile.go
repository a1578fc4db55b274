package dto

import (
	"encoding/json"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
)

// ProfileDTO represents the caller's profile
type ProfileDTO struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName,omitempty"`
	AvatarURL   *string         `json:"avatarUrl,omitempty"`
	Role        string          `json:"role"`
	IsPremium   bool            `json:"isPremium"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FromProfile converts a profile
func FromProfile(p *profile.Profile) ProfileDTO {
	return ProfileDTO{
		ID:          p.ID,
		Email:       p.Email,
		DisplayName: p.DisplayName,
		AvatarURL:   p.AvatarURL,
		Role:        string(p.Role),
		IsPremium:   p.IsPremium,
		Settings:    p.Settings,
		CreatedAt:   p.CreatedAt,
	}
}
