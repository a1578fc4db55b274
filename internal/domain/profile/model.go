package profile

import (
	"encoding/json"
	"time"
)

// Role is the access role carried by a verified identity
type Role string

// User roles
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole maps a token role claim to a Role. Unknown values are plain users.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// Profile is the per-account application record
type Profile struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	AvatarURL   *string         `json:"avatar_url,omitempty"`
	Role        Role            `json:"role"`
	// IsPremium mirrors the subscription state for legacy readers. The
	// subscription row is authoritative; only the billing reducer writes this.
	IsPremium bool            `json:"is_premium"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Identity is the verified caller as handed over by the authentication boundary
type Identity struct {
	AccountID string
	Email     string
	Role      Role
}

// IsAdmin reports whether the caller holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
