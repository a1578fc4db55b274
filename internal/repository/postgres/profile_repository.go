package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB) profile.Repository {
	return &ProfileRepository{db: db}
}

const profileColumns = `id, email, display_name, avatar_url, role, is_premium, settings, created_at, updated_at`

// Ensure inserts the profile unless one exists and returns the stored row
func (r *ProfileRepository) Ensure(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	settings := string(p.Settings)
	if settings == "" {
		settings = "{}"
	}
	role := p.Role
	if role == "" {
		role = profile.RoleUser
	}

	query := `
		INSERT INTO profiles (id, email, display_name, avatar_url, role, is_premium, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO NOTHING
	`

	var avatar sql.NullString
	if p.AvatarURL != nil {
		avatar = sql.NullString{String: *p.AvatarURL, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Email, p.DisplayName, avatar, string(role), p.IsPremium, settings, toMillis(p.CreatedAt),
	)
	if err != nil {
		return nil, errors.DatabaseError("Failed to create profile", err)
	}

	return r.GetByID(ctx, p.ID)
}

// GetByID retrieves a profile by account ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// GetByEmail retrieves a profile by email, case-insensitively
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE LOWER(email) = LOWER($1) ORDER BY created_at LIMIT 1`,
		email,
	)
	return scanProfile(row)
}

// SetPremium updates the cached premium projection
func (r *ProfileRepository) SetPremium(ctx context.Context, id string, premium bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET is_premium = $2, updated_at = $3 WHERE id = $1`,
		id, premium, nowMillis(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to update profile", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Profile")
	}
	return nil
}

func scanProfile(row *sql.Row) (*profile.Profile, error) {
	var p profile.Profile
	var avatar sql.NullString
	var role, settings string
	var createdAt, updatedAt int64

	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &avatar, &role, &p.IsPremium, &settings, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Profile")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get profile", err)
	}

	if avatar.Valid {
		p.AvatarURL = &avatar.String
	}
	p.Role = profile.ParseRole(role)
	if settings != "" {
		p.Settings = json.RawMessage(settings)
	}
	p.CreatedAt = fromMillis(createdAt)
	p.UpdatedAt = fromMillis(updatedAt)

	return &p, nil
}
