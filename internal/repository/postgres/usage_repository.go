package postgres

import (
	"context"
	"database/sql"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// UsageRepository implements plan.UsageRepository
type UsageRepository struct {
	db *sql.DB
}

// NewUsageRepository creates a new daily usage repository
func NewUsageRepository(db *sql.DB) plan.UsageRepository {
	return &UsageRepository{db: db}
}

// Get returns the counter for the account and day
func (r *UsageRepository) Get(ctx context.Context, accountID, day string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT message_count FROM daily_usage WHERE account_id = $1 AND usage_date = $2`,
		accountID, day,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errors.DatabaseError("Failed to get daily usage", err)
	}
	return count, nil
}

// TryIncrement runs a single conditional upsert. The update branch only fires
// while the stored count is below limit, so the row never exceeds it and no
// row comes back once the limit is reached.
func (r *UsageRepository) TryIncrement(ctx context.Context, accountID, day string, limit int) (int, bool, error) {
	if limit <= 0 {
		count, err := r.Get(ctx, accountID, day)
		return count, false, err
	}

	query := `
		INSERT INTO daily_usage (account_id, usage_date, message_count, updated_at)
		VALUES ($1, $2, 1, $4)
		ON CONFLICT (account_id, usage_date) DO UPDATE SET
			message_count = daily_usage.message_count + 1,
			updated_at = excluded.updated_at
		WHERE daily_usage.message_count < $3
		RETURNING message_count
	`

	var count int
	err := r.db.QueryRowContext(ctx, query, accountID, day, limit, nowMillis()).Scan(&count)
	if err == sql.ErrNoRows {
		current, getErr := r.Get(ctx, accountID, day)
		return current, false, getErr
	}
	if err != nil {
		return 0, false, errors.DatabaseError("Failed to increment daily usage", err)
	}
	return count, true, nil
}

// PruneBefore deletes counters older than day
func (r *UsageRepository) PruneBefore(ctx context.Context, day string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM daily_usage WHERE usage_date < $1`, day)
	if err != nil {
		return 0, errors.DatabaseError("Failed to prune daily usage", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.DatabaseError("Failed to get affected rows", err)
	}
	return rows, nil
}
