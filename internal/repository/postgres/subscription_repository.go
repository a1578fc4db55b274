package postgres

import (
	"context"
	"database/sql"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// SubscriptionRepository implements plan.SubscriptionRepository
type SubscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *sql.DB) plan.SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `account_id, plan_type, status, trial_ends_at, current_period_start, current_period_end,
	cancel_at_period_end, billing_customer_id, billing_subscription_id, created_at, updated_at`

// FindByAccountID returns the account's row, or nil when none exists
func (r *SubscriptionRepository) FindByAccountID(ctx context.Context, accountID string) (*plan.Subscription, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE account_id = $1`, accountID)
	return scanSubscription(row)
}

// FindByCustomerID returns the row linked to a billing customer, or nil
func (r *SubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) (*plan.Subscription, error) {
	if customerID == "" {
		return nil, nil
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE billing_customer_id = $1
		 ORDER BY updated_at DESC LIMIT 1`, customerID)
	return scanSubscription(row)
}

// CreateIfAbsent inserts sub unless the account already has a row
func (r *SubscriptionRepository) CreateIfAbsent(ctx context.Context, sub *plan.Subscription) (*plan.Subscription, error) {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (account_id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.AccountID, string(sub.PlanType), string(sub.Status),
		nullMillis(sub.TrialEndsAt), nullMillis(sub.CurrentPeriodStart), nullMillis(sub.CurrentPeriodEnd),
		sub.CancelAtPeriodEnd, nullString(sub.BillingCustomerID), nullString(sub.BillingSubscriptionID),
		toMillis(sub.CreatedAt),
	)
	if err != nil {
		return nil, errors.DatabaseError("Failed to create subscription", err)
	}

	stored, err := r.FindByAccountID(ctx, sub.AccountID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.DatabaseError("Failed to create subscription", sql.ErrNoRows)
	}
	return stored, nil
}

// ApplyBilling overwrites the fields carried by a billing subscription.
// Replaying the same update leaves every field but updated_at unchanged.
// Customer and subscription references are only replaced by non-empty values.
func (r *SubscriptionRepository) ApplyBilling(ctx context.Context, sub *plan.Subscription) error {
	query := `
		INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, NULL, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (account_id) DO UPDATE SET
			plan_type = excluded.plan_type,
			status = excluded.status,
			trial_ends_at = NULL,
			current_period_start = excluded.current_period_start,
			current_period_end = excluded.current_period_end,
			cancel_at_period_end = excluded.cancel_at_period_end,
			billing_customer_id = COALESCE(excluded.billing_customer_id, subscriptions.billing_customer_id),
			billing_subscription_id = COALESCE(excluded.billing_subscription_id, subscriptions.billing_subscription_id),
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.AccountID, string(sub.PlanType), string(sub.Status),
		nullMillis(sub.CurrentPeriodStart), nullMillis(sub.CurrentPeriodEnd), sub.CancelAtPeriodEnd,
		nullString(sub.BillingCustomerID), nullString(sub.BillingSubscriptionID),
		nowMillis(),
	)
	if err != nil {
		return errors.DatabaseError("Failed to apply billing subscription", err)
	}
	return nil
}

// MarkCanceled moves the account to the free plan
func (r *SubscriptionRepository) MarkCanceled(ctx context.Context, accountID string) error {
	return r.update(ctx,
		`UPDATE subscriptions SET plan_type = $2, status = $3, cancel_at_period_end = $4, updated_at = $5
		 WHERE account_id = $1`,
		accountID, string(plan.PlanFree), string(plan.StatusCanceled), false, nowMillis(),
	)
}

// MarkPastDue flags a failed payment without touching the plan
func (r *SubscriptionRepository) MarkPastDue(ctx context.Context, accountID string) error {
	return r.update(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = $3 WHERE account_id = $1`,
		accountID, string(plan.StatusPastDue), nowMillis(),
	)
}

// SetCancelAtPeriodEnd updates the scheduled cancellation flag
func (r *SubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, accountID string, cancel bool) error {
	return r.update(ctx,
		`UPDATE subscriptions SET cancel_at_period_end = $2, updated_at = $3 WHERE account_id = $1`,
		accountID, cancel, nowMillis(),
	)
}

func (r *SubscriptionRepository) update(ctx context.Context, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.DatabaseError("Failed to update subscription", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Subscription")
	}
	return nil
}

func scanSubscription(row *sql.Row) (*plan.Subscription, error) {
	var s plan.Subscription
	var planType, status string
	var trialEnds, periodStart, periodEnd sql.NullInt64
	var customerID, subscriptionID sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(
		&s.AccountID, &planType, &status, &trialEnds, &periodStart, &periodEnd,
		&s.CancelAtPeriodEnd, &customerID, &subscriptionID, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get subscription", err)
	}

	s.PlanType = plan.PlanType(planType)
	s.Status = plan.Status(status)
	s.TrialEndsAt = timePtr(trialEnds)
	s.CurrentPeriodStart = timePtr(periodStart)
	s.CurrentPeriodEnd = timePtr(periodEnd)
	s.BillingCustomerID = customerID.String
	s.BillingSubscriptionID = subscriptionID.String
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)

	return &s, nil
}
