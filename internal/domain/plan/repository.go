package plan

import "context"

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	// FindByAccountID returns the row for the account, or nil when none exists
	FindByAccountID(ctx context.Context, accountID string) (*Subscription, error)

	// FindByCustomerID returns the row linked to a billing customer, or nil
	FindByCustomerID(ctx context.Context, customerID string) (*Subscription, error)

	// CreateIfAbsent inserts sub unless the account already has a row and
	// returns whichever row is stored
	CreateIfAbsent(ctx context.Context, sub *Subscription) (*Subscription, error)

	// ApplyBilling overwrites the premium fields carried by a billing
	// subscription, creating the row when missing
	ApplyBilling(ctx context.Context, sub *Subscription) error

	// MarkCanceled moves the account to the free plan with status canceled
	MarkCanceled(ctx context.Context, accountID string) error

	// MarkPastDue sets status past_due and leaves the plan unchanged
	MarkPastDue(ctx context.Context, accountID string) error

	// SetCancelAtPeriodEnd updates the scheduled cancellation flag
	SetCancelAtPeriodEnd(ctx context.Context, accountID string, cancel bool) error
}

// UsageRepository defines the interface for the daily quota counter
type UsageRepository interface {
	// Get returns the counter for the account and day, 0 when absent
	Get(ctx context.Context, accountID, day string) (int, error)

	// TryIncrement atomically increments the counter unless it already reached
	// limit. It returns the stored count and whether the increment happened.
	TryIncrement(ctx context.Context, accountID, day string, limit int) (int, bool, error)

	// PruneBefore deletes counters for days strictly before day
	PruneBefore(ctx context.Context, day string) (int64, error)
}
