package plan

import (
	"strings"
	"time"
)

// PlanType is the stored plan of a subscription row
type PlanType string

// Plan types
const (
	PlanTrial   PlanType = "trial"
	PlanFree    PlanType = "free"
	PlanPremium PlanType = "premium"
)

// Status is the billing status of a subscription row
type Status string

// Subscription statuses
const (
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	StatusTrialing Status = "trialing"
)

// ParseStatus maps a billing provider status onto the stored statuses.
// Provider states without a local counterpart fold into the closest one.
func ParseStatus(s string) Status {
	switch strings.ToLower(s) {
	case "active":
		return StatusActive
	case "trialing":
		return StatusTrialing
	case "past_due", "unpaid", "incomplete":
		return StatusPastDue
	default:
		return StatusCanceled
	}
}

// Subscription is the single plan row per account
type Subscription struct {
	AccountID             string     `json:"account_id"`
	PlanType              PlanType   `json:"plan_type"`
	Status                Status     `json:"status"`
	TrialEndsAt           *time.Time `json:"trial_ends_at,omitempty"`
	CurrentPeriodStart    *time.Time `json:"current_period_start,omitempty"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd     bool       `json:"cancel_at_period_end"`
	BillingCustomerID     string     `json:"billing_customer_id,omitempty"`
	BillingSubscriptionID string     `json:"billing_subscription_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// IsPremium reports whether the row is a premium plan, regardless of period
func (s *Subscription) IsPremium() bool {
	return s != nil && s.PlanType == PlanPremium
}

// Tier is the effective access tier derived from the subscription and role
type Tier string

// Tiers
const (
	TierAdmin   Tier = "admin"
	TierTrial   Tier = "trial"
	TierPremium Tier = "premium"
	TierFree    Tier = "free"
)

// Unlimited is reported as the limit and remaining count of tiers without a quota
const Unlimited = -1

// PlanStatus is the derived view returned with every chat reply
type PlanStatus struct {
	EffectiveTier     Tier       `json:"effective_tier"`
	CanUsePremium     bool       `json:"can_use_premium"`
	CanSend           bool       `json:"can_send"`
	DailyLimit        int        `json:"daily_limit"`
	MessagesUsed      int        `json:"messages_used"`
	MessagesRemaining int        `json:"messages_remaining"`
	TrialDaysLeft     int        `json:"trial_days_left"`
	IsAdmin           bool       `json:"is_admin"`
	ResetsAt          *time.Time `json:"resets_at,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end,omitempty"`
	PeriodEndsAt      *time.Time `json:"period_ends_at,omitempty"`
}

// Policy holds the tier parameters
type Policy struct {
	DailyLimit  int
	TrialPeriod time.Duration
	Location    *time.Location
}

// DefaultPolicy returns the stock policy: five free messages a day, a seven day trial, UTC days
func DefaultPolicy() Policy {
	return Policy{
		DailyLimit:  5,
		TrialPeriod: 7 * 24 * time.Hour,
		Location:    time.UTC,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// DayKey returns the calendar day of t in the policy timezone
func (p Policy) DayKey(t time.Time) string {
	return t.In(p.location()).Format("2006-01-02")
}

// NextReset returns the start of the day following t in the policy timezone
func (p Policy) NextReset(t time.Time) time.Time {
	local := t.In(p.location())
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, p.location())
}

// NewTrial returns the subscription row created on first contact
func (p Policy) NewTrial(accountID string, now time.Time) *Subscription {
	ends := now.Add(p.TrialPeriod)
	return &Subscription{
		AccountID:   accountID,
		PlanType:    PlanTrial,
		Status:      StatusTrialing,
		TrialEndsAt: &ends,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
