package dto

import (
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
)

// PlanStatusDTO represents the caller's entitlements.
// Unlimited tiers report -1 for dailyLimit and messagesRemaining.
type PlanStatusDTO struct {
	EffectiveTier     string     `json:"effectiveTier"`
	CanUsePremium     bool       `json:"canUsePremium"`
	CanSend           bool       `json:"canSend"`
	DailyLimit        int        `json:"dailyLimit"`
	MessagesUsed      int        `json:"messagesUsed"`
	MessagesRemaining int        `json:"messagesRemaining"`
	TrialDaysLeft     int        `json:"trialDaysLeft"`
	IsAdmin           bool       `json:"isAdmin"`
	ResetsAt          *time.Time `json:"resetsAt,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	PeriodEndsAt      *time.Time `json:"periodEndsAt,omitempty"`
}

// SubscriptionDTO represents the plan store row exposed to its owner
type SubscriptionDTO struct {
	PlanType           string     `json:"planType"`
	Status             string     `json:"status"`
	TrialEndsAt        *time.Time `json:"trialEndsAt,omitempty"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	SubscriptionRef    string     `json:"subscriptionRef,omitempty"`
}

// FromPlanStatus converts a resolved plan status
func FromPlanStatus(s *plan.PlanStatus) PlanStatusDTO {
	return PlanStatusDTO{
		EffectiveTier:     string(s.EffectiveTier),
		CanUsePremium:     s.CanUsePremium,
		CanSend:           s.CanSend,
		DailyLimit:        s.DailyLimit,
		MessagesUsed:      s.MessagesUsed,
		MessagesRemaining: s.MessagesRemaining,
		TrialDaysLeft:     s.TrialDaysLeft,
		IsAdmin:           s.IsAdmin,
		ResetsAt:          s.ResetsAt,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		PeriodEndsAt:      s.PeriodEndsAt,
	}
}

// FromSubscription converts a plan store row. Nil rows yield nil.
func FromSubscription(s *plan.Subscription) *SubscriptionDTO {
	if s == nil {
		return nil
	}
	return &SubscriptionDTO{
		PlanType:           string(s.PlanType),
		Status:             string(s.Status),
		TrialEndsAt:        s.TrialEndsAt,
		CurrentPeriodStart: s.CurrentPeriodStart,
		CurrentPeriodEnd:   s.CurrentPeriodEnd,
		CancelAtPeriodEnd:  s.CancelAtPeriodEnd,
		SubscriptionRef:    s.BillingSubscriptionID,
	}
}

// PlanStatusResponse bundles the status with the underlying row
type PlanStatusResponse struct {
	Status       PlanStatusDTO    `json:"status"`
	Subscription *SubscriptionDTO `json:"subscription,omitempty"`
}
