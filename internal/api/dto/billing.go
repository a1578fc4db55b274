package dto

import "github.com/pratik-mahalle/dialekt/internal/domain/billing"

// PlanDTO represents one entry of the plan catalogue
type PlanDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DailyLimit  int      `json:"dailyLimit"`
	PremiumChat bool     `json:"premiumChat"`
	TrialDays   int      `json:"trialDays,omitempty"`
	Features    []string `json:"features"`
	IsCurrent   bool     `json:"isCurrent"`
}

// CheckoutResponse carries the hosted checkout redirect
type CheckoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SubscriptionActionRequest asks to cancel or reactivate the premium subscription
type SubscriptionActionRequest struct {
	Action          string `json:"action" validate:"required,oneof=cancel reactivate"`
	SubscriptionRef string `json:"subscriptionRef,omitempty" validate:"omitempty,max=255"`
}

// SubscriptionActionResponse returns the updated subscription
type SubscriptionActionResponse struct {
	Subscription *SubscriptionDTO `json:"subscription"`
}

// FromPlans converts the catalogue, flagging the caller's current plan
func FromPlans(plans []billing.PlanInfo, current string) []PlanDTO {
	out := make([]PlanDTO, len(plans))
	for i, p := range plans {
		out[i] = PlanDTO{
			ID:          p.ID,
			Name:        p.Name,
			DailyLimit:  p.DailyLimit,
			PremiumChat: p.PremiumChat,
			TrialDays:   p.TrialDays,
			Features:    p.Features,
			IsCurrent:   p.ID == current,
		}
	}
	return out
}
