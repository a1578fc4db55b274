package plan

import "time"

const day = 24 * time.Hour

// EffectiveTier applies the tier rules in order: admin role, running trial,
// premium within its paid period, and free for everything else. A nil
// subscription resolves to free.
func EffectiveTier(sub *Subscription, isAdmin bool, now time.Time) Tier {
	if isAdmin {
		return TierAdmin
	}
	if sub == nil {
		return TierFree
	}
	switch sub.PlanType {
	case PlanTrial:
		if sub.TrialEndsAt != nil && now.Before(*sub.TrialEndsAt) {
			return TierTrial
		}
	case PlanPremium:
		if premiumStatus(sub.Status) && sub.CurrentPeriodEnd != nil && now.Before(*sub.CurrentPeriodEnd) {
			return TierPremium
		}
	}
	return TierFree
}

// premiumStatus lists the statuses that keep premium access until the period
// ends. past_due is the grace period after a failed payment.
func premiumStatus(s Status) bool {
	return s == StatusActive || s == StatusTrialing || s == StatusPastDue
}

// Resolve derives the plan status. used is the free tier counter for the
// current day and is ignored for unlimited tiers.
func Resolve(sub *Subscription, isAdmin bool, used int, policy Policy, now time.Time) PlanStatus {
	tier := EffectiveTier(sub, isAdmin, now)

	status := PlanStatus{
		EffectiveTier: tier,
		IsAdmin:       tier == TierAdmin,
	}
	if sub != nil && sub.PlanType == PlanPremium {
		status.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
		status.PeriodEndsAt = sub.CurrentPeriodEnd
	}

	if tier != TierFree {
		status.CanUsePremium = true
		status.CanSend = true
		status.DailyLimit = Unlimited
		status.MessagesRemaining = Unlimited
		if tier == TierTrial {
			status.TrialDaysLeft = daysLeft(*sub.TrialEndsAt, now)
		}
		return status
	}

	limit := policy.DailyLimit
	if limit < 0 {
		limit = 0
	}
	if used < 0 {
		used = 0
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	resets := policy.NextReset(now)

	status.DailyLimit = limit
	status.MessagesUsed = used
	status.MessagesRemaining = remaining
	status.CanSend = used < limit
	status.ResetsAt = &resets
	return status
}

// daysLeft rounds the remaining trial time up to whole days
func daysLeft(ends, now time.Time) int {
	d := ends.Sub(now)
	if d <= 0 {
		return 0
	}
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}
