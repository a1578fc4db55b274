package services

import (
	"context"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/metrics"
)

// PlanService implements plan.Service
type PlanService struct {
	subs     plan.SubscriptionRepository
	usage    plan.UsageRepository
	profiles profile.Service
	policy   plan.Policy
	clock    Clock
	logger   *logger.Logger
}

// NewPlanService creates a new plan service
func NewPlanService(
	subs plan.SubscriptionRepository,
	usage plan.UsageRepository,
	profiles profile.Service,
	policy plan.Policy,
	clock Clock,
	log *logger.Logger,
) plan.Service {
	return &PlanService{
		subs:     subs,
		usage:    usage,
		profiles: profiles,
		policy:   policy,
		clock:    clock,
		logger:   log,
	}
}

// Policy returns the active tier policy
func (s *PlanService) Policy() plan.Policy {
	return s.policy
}

// Subscription returns the account's row, or nil
func (s *PlanService) Subscription(ctx context.Context, accountID string) (*plan.Subscription, error) {
	return s.subs.FindByAccountID(ctx, accountID)
}

// Status resolves the caller's plan status. The usage counter is only read
// for the free tier.
func (s *PlanService) Status(ctx context.Context, id profile.Identity) (*plan.PlanStatus, error) {
	now := s.clock.now()

	sub, err := s.subs.FindByAccountID(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}

	used := 0
	if plan.EffectiveTier(sub, id.IsAdmin(), now) == plan.TierFree {
		used, err = s.usage.Get(ctx, id.AccountID, s.policy.DayKey(now))
		if err != nil {
			return nil, err
		}
	}

	status := plan.Resolve(sub, id.IsAdmin(), used, s.policy, now)
	return &status, nil
}

// Bootstrap creates the profile and a trial row on first contact
func (s *PlanService) Bootstrap(ctx context.Context, id profile.Identity) (*plan.Subscription, error) {
	sub, err := s.subs.FindByAccountID(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		return sub, nil
	}

	if _, err := s.profiles.Ensure(ctx, id); err != nil {
		return nil, err
	}

	now := s.clock.now()
	sub, err = s.subs.CreateIfAbsent(ctx, s.policy.NewTrial(id.AccountID, now))
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"account_id": id.AccountID,
		}).ErrorWithErr(err, "Failed to bootstrap subscription")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id":    id.AccountID,
		"plan_type":     sub.PlanType,
		"trial_ends_at": sub.TrialEndsAt,
	}).Info("Subscription bootstrapped")

	return sub, nil
}

// TryConsume spends one free tier message. Unlimited tiers are always allowed
// and never touch the counter.
func (s *PlanService) TryConsume(ctx context.Context, id profile.Identity) (bool, *plan.PlanStatus, error) {
	now := s.clock.now()

	sub, err := s.subs.FindByAccountID(ctx, id.AccountID)
	if err != nil {
		return false, nil, err
	}

	if plan.EffectiveTier(sub, id.IsAdmin(), now) != plan.TierFree {
		status := plan.Resolve(sub, id.IsAdmin(), 0, s.policy, now)
		return true, &status, nil
	}

	count, allowed, err := s.usage.TryIncrement(ctx, id.AccountID, s.policy.DayKey(now), s.policy.DailyLimit)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"account_id": id.AccountID,
		}).ErrorWithErr(err, "Failed to consume quota")
		return false, nil, err
	}
	metrics.RecordQuotaDecision(allowed)

	status := plan.Resolve(sub, false, count, s.policy, now)
	if !allowed {
		s.logger.WithFields(map[string]interface{}{
			"account_id":  id.AccountID,
			"daily_limit": s.policy.DailyLimit,
		}).Info("Daily limit reached")
	}
	return allowed, &status, nil
}
