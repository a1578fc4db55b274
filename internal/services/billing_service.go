package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/metrics"
)

// BillingService implements billing.Service
type BillingService struct {
	gateway  billing.Gateway
	subs     plan.SubscriptionRepository
	plans    plan.Service
	profiles profile.Service
	timeout  time.Duration
	clock    Clock
	logger   *logger.Logger
}

// NewBillingService creates a new billing service
func NewBillingService(
	gateway billing.Gateway,
	subs plan.SubscriptionRepository,
	plans plan.Service,
	profiles profile.Service,
	timeout time.Duration,
	clock Clock,
	log *logger.Logger,
) billing.Service {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &BillingService{
		gateway:  gateway,
		subs:     subs,
		plans:    plans,
		profiles: profiles,
		timeout:  timeout,
		clock:    clock,
		logger:   log,
	}
}

// HandleEvent folds a billing event into the plan store. Each handler
// overwrites the fields it carries, so redelivered events are harmless.
// Events that cannot be matched to an account are acknowledged and logged.
func (s *BillingService) HandleEvent(ctx context.Context, ev *billing.Event) error {
	log := s.logger.WithFields(map[string]interface{}{
		"event_id":        ev.ID,
		"event_type":      ev.Type,
		"subscription_id": ev.SubscriptionID,
		"customer_id":     ev.CustomerID,
	})

	outcome, err := s.reduce(ctx, ev)
	metrics.RecordBillingEvent(string(ev.Type), outcome)

	if err != nil {
		log.ErrorWithErr(err, "Failed to process billing event")
		return err
	}
	if outcome == "unmatched" {
		log.Warn("Billing event did not match any account")
		return nil
	}
	log.With("outcome", outcome).Info("Billing event processed")
	return nil
}

func (s *BillingService) reduce(ctx context.Context, ev *billing.Event) (string, error) {
	switch ev.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		if ev.Subscription == nil {
			return "ignored", nil
		}
		return s.applySnapshot(ctx, ev, ev.Subscription)

	case billing.EventSubscriptionDeleted:
		account, err := s.resolveAccount(ctx, ev, ev.Subscription)
		if err != nil || account == "" {
			return "unmatched", err
		}
		if err := s.subs.MarkCanceled(ctx, account); err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				return "unmatched", nil
			}
			return "error", err
		}
		return "applied", s.profiles.SyncPremium(ctx, account, false)

	case billing.EventPaymentSucceeded, billing.EventCheckoutCompleted:
		if ev.SubscriptionID == "" {
			return "ignored", nil
		}
		snap, err := s.fetch(ctx, ev.SubscriptionID)
		if err != nil {
			return "error", err
		}
		return s.applySnapshot(ctx, ev, snap)

	case billing.EventPaymentFailed:
		account, err := s.resolveAccount(ctx, ev, nil)
		if err != nil || account == "" {
			return "unmatched", err
		}
		if err := s.subs.MarkPastDue(ctx, account); err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				return "unmatched", nil
			}
			return "error", err
		}
		return "applied", nil

	default:
		return "ignored", nil
	}
}

// applySnapshot writes the provider's subscription state as a premium row
func (s *BillingService) applySnapshot(ctx context.Context, ev *billing.Event, snap *billing.SubscriptionSnapshot) (string, error) {
	account, err := s.resolveAccount(ctx, ev, snap)
	if err != nil {
		return "error", err
	}
	if account == "" {
		return "unmatched", nil
	}

	sub := &plan.Subscription{
		AccountID:             account,
		PlanType:              plan.PlanPremium,
		Status:                plan.ParseStatus(snap.Status),
		CancelAtPeriodEnd:     snap.CancelAtPeriodEnd,
		BillingCustomerID:     snap.CustomerID,
		BillingSubscriptionID: snap.ID,
	}
	if !snap.CurrentPeriodStart.IsZero() {
		start := snap.CurrentPeriodStart
		sub.CurrentPeriodStart = &start
	}
	if !snap.CurrentPeriodEnd.IsZero() {
		end := snap.CurrentPeriodEnd
		sub.CurrentPeriodEnd = &end
	}

	if err := s.subs.ApplyBilling(ctx, sub); err != nil {
		return "error", err
	}

	premium := plan.EffectiveTier(sub, false, s.clock.now()) == plan.TierPremium
	if err := s.profiles.SyncPremium(ctx, account, premium); err != nil {
		return "error", err
	}
	return "applied", nil
}

// resolveAccount finds the account an event belongs to: explicit account
// metadata first, then the stored customer link, then the customer email.
func (s *BillingService) resolveAccount(ctx context.Context, ev *billing.Event, snap *billing.SubscriptionSnapshot) (string, error) {
	if snap != nil && snap.AccountID != "" {
		return snap.AccountID, nil
	}
	if ev.AccountID != "" {
		return ev.AccountID, nil
	}

	customerID := ev.CustomerID
	if customerID == "" && snap != nil {
		customerID = snap.CustomerID
	}
	if customerID != "" {
		sub, err := s.subs.FindByCustomerID(ctx, customerID)
		if err != nil {
			return "", err
		}
		if sub != nil {
			return sub.AccountID, nil
		}
	}

	return s.profiles.FindAccountByEmail(ctx, ev.CustomerEmail)
}

func (s *BillingService) fetch(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.gateway.FetchSubscription(gctx, subscriptionID)
}

// Apply schedules or clears cancellation at period end. The provider is
// updated first; the local row follows only after it confirms.
func (s *BillingService) Apply(ctx context.Context, accountID string, action billing.Action, subscriptionRef string) (*plan.Subscription, error) {
	var cancel bool
	switch action {
	case billing.ActionCancel:
		cancel = true
	case billing.ActionReactivate:
		cancel = false
	default:
		return nil, errors.BadRequest("action must be cancel or reactivate")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"account_id": accountID,
		"action":     action,
	})

	sub, err := s.subs.FindByAccountID(ctx, accountID)
	if err != nil {
		metrics.RecordSubscriptionAction(string(action), "error")
		return nil, err
	}
	if !sub.IsPremium() || sub.BillingSubscriptionID == "" || sub.Status == plan.StatusCanceled {
		metrics.RecordSubscriptionAction(string(action), "no_subscription")
		return nil, errors.NoActiveSubscription()
	}
	if subscriptionRef != "" && subscriptionRef != sub.BillingSubscriptionID {
		metrics.RecordSubscriptionAction(string(action), "forbidden")
		return nil, errors.Forbidden("Subscription belongs to another account")
	}

	gctx, cancelCtx := context.WithTimeout(ctx, s.timeout)
	defer cancelCtx()

	snap, err := s.gateway.SetCancelAtPeriodEnd(gctx, sub.BillingSubscriptionID, cancel)
	if err != nil {
		metrics.RecordSubscriptionAction(string(action), "provider_error")
		log.ErrorWithErr(err, "Billing provider rejected subscription action")
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.ProviderAPIError("billing", err)
	}

	if err := s.subs.SetCancelAtPeriodEnd(ctx, accountID, snap.CancelAtPeriodEnd); err != nil {
		metrics.RecordSubscriptionAction(string(action), "error")
		return nil, err
	}

	metrics.RecordSubscriptionAction(string(action), "ok")
	log.Info("Subscription action applied")

	return s.subs.FindByAccountID(ctx, accountID)
}

// Checkout opens a hosted checkout for the premium plan
func (s *BillingService) Checkout(ctx context.Context, id profile.Identity) (*billing.CheckoutSession, error) {
	sub, err := s.plans.Bootstrap(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.EffectiveTier(sub, false, s.clock.now()) == plan.TierPremium {
		return nil, errors.Conflict("Account already has an active premium subscription")
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.gateway.CreateCheckout(gctx, billing.CheckoutRequest{
		AccountID:  id.AccountID,
		Email:      id.Email,
		CustomerID: sub.BillingCustomerID,
	})
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"account_id": id.AccountID,
		}).ErrorWithErr(err, "Failed to create checkout session")
		return nil, err
	}
	return session, nil
}

// Plans lists the plan catalogue
func (s *BillingService) Plans() []billing.PlanInfo {
	policy := s.plans.Policy()
	return []billing.PlanInfo{
		{
			ID:          string(plan.PlanTrial),
			Name:        "Trial",
			DailyLimit:  plan.Unlimited,
			PremiumChat: true,
			TrialDays:   int(policy.TrialPeriod / (24 * time.Hour)),
			Features:    []string{"Unlimited messages", "Authentic dialect mode"},
		},
		{
			ID:          string(plan.PlanFree),
			Name:        "Free",
			DailyLimit:  policy.DailyLimit,
			PremiumChat: false,
			Features:    []string{"Standard chat mode", "Daily message quota"},
		},
		{
			ID:          string(plan.PlanPremium),
			Name:        "Premium",
			DailyLimit:  plan.Unlimited,
			PremiumChat: true,
			Features:    []string{"Unlimited messages", "Authentic dialect mode", "Cancel any time"},
		},
	}
}
