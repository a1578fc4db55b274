package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

func (st *testStack) bootstrap(t *testing.T, id string) {
	t.Helper()
	if _, err := st.plans.Bootstrap(context.Background(), user(id)); err != nil {
		t.Fatalf("Bootstrap(%s) error = %v", id, err)
	}
}

func (st *testStack) isPremiumProfile(t *testing.T, id string) bool {
	t.Helper()
	p, err := st.profiles.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s) error = %v", id, err)
	}
	return p.IsPremium
}

func activeSnapshot(id, customer, account string) *billing.SubscriptionSnapshot {
	return &billing.SubscriptionSnapshot{
		ID:                 id,
		CustomerID:         customer,
		Status:             "active",
		CurrentPeriodStart: testNow,
		CurrentPeriodEnd:   testNow.AddDate(0, 1, 0),
		AccountID:          account,
	}
}

func TestBillingService_SubscriptionUpdatedIsIdempotent(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()
	st.bootstrap(t, "acct-1")

	ev := &billing.Event{
		ID:           "evt_1",
		Type:         billing.EventSubscriptionUpdated,
		Subscription: activeSnapshot("sub_1", "cus_1", "acct-1"),
	}

	var first *plan.Subscription
	for i := 0; i < 2; i++ {
		if err := st.billing.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("HandleEvent() #%d error = %v", i+1, err)
		}
		sub, _ := st.subRepo.FindByAccountID(ctx, "acct-1")
		if first == nil {
			first = sub
			continue
		}
		if sub.PlanType != first.PlanType || sub.Status != first.Status ||
			!sub.CurrentPeriodEnd.Equal(*first.CurrentPeriodEnd) || sub.BillingSubscriptionID != first.BillingSubscriptionID {
			t.Errorf("replay changed row: %+v -> %+v", first, sub)
		}
	}

	if first.PlanType != plan.PlanPremium || first.Status != plan.StatusActive {
		t.Errorf("row = %s/%s, want premium/active", first.PlanType, first.Status)
	}
	if first.TrialEndsAt != nil {
		t.Error("trial end kept on a premium row")
	}
	if first.BillingCustomerID != "cus_1" || first.BillingSubscriptionID != "sub_1" {
		t.Errorf("billing ids = %s/%s", first.BillingCustomerID, first.BillingSubscriptionID)
	}
	if !st.isPremiumProfile(t, "acct-1") {
		t.Error("profile premium flag not set")
	}
}

func TestBillingService_Reducer(t *testing.T) {
	tests := []struct {
		name   string
		event  func(t *testing.T, st *testStack) *billing.Event
		verify func(t *testing.T, st *testStack)
	}{
		{
			name: "deleted downgrades to free",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.premiumAccount("acct-1", true)
				return &billing.Event{
					ID:           "evt_del",
					Type:         billing.EventSubscriptionDeleted,
					Subscription: &billing.SubscriptionSnapshot{ID: "sub_acct-1", CustomerID: "cus_acct-1", Status: "canceled"},
				}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-1")
				if sub.PlanType != plan.PlanFree || sub.Status != plan.StatusCanceled || sub.CancelAtPeriodEnd {
					t.Errorf("row = %+v, want free/canceled", sub)
				}
				if st.isPremiumProfile(t, "acct-1") {
					t.Error("profile still premium")
				}
			},
		},
		{
			name: "payment failed marks past due and keeps the plan",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.premiumAccount("acct-1", false)
				return &billing.Event{ID: "evt_fail", Type: billing.EventPaymentFailed, CustomerID: "cus_acct-1", SubscriptionID: "sub_acct-1"}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-1")
				if sub.PlanType != plan.PlanPremium || sub.Status != plan.StatusPastDue {
					t.Errorf("row = %s/%s, want premium/past_due", sub.PlanType, sub.Status)
				}
				status, _ := st.plans.Status(context.Background(), user("acct-1"))
				if status.EffectiveTier != plan.TierPremium {
					t.Errorf("tier = %s, want premium during the paid period", status.EffectiveTier)
				}
			},
		},
		{
			name: "payment succeeded refreshes from the provider",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.premiumAccount("acct-1", false)
				st.gateway.Subscriptions["sub_acct-1"].CurrentPeriodEnd = testNow.AddDate(0, 2, 0)
				return &billing.Event{ID: "evt_paid", Type: billing.EventPaymentSucceeded, CustomerID: "cus_acct-1", SubscriptionID: "sub_acct-1"}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-1")
				if !sub.CurrentPeriodEnd.Equal(testNow.AddDate(0, 2, 0)) {
					t.Errorf("period end = %v, want refreshed value", sub.CurrentPeriodEnd)
				}
				if len(st.gateway.Calls) != 1 || st.gateway.Calls[0] != "fetch:sub_acct-1" {
					t.Errorf("gateway calls = %v", st.gateway.Calls)
				}
			},
		},
		{
			name: "checkout completed links the account",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.bootstrap(t, "acct-9")
				st.gateway.Subscriptions["sub_new"] = activeSnapshot("sub_new", "cus_new", "")
				return &billing.Event{ID: "evt_co", Type: billing.EventCheckoutCompleted, AccountID: "acct-9", SubscriptionID: "sub_new", CustomerID: "cus_new"}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-9")
				if !sub.IsPremium() || sub.BillingCustomerID != "cus_new" {
					t.Errorf("row = %+v, want linked premium", sub)
				}
				if !st.isPremiumProfile(t, "acct-9") {
					t.Error("profile premium flag not set")
				}
			},
		},
		{
			name: "customer email resolves the account",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.bootstrap(t, "acct-2")
				return &billing.Event{
					ID:            "evt_mail",
					Type:          billing.EventSubscriptionCreated,
					Subscription:  activeSnapshot("sub_2", "cus_2", ""),
					CustomerEmail: "acct-2@example.com",
				}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-2")
				if !sub.IsPremium() || sub.BillingSubscriptionID != "sub_2" {
					t.Errorf("row = %+v, want premium via email", sub)
				}
			},
		},
		{
			name: "past due snapshot past its period is not premium",
			event: func(t *testing.T, st *testStack) *billing.Event {
				st.bootstrap(t, "acct-3")
				snap := activeSnapshot("sub_3", "cus_3", "acct-3")
				snap.Status = "unpaid"
				snap.CurrentPeriodEnd = testNow.Add(-time.Hour)
				return &billing.Event{ID: "evt_late", Type: billing.EventSubscriptionUpdated, Subscription: snap}
			},
			verify: func(t *testing.T, st *testStack) {
				sub, _ := st.subRepo.FindByAccountID(context.Background(), "acct-3")
				if sub.Status != plan.StatusPastDue {
					t.Errorf("status = %s, want past_due", sub.Status)
				}
				if st.isPremiumProfile(t, "acct-3") {
					t.Error("profile premium flag set for a lapsed subscription")
				}
			},
		},
		{
			name: "unmatched event is acknowledged",
			event: func(t *testing.T, st *testStack) *billing.Event {
				return &billing.Event{ID: "evt_lost", Type: billing.EventSubscriptionUpdated, Subscription: activeSnapshot("sub_x", "cus_x", "")}
			},
			verify: func(t *testing.T, st *testStack) {
				if sub, _ := st.subRepo.FindByCustomerID(context.Background(), "cus_x"); sub != nil {
					t.Errorf("unmatched event created row %+v", sub)
				}
			},
		},
		{
			name: "ignored event type",
			event: func(t *testing.T, st *testStack) *billing.Event {
				return &billing.Event{ID: "evt_other", Type: billing.EventIgnored, ProviderType: "charge.refunded"}
			},
			verify: func(t *testing.T, st *testStack) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStack()
			ev := tt.event(t, st)
			if err := st.billing.HandleEvent(context.Background(), ev); err != nil {
				t.Fatalf("HandleEvent() error = %v", err)
			}
			tt.verify(t, st)
		})
	}
}

func TestBillingService_HandleEventStorageFailure(t *testing.T) {
	st := newTestStack()
	st.subRepo.Err = fmt.Errorf("disk full")

	err := st.billing.HandleEvent(context.Background(), &billing.Event{
		ID:           "evt_1",
		Type:         billing.EventSubscriptionUpdated,
		Subscription: activeSnapshot("sub_1", "cus_1", "acct-1"),
	})
	if err == nil {
		t.Fatal("HandleEvent() error = nil, want storage failure so the provider redelivers")
	}
}

func TestBillingService_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("cancel then reactivate", func(t *testing.T) {
		st := newTestStack()
		st.premiumAccount("acct-1", false)

		sub, err := st.billing.Apply(ctx, "acct-1", billing.ActionCancel, "")
		if err != nil {
			t.Fatalf("Apply(cancel) error = %v", err)
		}
		if !sub.CancelAtPeriodEnd || !sub.IsPremium() {
			t.Errorf("after cancel row = %+v", sub)
		}
		status, _ := st.plans.Status(ctx, user("acct-1"))
		if status.EffectiveTier != plan.TierPremium || !status.CancelAtPeriodEnd {
			t.Errorf("after cancel status = %+v, want premium until period end", status)
		}

		sub, err = st.billing.Apply(ctx, "acct-1", billing.ActionReactivate, "sub_acct-1")
		if err != nil {
			t.Fatalf("Apply(reactivate) error = %v", err)
		}
		if sub.CancelAtPeriodEnd {
			t.Error("reactivate left cancellation scheduled")
		}
		want := []string{"cancel_at_period_end:sub_acct-1:true", "cancel_at_period_end:sub_acct-1:false"}
		if fmt.Sprint(st.gateway.Calls) != fmt.Sprint(want) {
			t.Errorf("gateway calls = %v, want %v", st.gateway.Calls, want)
		}
	})

	tests := []struct {
		name     string
		setup    func(t *testing.T, st *testStack)
		action   billing.Action
		ref      string
		wantCode string
	}{
		{
			name:     "no row",
			action:   billing.ActionCancel,
			wantCode: errors.ErrCodeNoActiveSubscription,
		},
		{
			name:     "trial account",
			setup:    func(t *testing.T, st *testStack) { st.bootstrap(t, "acct-1") },
			action:   billing.ActionCancel,
			wantCode: errors.ErrCodeNoActiveSubscription,
		},
		{
			name: "canceled subscription",
			setup: func(t *testing.T, st *testStack) {
				st.premiumAccount("acct-1", false)
				_ = st.subRepo.MarkCanceled(ctx, "acct-1")
			},
			action:   billing.ActionReactivate,
			wantCode: errors.ErrCodeNoActiveSubscription,
		},
		{
			name:     "foreign subscription reference",
			setup:    func(t *testing.T, st *testStack) { st.premiumAccount("acct-1", false) },
			action:   billing.ActionCancel,
			ref:      "sub_someone_else",
			wantCode: errors.ErrCodeForbidden,
		},
		{
			name:     "unknown action",
			setup:    func(t *testing.T, st *testStack) { st.premiumAccount("acct-1", false) },
			action:   billing.Action("pause"),
			wantCode: errors.ErrCodeBadRequest,
		},
		{
			name: "provider failure",
			setup: func(t *testing.T, st *testStack) {
				st.premiumAccount("acct-1", false)
				st.gateway.Err = fmt.Errorf("connection reset")
			},
			action:   billing.ActionCancel,
			wantCode: errors.ErrCodeProviderAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStack()
			if tt.setup != nil {
				tt.setup(t, st)
			}
			before, _ := st.subRepo.FindByAccountID(ctx, "acct-1")

			_, err := st.billing.Apply(ctx, "acct-1", tt.action, tt.ref)
			if !errors.HasCode(err, tt.wantCode) {
				t.Fatalf("Apply() error = %v, want %s", err, tt.wantCode)
			}

			after, _ := st.subRepo.FindByAccountID(ctx, "acct-1")
			if before != nil && after.CancelAtPeriodEnd != before.CancelAtPeriodEnd {
				t.Error("failed action changed the local row")
			}
		})
	}
}

func TestBillingService_Checkout(t *testing.T) {
	ctx := context.Background()

	t.Run("trial account gets a session", func(t *testing.T) {
		st := newTestStack()
		session, err := st.billing.Checkout(ctx, user("acct-1"))
		if err != nil {
			t.Fatalf("Checkout() error = %v", err)
		}
		if session.URL == "" {
			t.Error("Checkout() returned no URL")
		}
		if sub, _ := st.subRepo.FindByAccountID(ctx, "acct-1"); sub == nil {
			t.Error("Checkout() did not bootstrap the account")
		}
	})

	t.Run("premium account is rejected", func(t *testing.T) {
		st := newTestStack()
		st.premiumAccount("acct-1", false)
		if _, err := st.billing.Checkout(ctx, user("acct-1")); !errors.HasCode(err, errors.ErrCodeConflict) {
			t.Errorf("Checkout() error = %v, want CONFLICT", err)
		}
	})
}

func TestBillingService_Plans(t *testing.T) {
	st := newTestStack()
	plans := st.billing.Plans()
	if len(plans) != 3 {
		t.Fatalf("Plans() = %d entries, want 3", len(plans))
	}
	for _, p := range plans {
		switch p.ID {
		case "free":
			if p.DailyLimit != 5 || p.PremiumChat {
				t.Errorf("free plan = %+v", p)
			}
		case "trial":
			if p.TrialDays != 7 || !p.PremiumChat {
				t.Errorf("trial plan = %+v", p)
			}
		case "premium":
			if p.DailyLimit != plan.Unlimited {
				t.Errorf("premium plan = %+v", p)
			}
		default:
			t.Errorf("unexpected plan %q", p.ID)
		}
	}
}
