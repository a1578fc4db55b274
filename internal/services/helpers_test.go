package services

import (
	"context"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/testutil"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testStack struct {
	clock      *testutil.Clock
	profRepo   *testutil.MockProfileRepository
	subRepo    *testutil.MockSubscriptionRepository
	usageRepo  *testutil.MockUsageRepository
	chatRepo   *testutil.MockChatRepository
	completion *testutil.FakeCompletion
	gateway    *testutil.FakeBillingGateway

	profiles profile.Service
	plans    plan.Service
	chat     chat.Service
	billing  billing.Service
}

func newTestStack() *testStack {
	log := logger.New(logger.Config{Level: "error", Format: "json"})

	st := &testStack{
		clock:      testutil.NewClock(testNow),
		profRepo:   testutil.NewMockProfileRepository(),
		subRepo:    testutil.NewMockSubscriptionRepository(),
		usageRepo:  testutil.NewMockUsageRepository(),
		chatRepo:   testutil.NewMockChatRepository(),
		completion: testutil.NewFakeCompletion("Servus, wie geht's?"),
		gateway:    testutil.NewFakeBillingGateway(),
	}
	clock := Clock(st.clock.Now)

	st.profiles = NewProfileService(st.profRepo, clock, log)
	st.plans = NewPlanService(st.subRepo, st.usageRepo, st.profiles, plan.DefaultPolicy(), clock, log)
	st.chat = NewChatService(st.chatRepo, st.plans, st.completion,
		ChatConfig{HistoryWindow: 20, CompletionTimeout: time.Second}, clock, log)
	st.billing = NewBillingService(st.gateway, st.subRepo, st.plans, st.profiles, time.Second, clock, log)
	return st
}

func user(id string) profile.Identity {
	return profile.Identity{AccountID: id, Email: id + "@example.com", Role: profile.RoleUser}
}

func admin(id string) profile.Identity {
	return profile.Identity{AccountID: id, Email: id + "@example.com", Role: profile.RoleAdmin}
}

func (st *testStack) profile(id string, premium bool) {
	_, _ = st.profRepo.Ensure(context.Background(), &profile.Profile{
		ID:        id,
		Email:     id + "@example.com",
		Role:      profile.RoleUser,
		IsPremium: premium,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	})
}

// freeAccount stores a row whose trial has already run out
func (st *testStack) freeAccount(id string) {
	st.profile(id, false)
	ended := testNow.Add(-time.Hour)
	st.subRepo.Put(&plan.Subscription{
		AccountID:   id,
		PlanType:    plan.PlanTrial,
		Status:      plan.StatusTrialing,
		TrialEndsAt: &ended,
		CreatedAt:   testNow.Add(-8 * 24 * time.Hour),
	})
}

func (st *testStack) premiumAccount(id string, cancelAtPeriodEnd bool) {
	st.profile(id, true)
	start, end := testNow.Add(-24*time.Hour), testNow.Add(29*24*time.Hour)
	st.subRepo.Put(&plan.Subscription{
		AccountID:             id,
		PlanType:              plan.PlanPremium,
		Status:                plan.StatusActive,
		CurrentPeriodStart:    &start,
		CurrentPeriodEnd:      &end,
		CancelAtPeriodEnd:     cancelAtPeriodEnd,
		BillingCustomerID:     "cus_" + id,
		BillingSubscriptionID: "sub_" + id,
	})
	st.gateway.Subscriptions["sub_"+id] = &billing.SubscriptionSnapshot{
		ID:                 "sub_" + id,
		CustomerID:         "cus_" + id,
		Status:             "active",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		CancelAtPeriodEnd:  cancelAtPeriodEnd,
	}
}
