package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/dialekt/internal/api/middleware"
	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/validator"
	"github.com/pratik-mahalle/dialekt/internal/services"
	"github.com/pratik-mahalle/dialekt/internal/testutil"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router     http.Handler
	subRepo    *testutil.MockSubscriptionRepository
	chatRepo   *testutil.MockChatRepository
	completion *testutil.FakeCompletion
	gateway    *testutil.FakeBillingGateway
	plans      plan.Service
}

// newTestEnv mounts the handlers behind a stub that trusts the X-Test-User
// and X-Test-Role headers instead of a token
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	val := validator.New()
	clock := services.Clock(testutil.FixedClock(testNow))

	env := &testEnv{
		subRepo:    testutil.NewMockSubscriptionRepository(),
		chatRepo:   testutil.NewMockChatRepository(),
		completion: testutil.NewFakeCompletion("Moin!"),
		gateway:    testutil.NewFakeBillingGateway(),
	}
	profiles := services.NewProfileService(testutil.NewMockProfileRepository(), clock, log)
	env.plans = services.NewPlanService(env.subRepo, testutil.NewMockUsageRepository(), profiles, plan.DefaultPolicy(), clock, log)
	chatSvc := services.NewChatService(env.chatRepo, env.plans, env.completion,
		services.ChatConfig{HistoryWindow: 20, CompletionTimeout: time.Second}, clock, log)
	billingSvc := services.NewBillingService(env.gateway, env.subRepo, env.plans, profiles, time.Second, clock, log)

	chatH := NewChatHandler(chatSvc, log, val)
	planH := NewPlanHandler(env.plans, log)
	profileH := NewProfileHandler(profiles, log)
	billingH := NewBillingHandler(billingSvc, env.plans, env.gateway, log, val)

	r := chi.NewRouter()
	r.Post("/api/v1/billing/webhook", billingH.Webhook)
	r.Group(func(r chi.Router) {
		r.Use(testIdentity)
		r.Post("/api/v1/chat", chatH.Send)
		r.Get("/api/v1/chat/sessions", chatH.ListSessions)
		r.Get("/api/v1/chat/sessions/{id}", chatH.GetSession)
		r.Delete("/api/v1/chat/sessions/{id}", chatH.DeleteSession)
		r.Get("/api/v1/plan/status", planH.Status)
		r.Get("/api/v1/profile", profileH.Get)
		r.Get("/api/v1/billing/plans", billingH.ListPlans)
		r.Post("/api/v1/billing/checkout", billingH.CreateCheckoutSession)
		r.Post("/api/v1/billing/subscription", billingH.UpdateSubscription)
	})
	env.router = r
	return env
}

func testIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := r.Header.Get("X-Test-User"); uid != "" {
			r = r.WithContext(middleware.WithIdentity(r.Context(), profile.Identity{
				AccountID: uid,
				Email:     uid + "@example.com",
				Role:      profile.ParseRole(r.Header.Get("X-Test-Role")),
			}))
		}
		next.ServeHTTP(w, r)
	})
}

// do sends a request as uid (anonymous when empty) and decodes the envelope
func (e *testEnv) do(t *testing.T, method, path, uid string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if uid != "" {
		req.Header.Set("X-Test-User", uid)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var envelope map[string]interface{}
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response %q: %v", rr.Body.String(), err)
		}
	}
	return rr, envelope
}

func (e *testEnv) expiredTrial(id string) {
	ended := testNow.Add(-time.Hour)
	e.subRepo.Put(&plan.Subscription{
		AccountID:   id,
		PlanType:    plan.PlanTrial,
		Status:      plan.StatusTrialing,
		TrialEndsAt: &ended,
	})
}

func (e *testEnv) premium(id string) {
	start, end := testNow.Add(-24*time.Hour), testNow.Add(29*24*time.Hour)
	e.subRepo.Put(&plan.Subscription{
		AccountID:             id,
		PlanType:              plan.PlanPremium,
		Status:                plan.StatusActive,
		CurrentPeriodStart:    &start,
		CurrentPeriodEnd:      &end,
		BillingCustomerID:     "cus_" + id,
		BillingSubscriptionID: "sub_" + id,
	})
	e.gateway.Subscriptions["sub_"+id] = &billing.SubscriptionSnapshot{
		ID: "sub_" + id, CustomerID: "cus_" + id, Status: "active",
		CurrentPeriodStart: start, CurrentPeriodEnd: end,
	}
}

func errorCode(envelope map[string]interface{}) string {
	e, _ := envelope["error"].(map[string]interface{})
	code, _ := e["code"].(string)
	return code
}

func data(envelope map[string]interface{}) map[string]interface{} {
	d, _ := envelope["data"].(map[string]interface{})
	return d
}

// signed registers the event the fake gateway returns for signature
func (e *testEnv) signed(signature string, ev *billing.Event) {
	e.gateway.Events[signature] = ev
}
