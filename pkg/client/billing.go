package client

import (
	"context"
	"net/http"
)

// BillingService handles plans, checkout and subscription actions
type BillingService struct {
	client *Client
}

// Checkout is a hosted checkout redirect
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type subscriptionAction struct {
	Action          string `json:"action"`
	SubscriptionRef string `json:"subscriptionRef,omitempty"`
}

type subscriptionActionResponse struct {
	Subscription *Subscription `json:"subscription"`
}

// Plans lists the plan catalogue
func (s *BillingService) Plans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Checkout opens a hosted checkout for the premium plan
func (s *BillingService) Checkout(ctx context.Context) (*Checkout, error) {
	var co Checkout
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/checkout", nil, &co); err != nil {
		return nil, err
	}
	return &co, nil
}

// Cancel schedules cancellation at the end of the paid period
func (s *BillingService) Cancel(ctx context.Context, subscriptionRef string) (*Subscription, error) {
	return s.apply(ctx, "cancel", subscriptionRef)
}

// Reactivate clears a scheduled cancellation
func (s *BillingService) Reactivate(ctx context.Context, subscriptionRef string) (*Subscription, error) {
	return s.apply(ctx, "reactivate", subscriptionRef)
}

func (s *BillingService) apply(ctx context.Context, action, ref string) (*Subscription, error) {
	var resp subscriptionActionResponse
	req := subscriptionAction{Action: action, SubscriptionRef: ref}
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/subscription", req, &resp); err != nil {
		return nil, err
	}
	return resp.Subscription, nil
}
