package client

import (
	"context"
	"net/http"
)

// PlanService reads plan status
type PlanService struct {
	client *Client
}

// StatusResponse bundles the resolved status with the underlying subscription
type StatusResponse struct {
	Status       PlanStatus    `json:"status"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// Status retrieves the caller's plan status
func (s *PlanService) Status(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/plan/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile retrieves the caller's profile
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
