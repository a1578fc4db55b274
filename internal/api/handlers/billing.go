package handlers

import (
	"io"
	"net/http"

	"github.com/pratik-mahalle/dialekt/internal/api/dto"
	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
	"github.com/pratik-mahalle/dialekt/internal/pkg/validator"
)

// maxWebhookBytes bounds webhook payloads
const maxWebhookBytes = 1 << 20

// BillingHandler handles billing and subscription related API endpoints
type BillingHandler struct {
	service   billing.Service
	plans     plan.Service
	gateway   billing.Gateway
	logger    *logger.Logger
	validator *validator.Validator
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(
	service billing.Service,
	plans plan.Service,
	gateway billing.Gateway,
	log *logger.Logger,
	val *validator.Validator,
) *BillingHandler {
	return &BillingHandler{
		service:   service,
		plans:     plans,
		gateway:   gateway,
		logger:    log,
		validator: val,
	}
}

// ListPlans returns the plan catalogue
// @Summary List plans
// @Description List trial, free and premium plans with their limits
// @Tags Billing
// @Produce json
// @Success 200 {array} dto.PlanDTO "List of plans"
// @Security BearerAuth
// @Router /billing/plans [get]
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	current := ""
	if status, err := h.plans.Status(r.Context(), id); err == nil {
		current = string(status.EffectiveTier)
	} else {
		h.logger.WithError(err).Warn("Failed to resolve current plan for catalogue")
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromPlans(h.service.Plans(), current))
}

// CreateCheckoutSession opens a hosted checkout for the premium plan
// @Summary Create checkout session
// @Tags Billing
// @Produce json
// @Success 200 {object} dto.CheckoutResponse "Checkout redirect"
// @Failure 409 {object} utils.ErrorResponse "Already premium"
// @Failure 502 {object} utils.ErrorResponse "Billing provider error"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, err := h.service.Checkout(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create checkout session")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.CheckoutResponse{ID: session.ID, URL: session.URL})
}

// UpdateSubscription cancels or reactivates the premium subscription at period end
// @Summary Cancel or reactivate subscription
// @Tags Billing
// @Accept json
// @Produce json
// @Param request body dto.SubscriptionActionRequest true "Action"
// @Success 200 {object} dto.SubscriptionActionResponse "Updated subscription"
// @Failure 403 {object} utils.ErrorResponse "Foreign subscription"
// @Failure 409 {object} utils.ErrorResponse "No active subscription"
// @Failure 502 {object} utils.ErrorResponse "Billing provider error"
// @Security BearerAuth
// @Router /billing/subscription [post]
func (h *BillingHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.SubscriptionActionRequest
	if appErr := decodeJSON(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	sub, err := h.service.Apply(r.Context(), id.AccountID, billing.Action(req.Action), req.SubscriptionRef)
	if err != nil {
		writeServiceError(w, h.logger, err, "Subscription action failed")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.SubscriptionActionResponse{Subscription: dto.FromSubscription(sub)})
}

// Webhook receives billing provider events. Processing failures return 500 so
// the provider redelivers; unmatched and ignored events are acknowledged.
// @Summary Billing webhook
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} map[string]bool "Event received"
// @Failure 400 {object} utils.ErrorResponse "Invalid signature or payload"
// @Router /billing/webhook [post]
func (h *BillingHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		utils.WriteError(w, errors.BadRequest("Webhook payload too large or unreadable"))
		return
	}

	event, err := h.gateway.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.WithError(err).Warn("Rejected billing webhook")
		utils.WriteError(w, errors.FromError(err))
		return
	}

	if err := h.service.HandleEvent(r.Context(), event); err != nil {
		writeServiceError(w, h.logger, errors.Internal("Failed to process billing event", err), "Billing webhook failed")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, map[string]bool{"received": true})
}
