package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/dialekt/internal/api/dto"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
)

// PlanHandler exposes the caller's plan status
type PlanHandler struct {
	service plan.Service
	logger  *logger.Logger
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(service plan.Service, log *logger.Logger) *PlanHandler {
	return &PlanHandler{service: service, logger: log}
}

// Status returns the resolved plan status. It has no side effects: an account
// that never chatted resolves to the free tier until its first turn.
// @Summary Get plan status
// @Tags Plan
// @Produce json
// @Success 200 {object} dto.PlanStatusResponse "Plan status"
// @Security BearerAuth
// @Router /plan/status [get]
func (h *PlanHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	status, err := h.service.Status(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to resolve plan status")
		return
	}
	sub, err := h.service.Subscription(r.Context(), id.AccountID)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load subscription")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.PlanStatusResponse{
		Status:       dto.FromPlanStatus(status),
		Subscription: dto.FromSubscription(sub),
	})
}
