package handlers

import (
	"net/http"

	"github.com/pratik-mahalle/dialekt/internal/api/dto"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
)

// ProfileHandler serves the caller's profile
type ProfileHandler struct {
	service profile.Service
	logger  *logger.Logger
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(service profile.Service, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{service: service, logger: log}
}

// Get returns the caller's profile, creating it on first contact
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Success 200 {object} dto.ProfileDTO "Profile"
// @Security BearerAuth
// @Router /profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	p, err := h.service.Ensure(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to load profile")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromProfile(p))
}
