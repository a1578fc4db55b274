package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pratik-mahalle/dialekt/internal/api/dto"
	"github.com/pratik-mahalle/dialekt/internal/api/middleware"
	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/utils"
	"github.com/pratik-mahalle/dialekt/internal/pkg/validator"
)

// ChatHandler serves chat turns and session management
type ChatHandler struct {
	service   chat.Service
	logger    *logger.Logger
	validator *validator.Validator
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service chat.Service, log *logger.Logger, val *validator.Validator) *ChatHandler {
	return &ChatHandler{
		service:   service,
		logger:    log,
		validator: val,
	}
}

// Send runs one chat turn
// @Summary Send a chat message
// @Description Send a message, creating a session when sessionId is omitted. Free chat consumes the daily quota on the free tier; premium chat requires a trial or premium plan.
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat turn"
// @Success 200 {object} dto.ChatResponse "Assistant reply"
// @Failure 400 {object} utils.ErrorResponse "Invalid request"
// @Failure 403 {object} utils.ErrorResponse "Premium required or foreign session"
// @Failure 404 {object} utils.ErrorResponse "Session not found"
// @Failure 429 {object} utils.ErrorResponse "Daily limit reached"
// @Failure 502 {object} utils.ErrorResponse "Assistant unavailable, retry"
// @Security BearerAuth
// @Router /chat [post]
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req dto.ChatRequest
	if appErr := decodeJSON(w, r, h.validator, &req); appErr != nil {
		utils.WriteError(w, appErr)
		return
	}

	res, err := h.service.HandleTurn(r.Context(), chat.TurnRequest{
		Identity:  id,
		SessionID: req.SessionID,
		ChatType:  chat.ChatType(req.ChatType),
		Message:   req.Message,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "Chat turn failed")
		return
	}

	middleware.AddLogField(w, "session_id", res.SessionID)
	utils.WriteSuccess(w, http.StatusOK, dto.FromTurnResult(res))
}

// ListSessions returns the caller's sessions, newest first
// @Summary List chat sessions
// @Tags Chat
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param page_size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} utils.PaginatedResponse{data=[]dto.SessionDTO} "Sessions"
// @Security BearerAuth
// @Router /chat/sessions [get]
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	p := utils.ParsePaginationParams(r)
	sessions, total, err := h.service.ListSessions(r.Context(), id.AccountID, p.PageSize, p.Offset)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to list chat sessions")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, utils.NewPaginatedResponse(dto.FromSessions(sessions), p.Page, p.PageSize, total))
}

// GetSession returns one session with its messages
// @Summary Get a chat session
// @Tags Chat
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} dto.SessionDetailDTO "Session with messages"
// @Failure 403 {object} utils.ErrorResponse "Foreign session"
// @Failure 404 {object} utils.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /chat/sessions/{id} [get]
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	session, messages, err := h.service.GetSession(r.Context(), id.AccountID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to get chat session")
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.FromSessionDetail(session, messages))
}

// DeleteSession removes a session and its messages
// @Summary Delete a chat session
// @Tags Chat
// @Param id path string true "Session ID"
// @Success 204 "Deleted"
// @Failure 403 {object} utils.ErrorResponse "Foreign session"
// @Failure 404 {object} utils.ErrorResponse "Session not found"
// @Security BearerAuth
// @Router /chat/sessions/{id} [delete]
func (h *ChatHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteSession(r.Context(), id.AccountID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete chat session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
