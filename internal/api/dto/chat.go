package dto

import (
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
)

// ChatRequest is one user turn
type ChatRequest struct {
	Message   string `json:"message" validate:"required,notblank,max=4000"`
	SessionID string `json:"sessionId,omitempty" validate:"omitempty,uuid"`
	ChatType  string `json:"chatType" validate:"required,oneof=free premium"`
}

// ChatResponse is the assistant reply to a turn
type ChatResponse struct {
	Message    string        `json:"message"`
	SessionID  string        `json:"sessionId"`
	TokensUsed int           `json:"tokensUsed"`
	PlanStatus PlanStatusDTO `json:"planStatus"`
}

// SessionDTO represents a chat session in API responses
type SessionDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ChatType  string    `json:"chatType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageDTO represents a stored chat message
type MessageDTO struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokensUsed,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionDetailDTO is a session with its full transcript
type SessionDetailDTO struct {
	SessionDTO
	Messages []MessageDTO `json:"messages"`
}

// FromTurnResult converts a turn result to its response
func FromTurnResult(res *chat.TurnResult) ChatResponse {
	out := ChatResponse{
		Message:    res.Message,
		SessionID:  res.SessionID,
		TokensUsed: res.TokensUsed,
	}
	if res.PlanStatus != nil {
		out.PlanStatus = FromPlanStatus(res.PlanStatus)
	}
	return out
}

// FromSession converts a session to its DTO
func FromSession(s *chat.Session) SessionDTO {
	return SessionDTO{
		ID:        s.ID,
		Title:     s.Title,
		ChatType:  string(s.ChatType),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// FromSessions converts a page of sessions
func FromSessions(sessions []*chat.Session) []SessionDTO {
	out := make([]SessionDTO, len(sessions))
	for i, s := range sessions {
		out[i] = FromSession(s)
	}
	return out
}

// FromSessionDetail converts a session and its messages
func FromSessionDetail(s *chat.Session, messages []*chat.Message) SessionDetailDTO {
	out := SessionDetailDTO{
		SessionDTO: FromSession(s),
		Messages:   make([]MessageDTO, len(messages)),
	}
	for i, m := range messages {
		out.Messages[i] = MessageDTO{
			ID:         m.ID,
			Role:       string(m.Role),
			Content:    m.Content,
			TokensUsed: m.TokensUsed,
			CreatedAt:  m.CreatedAt,
		}
	}
	return out
}
