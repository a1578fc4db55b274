package chat

import (
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
)

// ChatType is the content mode of a session
type ChatType string

// Chat types
const (
	ChatTypeFree    ChatType = "free"
	ChatTypePremium ChatType = "premium"
)

// IsValid reports whether t is a known chat type
func (t ChatType) IsValid() bool {
	return t == ChatTypeFree || t == ChatTypePremium
}

// Role is the author of a message
type Role string

// Message roles. RoleSystem only appears in completion prompts, never in storage.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Session is a conversation owned by one account
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	ChatType  ChatType  `json:"chat_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one append-only entry of a session. Seq is assigned by storage
// and orders messages within a session.
type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Seq        int64     `json:"seq"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokens_used"`
	CreatedAt  time.Time `json:"created_at"`
}

// PromptMessage is one entry of the context sent to the completion gateway
type PromptMessage struct {
	Role    Role
	Content string
}

// Completion is the gateway reply
type Completion struct {
	Content    string
	TokensUsed int
	Model      string
}

// TurnRequest is one user message sent to the orchestrator
type TurnRequest struct {
	Identity  profile.Identity
	SessionID string
	ChatType  ChatType
	Message   string
}

// TurnResult is the assistant reply together with the refreshed plan status
type TurnResult struct {
	SessionID  string           `json:"session_id"`
	Message    string           `json:"message"`
	TokensUsed int              `json:"tokens_used"`
	PlanStatus *plan.PlanStatus `json:"plan_status"`
}
