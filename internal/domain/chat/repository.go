package chat

import (
	"context"
	"time"
)

// Repository defines the interface for session and message storage
type Repository interface {
	// CreateSession stores a new session
	CreateSession(ctx context.Context, s *Session) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, id string) (*Session, error)

	// ListSessions returns the owner's sessions, most recently active first
	ListSessions(ctx context.Context, userID string, limit, offset int) ([]*Session, int64, error)

	// TouchSession refreshes the session's updated timestamp
	TouchSession(ctx context.Context, id string, at time.Time) error

	// DeleteSession removes a session and its messages
	DeleteSession(ctx context.Context, id string) error

	// AppendMessage stores a message and sets its sequence number
	AppendMessage(ctx context.Context, m *Message) error

	// RecentMessages returns up to limit of the newest messages in chronological order
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error)

	// ListMessages returns every message of a session in chronological order
	ListMessages(ctx context.Context, sessionID string) ([]*Message, error)
}

// CompletionGateway produces an assistant reply for a prompt
type CompletionGateway interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// Complete sends the prompt and returns the reply
	Complete(ctx context.Context, messages []PromptMessage) (*Completion, error)
}
