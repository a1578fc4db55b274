package chat

import "context"

// Service defines the interface for the session orchestrator
type Service interface {
	// HandleTurn runs one chat turn through the plan gate, storage and the completion gateway
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)

	// ListSessions returns the owner's sessions with the total count
	ListSessions(ctx context.Context, userID string, limit, offset int) ([]*Session, int64, error)

	// GetSession returns an owned session with its messages
	GetSession(ctx context.Context, userID, sessionID string) (*Session, []*Message, error)

	// DeleteSession removes an owned session
	DeleteSession(ctx context.Context, userID, sessionID string) error
}
