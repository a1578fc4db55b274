package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// ChatRepository implements chat.Repository
type ChatRepository struct {
	db *sql.DB
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *sql.DB) chat.Repository {
	return &ChatRepository{db: db}
}

// CreateSession stores a new session
func (r *ChatRepository) CreateSession(ctx context.Context, s *chat.Session) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, chat_type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Title, string(s.ChatType), toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	if err != nil {
		return errors.DatabaseError("Failed to create chat session", err)
	}
	return nil
}

// GetSession retrieves a session by ID
func (r *ChatRepository) GetSession(ctx context.Context, id string) (*chat.Session, error) {
	query := `
		SELECT id, user_id, title, chat_type, created_at, updated_at
		FROM chat_sessions WHERE id = $1
	`

	var s chat.Session
	var chatType string
	var createdAt, updatedAt int64

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Title, &chatType, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("Chat session")
	}
	if err != nil {
		return nil, errors.DatabaseError("Failed to get chat session", err)
	}

	s.ChatType = chat.ChatType(chatType)
	s.CreatedAt = fromMillis(createdAt)
	s.UpdatedAt = fromMillis(updatedAt)
	return &s, nil
}

// ListSessions returns the owner's sessions, most recently active first
func (r *ChatRepository) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*chat.Session, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chat_sessions WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, errors.DatabaseError("Failed to count chat sessions", err)
	}

	query := `
		SELECT id, user_id, title, chat_type, created_at, updated_at
		FROM chat_sessions WHERE user_id = $1
		ORDER BY updated_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.DatabaseError("Failed to list chat sessions", err)
	}
	defer rows.Close()

	sessions := make([]*chat.Session, 0)
	for rows.Next() {
		var s chat.Session
		var chatType string
		var createdAt, updatedAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &chatType, &createdAt, &updatedAt); err != nil {
			return nil, 0, errors.DatabaseError("Failed to scan chat session", err)
		}
		s.ChatType = chat.ChatType(chatType)
		s.CreatedAt = fromMillis(createdAt)
		s.UpdatedAt = fromMillis(updatedAt)
		sessions = append(sessions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.DatabaseError("Failed to list chat sessions", err)
	}

	return sessions, total, nil
}

// TouchSession refreshes the updated timestamp
func (r *ChatRepository) TouchSession(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = $2 WHERE id = $1`, id, toMillis(at))
	if err != nil {
		return errors.DatabaseError("Failed to update chat session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Chat session")
	}
	return nil
}

// DeleteSession removes a session and its messages in one transaction
func (r *ChatRepository) DeleteSession(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("Failed to start transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = $1`, id); err != nil {
		return errors.DatabaseError("Failed to delete chat messages", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, id)
	if err != nil {
		return errors.DatabaseError("Failed to delete chat session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.DatabaseError("Failed to get affected rows", err)
	}
	if rows == 0 {
		return errors.NotFound("Chat session")
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("Failed to commit transaction", err)
	}
	return nil
}

// AppendMessage stores a message and sets its sequence number
func (r *ChatRepository) AppendMessage(ctx context.Context, m *chat.Message) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, tokens_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq
	`

	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.SessionID, string(m.Role), m.Content, m.TokensUsed, toMillis(m.CreatedAt),
	).Scan(&m.Seq)
	if err != nil {
		return errors.DatabaseError("Failed to store chat message", err)
	}
	return nil
}

// RecentMessages returns up to limit of the newest messages, oldest first
func (r *ChatRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]*chat.Message, error) {
	query := `
		SELECT seq, id, session_id, role, content, tokens_used, created_at
		FROM chat_messages WHERE session_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`

	messages, err := r.queryMessages(ctx, query, sessionID, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// ListMessages returns every message of the session in order
func (r *ChatRepository) ListMessages(ctx context.Context, sessionID string) ([]*chat.Message, error) {
	query := `
		SELECT seq, id, session_id, role, content, tokens_used, created_at
		FROM chat_messages WHERE session_id = $1
		ORDER BY seq
	`
	return r.queryMessages(ctx, query, sessionID)
}

func (r *ChatRepository) queryMessages(ctx context.Context, query string, args ...interface{}) ([]*chat.Message, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.DatabaseError("Failed to list chat messages", err)
	}
	defer rows.Close()

	messages := make([]*chat.Message, 0)
	for rows.Next() {
		var m chat.Message
		var role string
		var createdAt int64
		if err := rows.Scan(&m.Seq, &m.ID, &m.SessionID, &role, &m.Content, &m.TokensUsed, &createdAt); err != nil {
			return nil, errors.DatabaseError("Failed to scan chat message", err)
		}
		m.Role = chat.Role(role)
		m.CreatedAt = fromMillis(createdAt)
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.DatabaseError("Failed to list chat messages", err)
	}
	return messages, nil
}
