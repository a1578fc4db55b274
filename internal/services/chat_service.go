package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/metrics"
)

// ChatConfig tunes the session orchestrator
type ChatConfig struct {
	// HistoryWindow is the number of stored messages sent as context
	HistoryWindow int
	// CompletionTimeout bounds a single completion call
	CompletionTimeout time.Duration
}

// ChatService implements chat.Service
type ChatService struct {
	repo       chat.Repository
	plans      plan.Service
	completion chat.CompletionGateway
	cfg        ChatConfig
	clock      Clock
	logger     *logger.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	repo chat.Repository,
	plans plan.Service,
	completion chat.CompletionGateway,
	cfg ChatConfig,
	clock Clock,
	log *logger.Logger,
) chat.Service {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 20
	}
	if cfg.CompletionTimeout <= 0 {
		cfg.CompletionTimeout = 45 * time.Second
	}
	return &ChatService{
		repo:       repo,
		plans:      plans,
		completion: completion,
		cfg:        cfg,
		clock:      clock,
		logger:     log,
	}
}

// HandleTurn runs one chat turn. Nothing is stored when the plan gate rejects
// the turn. A failed completion leaves the user message stored, and resending
// the same text to the same session resumes the turn without storing or
// charging it twice.
func (s *ChatService) HandleTurn(ctx context.Context, req chat.TurnRequest) (*chat.TurnResult, error) {
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return nil, errors.ValidationError("Message must not be empty", nil)
	}
	if !req.ChatType.IsValid() {
		return nil, errors.BadRequest("chatType must be free or premium")
	}

	id := req.Identity
	log := s.logger.WithFields(map[string]interface{}{
		"account_id": id.AccountID,
		"chat_type":  req.ChatType,
	})

	if _, err := s.plans.Bootstrap(ctx, id); err != nil {
		return nil, s.fail(req.ChatType, "error", err)
	}

	status, err := s.plans.Status(ctx, id)
	if err != nil {
		return nil, s.fail(req.ChatType, "error", err)
	}

	if req.ChatType == chat.ChatTypePremium && !status.CanUsePremium {
		return nil, s.fail(req.ChatType, "premium_required", errors.PremiumRequired())
	}

	var session *chat.Session
	retry := false
	if req.SessionID != "" {
		session, err = s.ownedSession(ctx, id.AccountID, req.SessionID)
		if err != nil {
			return nil, s.fail(req.ChatType, "session_error", err)
		}
		if session.ChatType != req.ChatType {
			return nil, s.fail(req.ChatType, "session_error", errors.BadRequest("chatType does not match the session"))
		}
		retry, err = s.isRetry(ctx, session.ID, content)
		if err != nil {
			return nil, s.fail(req.ChatType, "error", err)
		}
	}

	if !retry && req.ChatType == chat.ChatTypeFree && status.EffectiveTier == plan.TierFree {
		allowed, quota, err := s.plans.TryConsume(ctx, id)
		if err != nil {
			return nil, s.fail(req.ChatType, "error", err)
		}
		if !allowed {
			return nil, s.fail(req.ChatType, "daily_limit", errors.DailyLimitReached(limitDetails(quota, s.clock.now())))
		}
	}

	now := s.clock.now()
	if session == nil {
		session = &chat.Session{
			ID:        uuid.NewString(),
			UserID:    id.AccountID,
			Title:     chat.GenerateTitle(content),
			ChatType:  req.ChatType,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateSession(ctx, session); err != nil {
			return nil, s.fail(req.ChatType, "error", err)
		}
		log = log.With("session_id", session.ID)
		log.Info("Chat session created")
	} else {
		log = log.With("session_id", session.ID)
	}

	if retry {
		log.Info("Resuming turn for unanswered message")
	} else {
		userMsg := &chat.Message{
			ID:        uuid.NewString(),
			SessionID: session.ID,
			Role:      chat.RoleUser,
			Content:   content,
			CreatedAt: now,
		}
		if err := s.repo.AppendMessage(ctx, userMsg); err != nil {
			return nil, s.fail(req.ChatType, "error", err)
		}
	}

	history, err := s.repo.RecentMessages(ctx, session.ID, s.cfg.HistoryWindow)
	if err != nil {
		return nil, s.fail(req.ChatType, "error", err)
	}

	prompt := make([]chat.PromptMessage, 0, len(history)+1)
	prompt = append(prompt, chat.PromptMessage{
		Role:    chat.RoleSystem,
		Content: chat.SystemPrompt(req.ChatType, id.IsAdmin()),
	})
	for _, m := range history {
		prompt = append(prompt, chat.PromptMessage{Role: m.Role, Content: m.Content})
	}

	completion, err := s.complete(ctx, prompt)
	if err != nil {
		log.WithError(err).Warn("Completion failed")
		return nil, s.fail(req.ChatType, "completion_error", errors.CompletionUnavailable(err))
	}

	replyAt := s.clock.now()
	reply := &chat.Message{
		ID:         uuid.NewString(),
		SessionID:  session.ID,
		Role:       chat.RoleAssistant,
		Content:    completion.Content,
		TokensUsed: completion.TokensUsed,
		CreatedAt:  replyAt,
	}
	if err := s.repo.AppendMessage(ctx, reply); err != nil {
		return nil, s.fail(req.ChatType, "error", err)
	}
	if err := s.repo.TouchSession(ctx, session.ID, replyAt); err != nil {
		log.WithError(err).Warn("Failed to refresh session timestamp")
	}

	updated, err := s.plans.Status(ctx, id)
	if err != nil {
		return nil, s.fail(req.ChatType, "error", err)
	}

	metrics.RecordChatTurn(string(req.ChatType), "ok")
	log.WithFields(map[string]interface{}{
		"tokens_used": completion.TokensUsed,
		"retry":       retry,
	}).Debug("Chat turn completed")

	return &chat.TurnResult{
		SessionID:  session.ID,
		Message:    completion.Content,
		TokensUsed: completion.TokensUsed,
		PlanStatus: updated,
	}, nil
}

// complete calls the gateway under the configured timeout
func (s *ChatService) complete(ctx context.Context, prompt []chat.PromptMessage) (*chat.Completion, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	start := time.Now()
	completion, err := s.completion.Complete(cctx, prompt)
	status := "ok"
	tokens := 0
	if err != nil {
		status = "error"
	} else {
		tokens = completion.TokensUsed
	}
	metrics.RecordCompletion(s.completion.Name(), status, time.Since(start), tokens)

	return completion, err
}

// isRetry reports whether the newest message of the session is an unanswered
// user message with the same content
func (s *ChatService) isRetry(ctx context.Context, sessionID, content string) (bool, error) {
	last, err := s.repo.RecentMessages(ctx, sessionID, 1)
	if err != nil {
		return false, err
	}
	return len(last) == 1 && last[0].Role == chat.RoleUser && last[0].Content == content, nil
}

func (s *ChatService) ownedSession(ctx context.Context, userID, sessionID string) (*chat.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, errors.Forbidden("Chat session belongs to another account")
	}
	return session, nil
}

func (s *ChatService) fail(chatType chat.ChatType, outcome string, err error) error {
	metrics.RecordChatTurn(string(chatType), outcome)
	return err
}

// limitDetails describes when the free quota resets
func limitDetails(status *plan.PlanStatus, now time.Time) map[string]interface{} {
	details := map[string]interface{}{}
	if status == nil {
		return details
	}
	details["daily_limit"] = status.DailyLimit
	details["messages_used"] = status.MessagesUsed
	if status.ResetsAt != nil {
		details["resets_at"] = status.ResetsAt.UTC().Format(time.RFC3339)
		details["resets_in_seconds"] = int64(status.ResetsAt.Sub(now).Seconds())
	}
	return details
}

// ListSessions returns the owner's sessions
func (s *ChatService) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*chat.Session, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListSessions(ctx, userID, limit, offset)
}

// GetSession returns an owned session with all its messages
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*chat.Session, []*chat.Message, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.repo.ListMessages(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, messages, nil
}

// DeleteSession removes an owned session and its messages
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSession(ctx, session.ID); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"account_id": userID,
		"session_id": session.ID,
	}).Info("Chat session deleted")
	return nil
}
