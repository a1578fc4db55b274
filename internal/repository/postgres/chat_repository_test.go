package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
	"github.com/pratik-mahalle/dialekt/internal/testutil"
)

func newSession(t *testing.T, repo chat.Repository, userID string, at time.Time) *chat.Session {
	t.Helper()
	s := &chat.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     "Servus",
		ChatType:  chat.ChatTypeFree,
		CreatedAt: at,
		UpdatedAt: at,
	}
	if err := repo.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return s
}

func TestChatRepository_MessagesRoundTripInOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewChatRepository(db)
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := newSession(t, repo, "acct-1", now)

	// Same timestamp on purpose: order must come from the sequence
	var lastSeq int64
	for i := 0; i < 25; i++ {
		role := chat.RoleUser
		if i%2 == 1 {
			role = chat.RoleAssistant
		}
		m := &chat.Message{
			ID:        uuid.NewString(),
			SessionID: s.ID,
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: now,
		}
		if err := repo.AppendMessage(ctx, m); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if m.Seq <= lastSeq {
			t.Fatalf("Seq %d not increasing after %d", m.Seq, lastSeq)
		}
		lastSeq = m.Seq
	}

	all, err := repo.ListMessages(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(all) != 25 {
		t.Fatalf("ListMessages() returned %d messages, want 25", len(all))
	}
	for i, m := range all {
		if want := fmt.Sprintf("message %d", i); m.Content != want {
			t.Errorf("message %d content = %q, want %q", i, m.Content, want)
		}
	}

	recent, err := repo.RecentMessages(ctx, s.ID, 20)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(recent) != 20 {
		t.Fatalf("RecentMessages() returned %d, want 20", len(recent))
	}
	if recent[0].Content != "message 5" || recent[19].Content != "message 24" {
		t.Errorf("RecentMessages() window = %q..%q, want message 5..message 24", recent[0].Content, recent[19].Content)
	}
}

func TestChatRepository_ListSessions(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewChatRepository(db)
	ctx := context.Background()
	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	older := newSession(t, repo, "acct-1", base)
	newer := newSession(t, repo, "acct-1", base.Add(time.Minute))
	newSession(t, repo, "acct-2", base)

	sessions, total, err := repo.ListSessions(ctx, "acct-1", 10, 0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if total != 2 || len(sessions) != 2 {
		t.Fatalf("ListSessions() = %d sessions, total %d, want 2/2", len(sessions), total)
	}
	if sessions[0].ID != newer.ID {
		t.Errorf("first session = %s, want newest %s", sessions[0].ID, newer.ID)
	}

	if err := repo.TouchSession(ctx, older.ID, base.Add(time.Hour)); err != nil {
		t.Fatalf("TouchSession() error = %v", err)
	}
	sessions, _, _ = repo.ListSessions(ctx, "acct-1", 1, 0)
	if len(sessions) != 1 || sessions[0].ID != older.ID {
		t.Errorf("after touch first session = %v, want %s", sessions, older.ID)
	}
}

func TestChatRepository_DeleteSession(t *testing.T) {
	db := testutil.NewTestDB(t)
	defer testutil.CleanupDB(db)

	repo := NewChatRepository(db)
	ctx := context.Background()
	s := newSession(t, repo, "acct-1", time.Now())

	if err := repo.AppendMessage(ctx, &chat.Message{
		ID: uuid.NewString(), SessionID: s.ID, Role: chat.RoleUser, Content: "hi", CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("AppendMessage() error = %v", err)
	}

	if err := repo.DeleteSession(ctx, s.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}

	if _, err := repo.GetSession(ctx, s.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("GetSession() after delete error = %v, want NOT_FOUND", err)
	}
	msgs, err := repo.ListMessages(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("ListMessages() after delete = %d messages, want 0", len(msgs))
	}
	if err := repo.DeleteSession(ctx, s.ID); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("second DeleteSession() error = %v, want NOT_FOUND", err)
	}
}
