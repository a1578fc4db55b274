package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

func TestChatService_HandleTurn_Gates(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(st *testStack)
		chatType chat.ChatType
		admin    bool
		wantCode string
	}{
		{
			name:     "first contact starts a trial with premium chat",
			chatType: chat.ChatTypePremium,
		},
		{
			name:     "free tier cannot use premium chat",
			setup:    func(st *testStack) { st.freeAccount("acct-1") },
			chatType: chat.ChatTypePremium,
			wantCode: errors.ErrCodePremiumRequired,
		},
		{
			name:     "free tier uses free chat",
			setup:    func(st *testStack) { st.freeAccount("acct-1") },
			chatType: chat.ChatTypeFree,
		},
		{
			name:     "premium with scheduled cancellation keeps premium chat",
			setup:    func(st *testStack) { st.premiumAccount("acct-1", true) },
			chatType: chat.ChatTypePremium,
		},
		{
			name:     "admin on expired trial uses premium chat",
			setup:    func(st *testStack) { st.freeAccount("acct-1") },
			chatType: chat.ChatTypePremium,
			admin:    true,
		},
		{
			name:     "unknown chat type",
			chatType: chat.ChatType("vip"),
			wantCode: errors.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newTestStack()
			if tt.setup != nil {
				tt.setup(st)
			}
			identity := user("acct-1")
			if tt.admin {
				identity = admin("acct-1")
			}

			res, err := st.chat.HandleTurn(context.Background(), chat.TurnRequest{
				Identity: identity,
				ChatType: tt.chatType,
				Message:  "Grüß Gott",
			})

			if tt.wantCode != "" {
				if !errors.HasCode(err, tt.wantCode) {
					t.Fatalf("HandleTurn() error = %v, want %s", err, tt.wantCode)
				}
				if st.chatRepo.MessageCount() != 0 || st.chatRepo.SessionCount() != 0 {
					t.Error("rejected turn stored data")
				}
				return
			}
			if err != nil {
				t.Fatalf("HandleTurn() error = %v", err)
			}
			if res.SessionID == "" || res.Message != "Servus, wie geht's?" || res.TokensUsed != 42 {
				t.Errorf("HandleTurn() = %+v", res)
			}
			if res.PlanStatus == nil {
				t.Fatal("HandleTurn() returned no plan status")
			}
			if st.chatRepo.MessageCount() != 2 {
				t.Errorf("stored %d messages, want 2", st.chatRepo.MessageCount())
			}
		})
	}
}

func TestChatService_DailyLimitScenario(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()
	st.freeAccount("acct-1")

	var sessionID string
	for i := 1; i <= 5; i++ {
		res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
			Identity:  user("acct-1"),
			SessionID: sessionID,
			ChatType:  chat.ChatTypeFree,
			Message:   fmt.Sprintf("message %d", i),
		})
		if err != nil {
			t.Fatalf("turn %d error = %v", i, err)
		}
		sessionID = res.SessionID
		if res.PlanStatus.MessagesUsed != i || res.PlanStatus.MessagesRemaining != 5-i {
			t.Errorf("turn %d plan status = %+v", i, res.PlanStatus)
		}
	}

	before := st.chatRepo.MessageCount()
	_, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity:  user("acct-1"),
		SessionID: sessionID,
		ChatType:  chat.ChatTypeFree,
		Message:   "message 6",
	})
	if !errors.HasCode(err, errors.ErrCodeDailyLimitReached) {
		t.Fatalf("sixth turn error = %v, want DAILY_LIMIT_REACHED", err)
	}
	appErr, _ := errors.As(err)
	details, ok := appErr.Details.(map[string]interface{})
	if !ok || details["resets_at"] == nil || details["resets_in_seconds"] == nil {
		t.Errorf("DailyLimitReached details = %#v, want reset hint", appErr.Details)
	}

	if got := st.chatRepo.MessageCount(); got != before {
		t.Errorf("sixth turn stored messages: %d -> %d", before, got)
	}
	if used, _ := st.usageRepo.Get(ctx, "acct-1", "2025-03-10"); used != 5 {
		t.Errorf("counter = %d, want 5", used)
	}
	if st.completion.CallCount() != 5 {
		t.Errorf("completion called %d times, want 5", st.completion.CallCount())
	}
}

func TestChatService_PremiumChatDoesNotConsumeQuota(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		if _, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
			Identity: user("acct-1"),
			ChatType: chat.ChatTypeFree,
			Message:  "hello",
		}); err != nil {
			t.Fatalf("trial turn %d error = %v", i, err)
		}
	}
	if used, _ := st.usageRepo.Get(ctx, "acct-1", "2025-03-10"); used != 0 {
		t.Errorf("trial turns consumed quota: %d", used)
	}
}

func TestChatService_CompletionFailureAndRetry(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()
	st.freeAccount("acct-1")

	first, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), ChatType: chat.ChatTypeFree, Message: "Hallo",
	})
	if err != nil {
		t.Fatalf("first turn error = %v", err)
	}

	st.completion.SetErr(fmt.Errorf("upstream timeout"))
	_, err = st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), SessionID: first.SessionID, ChatType: chat.ChatTypeFree, Message: "Wie geht's?",
	})
	if !errors.HasCode(err, errors.ErrCodeChat) {
		t.Fatalf("failed turn error = %v, want CHAT_ERROR", err)
	}

	_, msgs, _ := st.chat.GetSession(ctx, "acct-1", first.SessionID)
	if len(msgs) != 3 || msgs[2].Role != chat.RoleUser || msgs[2].Content != "Wie geht's?" {
		t.Fatalf("after failure messages = %d, want the user message stored", len(msgs))
	}

	st.completion.SetErr(nil)
	res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), SessionID: first.SessionID, ChatType: chat.ChatTypeFree, Message: "Wie geht's?",
	})
	if err != nil {
		t.Fatalf("retry error = %v", err)
	}

	_, msgs, _ = st.chat.GetSession(ctx, "acct-1", first.SessionID)
	if len(msgs) != 4 {
		t.Fatalf("after retry messages = %d, want 4", len(msgs))
	}
	userCount := 0
	for _, m := range msgs {
		if m.Content == "Wie geht's?" {
			userCount++
		}
	}
	if userCount != 1 {
		t.Errorf("retried message stored %d times", userCount)
	}
	if res.PlanStatus.MessagesUsed != 2 {
		t.Errorf("retry consumed quota again: used = %d, want 2", res.PlanStatus.MessagesUsed)
	}
}

func TestChatService_SessionChatTypeMismatch(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	premium, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), ChatType: chat.ChatTypePremium, Message: "Grüß Gott",
	})
	if err != nil {
		t.Fatalf("trial premium turn error = %v", err)
	}

	// Trial has lapsed, the account is on the free tier now
	st.clock.Advance(8 * 24 * time.Hour)

	_, err = st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), SessionID: premium.SessionID, ChatType: chat.ChatTypeFree, Message: "Grüß Gott",
	})
	if !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Fatalf("free turn on premium session error = %v, want BAD_REQUEST", err)
	}
	_, msgs, _ := st.chat.GetSession(ctx, "acct-1", premium.SessionID)
	if len(msgs) != 2 {
		t.Errorf("premium session messages = %d, want 2", len(msgs))
	}
	if used, _ := st.usageRepo.Get(ctx, "acct-1", "2025-03-18"); used != 0 {
		t.Errorf("rejected turn consumed quota: %d", used)
	}

	st.premiumAccount("acct-2", false)
	free, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-2"), ChatType: chat.ChatTypeFree, Message: "Moin",
	})
	if err != nil {
		t.Fatalf("free turn error = %v", err)
	}
	_, err = st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-2"), SessionID: free.SessionID, ChatType: chat.ChatTypePremium, Message: "Moin",
	})
	if !errors.HasCode(err, errors.ErrCodeBadRequest) {
		t.Errorf("premium turn on free session error = %v, want BAD_REQUEST", err)
	}
}

func TestChatService_HistoryWindow(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()
	st.premiumAccount("acct-1", false)

	var sessionID string
	for i := 0; i < 15; i++ {
		res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
			Identity: user("acct-1"), SessionID: sessionID, ChatType: chat.ChatTypePremium,
			Message: fmt.Sprintf("turn %d", i),
		})
		if err != nil {
			t.Fatalf("turn %d error = %v", i, err)
		}
		sessionID = res.SessionID
	}

	prompt := st.completion.LastCall()
	if len(prompt) != 21 {
		t.Fatalf("prompt length = %d, want system prompt + 20", len(prompt))
	}
	if prompt[0].Role != chat.RoleSystem || prompt[0].Content != chat.SystemPrompt(chat.ChatTypePremium, false) {
		t.Errorf("first prompt entry = %+v, want premium system prompt", prompt[0])
	}
	if last := prompt[len(prompt)-1]; last.Role != chat.RoleUser || last.Content != "turn 14" {
		t.Errorf("last prompt entry = %+v, want newest user message", last)
	}
	for i := 2; i < len(prompt); i++ {
		if prompt[i].Role == prompt[i-1].Role {
			t.Errorf("prompt entries %d and %d share role %s", i-1, i, prompt[i].Role)
		}
	}
}

func TestChatService_SessionOwnership(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("owner"), ChatType: chat.ChatTypeFree, Message: "Hallo",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		wantCode  string
	}{
		{"foreign session", res.SessionID, errors.ErrCodeForbidden},
		{"unknown session", "00000000-0000-0000-0000-000000000000", errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
				Identity: user("intruder"), SessionID: tt.sessionID, ChatType: chat.ChatTypeFree, Message: "hi",
			})
			if !errors.HasCode(err, tt.wantCode) {
				t.Errorf("HandleTurn() error = %v, want %s", err, tt.wantCode)
			}
			if _, _, err := st.chat.GetSession(ctx, "intruder", tt.sessionID); !errors.HasCode(err, tt.wantCode) {
				t.Errorf("GetSession() error = %v, want %s", err, tt.wantCode)
			}
			if err := st.chat.DeleteSession(ctx, "intruder", tt.sessionID); !errors.HasCode(err, tt.wantCode) {
				t.Errorf("DeleteSession() error = %v, want %s", err, tt.wantCode)
			}
		})
	}

	if err := st.chat.DeleteSession(ctx, "owner", res.SessionID); err != nil {
		t.Fatalf("owner DeleteSession() error = %v", err)
	}
	if _, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("owner"), SessionID: res.SessionID, ChatType: chat.ChatTypeFree, Message: "still there?",
	}); !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Errorf("turn on deleted session error = %v, want NOT_FOUND", err)
	}
}

func TestChatService_ConcurrentNewSessions(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]string, 2)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
				Identity: user("acct-1"), ChatType: chat.ChatTypePremium, Message: "Hallo",
			})
			if err != nil {
				t.Errorf("HandleTurn() error = %v", err)
				return
			}
			ids[i] = res.SessionID
		}(i)
	}
	wg.Wait()

	if ids[0] == "" || ids[0] == ids[1] {
		t.Errorf("session ids = %v, want two distinct sessions", ids)
	}
	if st.chatRepo.SessionCount() != 2 {
		t.Errorf("SessionCount() = %d, want 2", st.chatRepo.SessionCount())
	}
}

func TestChatService_ListSessions(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
			Identity: user("acct-1"), ChatType: chat.ChatTypeFree, Message: fmt.Sprintf("topic %d", i),
		}); err != nil {
			t.Fatalf("HandleTurn() error = %v", err)
		}
	}

	sessions, total, err := st.chat.ListSessions(ctx, "acct-1", 2, 0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if total != 3 || len(sessions) != 2 {
		t.Errorf("ListSessions() = %d sessions, total %d", len(sessions), total)
	}
	if sessions[0].Title == "" {
		t.Error("session title not generated")
	}
}

func TestChatService_PlanStatusAfterTurn(t *testing.T) {
	st := newTestStack()
	ctx := context.Background()

	res, err := st.chat.HandleTurn(ctx, chat.TurnRequest{
		Identity: user("acct-1"), ChatType: chat.ChatTypePremium, Message: "Hallo",
	})
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if res.PlanStatus.EffectiveTier != plan.TierTrial || res.PlanStatus.TrialDaysLeft != 7 {
		t.Errorf("plan status = %+v, want fresh 7 day trial", res.PlanStatus)
	}
}
