package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/dialekt/pkg/client"
	"github.com/spf13/viper"
)

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"unlimited", formatLimit(-1), "unlimited"},
		{"limit", formatLimit(5), "5"},
		{"trial tier", formatTier("trial"), "[T] trial"},
		{"unknown tier", formatTier("gold"), "gold"},
		{"active status", formatStatus("active"), "[+] active"},
		{"past due status", formatStatus("past_due"), "[*] past_due"},
		{"nil time", formatTime(nil), "-"},
		{"short text", truncate("Servus", 10), "Servus"},
		{"umlauts truncated by rune", truncate("Grüß Gott beinand", 8), "Grüß ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestExplainChatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "daily limit",
			err:  &client.APIError{StatusCode: 429, Code: client.CodeDailyLimitReached, RetryAfter: 2 * time.Hour},
			want: "resets in 2h0m0s",
		},
		{
			name: "premium required",
			err:  &client.APIError{StatusCode: 403, Code: client.CodePremiumRequired},
			want: "--type free",
		},
		{
			name: "completion failure",
			err:  &client.APIError{StatusCode: 502, Code: client.CodeChatError},
			want: "retry the same command",
		},
		{
			name: "transport",
			err:  io.ErrUnexpectedEOF,
			want: "chat failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := explainChatError(tt.err).Error()
			if !strings.Contains(got, tt.want) {
				t.Errorf("%q does not contain %q", got, tt.want)
			}
		})
	}
}

func TestChatSendCommand(t *testing.T) {
	var got client.SendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"success":true,"data":{"message":"Moin!","sessionId":"s-1","tokensUsed":3,"planStatus":{"effectiveTier":"trial"}}}`)
	}))
	defer srv.Close()

	viper.Set("auth.token", "tok")
	defer viper.Set("auth.token", "")

	rootCmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "config.yaml"),
		"--server", srv.URL,
		"-o", "json",
		"chat", "send", "--premium", "--session", "s-1", "Wie", "geht's?",
	})
	if err := Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if auth != "Bearer tok" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Message != "Wie geht's?" {
		t.Errorf("message = %q", got.Message)
	}
	if got.ChatType != client.ChatTypePremium || got.SessionID != "s-1" {
		t.Errorf("unexpected request %+v", got)
	}
}
