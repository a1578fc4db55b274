package logger

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func readEntries(t *testing.T, path string) []map[string]interface{} {
	t.Helper()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var entries []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("decode %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_FieldsAndLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	path := filepath.Join(t.TempDir(), "app.log")
	log := New(Config{Level: "info", Format: "json", OutputPath: path})

	log.Debug("dropped")
	log.WithFields(map[string]interface{}{"account_id": "acct-1", "remaining": 4}).Info("quota consumed")
	log.With("session_id", "s-1").WithError(errors.New("upstream timeout")).Error("completion failed")

	entries := readEntries(t, path)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (debug suppressed)", len(entries))
	}

	first := entries[0]
	if first["level"] != "info" || first["message"] != "quota consumed" {
		t.Errorf("first entry = %v", first)
	}
	if first["account_id"] != "acct-1" || first["remaining"] != float64(4) {
		t.Errorf("fields missing from %v", first)
	}

	second := entries[1]
	if second["level"] != "error" || second["session_id"] != "s-1" || second["error"] != "upstream timeout" {
		t.Errorf("second entry = %v", second)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
