package worker

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/testutil"
)

func TestNewUsagePruner_Validation(t *testing.T) {
	log := logger.Nop()
	usage := testutil.NewMockUsageRepository()

	tests := []struct {
		name      string
		schedule  string
		retention int
		wantErr   bool
	}{
		{"daily schedule", "15 3 * * *", 30, false},
		{"descriptor", "@daily", 7, false},
		{"seconds field rejected", "0 15 3 * * *", 30, true},
		{"garbage", "whenever", 30, true},
		{"zero retention", "@daily", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUsagePruner(usage, plan.DefaultPolicy(), tt.schedule, tt.retention, nil, log)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewUsagePruner() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUsagePruner_RunOnce(t *testing.T) {
	ctx := context.Background()
	usage := testutil.NewMockUsageRepository()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	for _, day := range []string{"2025-02-01", "2025-03-02", "2025-03-03", "2025-03-10"} {
		if _, _, err := usage.TryIncrement(ctx, "acct-1", day, 5); err != nil {
			t.Fatalf("TryIncrement() error = %v", err)
		}
	}

	pruner, err := NewUsagePruner(usage, plan.DefaultPolicy(), "@daily", 7, testutil.FixedClock(now), logger.Nop())
	if err != nil {
		t.Fatalf("NewUsagePruner() error = %v", err)
	}

	if got := pruner.Cutoff(); got != "2025-03-03" {
		t.Errorf("Cutoff() = %s, want 2025-03-03", got)
	}

	rows, err := pruner.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("RunOnce() pruned %d rows, want 2", rows)
	}

	for day, want := range map[string]int{"2025-03-02": 0, "2025-03-03": 1, "2025-03-10": 1} {
		if got, _ := usage.Get(ctx, "acct-1", day); got != want {
			t.Errorf("usage on %s = %d, want %d", day, got, want)
		}
	}
}

func TestUsagePruner_StartStopsWithContext(t *testing.T) {
	pruner, err := NewUsagePruner(testutil.NewMockUsageRepository(), plan.DefaultPolicy(), "@daily", 30, nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewUsagePruner() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pruner.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after cancel")
	}
}
