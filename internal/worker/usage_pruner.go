package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/pkg/logger"
	"github.com/pratik-mahalle/dialekt/internal/pkg/metrics"
)

// UsagePruner periodically removes daily usage rows older than the retention window
type UsagePruner struct {
	usage     plan.UsageRepository
	policy    plan.Policy
	schedule  string
	retention int
	now       func() time.Time
	logger    *logger.Logger
}

// NewUsagePruner creates a new usage pruner worker. schedule is a standard
// five field cron expression evaluated in the quota timezone.
func NewUsagePruner(
	usage plan.UsageRepository,
	policy plan.Policy,
	schedule string,
	retentionDays int,
	now func() time.Time,
	log *logger.Logger,
) (*UsagePruner, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid prune schedule: %w", err)
	}
	if retentionDays < 1 {
		return nil, fmt.Errorf("usage retention must be at least one day, got %d", retentionDays)
	}
	if now == nil {
		now = time.Now
	}
	return &UsagePruner{
		usage:     usage,
		policy:    policy,
		schedule:  schedule,
		retention: retentionDays,
		now:       now,
		logger:    log,
	}, nil
}

// Start runs the pruner until ctx is cancelled
func (p *UsagePruner) Start(ctx context.Context) error {
	loc := p.policy.Location
	if loc == nil {
		loc = time.UTC
	}

	scheduler := cron.New(cron.WithLocation(loc))
	if _, err := scheduler.AddFunc(p.schedule, func() {
		if _, err := p.RunOnce(ctx); err != nil {
			p.logger.ErrorWithErr(err, "Failed to prune daily usage")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule usage pruner: %w", err)
	}

	scheduler.Start()
	p.logger.WithFields(map[string]interface{}{
		"schedule":       p.schedule,
		"retention_days": p.retention,
	}).Info("Usage pruner started")

	<-ctx.Done()
	<-scheduler.Stop().Done()
	p.logger.Info("Usage pruner stopped")
	return nil
}

// RunOnce deletes usage rows dated before the retention cutoff
func (p *UsagePruner) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.Cutoff()

	rows, err := p.usage.PruneBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.RecordUsagePruned(rows)

	p.logger.WithFields(map[string]interface{}{
		"cutoff": cutoff,
		"rows":   rows,
	}).Info("Pruned daily usage")
	return rows, nil
}

// Cutoff returns the oldest day key that is kept
func (p *UsagePruner) Cutoff() string {
	return p.policy.DayKey(p.now().AddDate(0, 0, -p.retention))
}
