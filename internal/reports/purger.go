package reports

import (
	"context"
	"time"

	"ats-resume-checker/internal/shared/metrics"
	"ats-resume-checker/internal/shared/telemetry"
)

// DefaultPurgeInterval is how often Purger sweeps expired reports.
const DefaultPurgeInterval = time.Minute

// Purger enforces the retention window by deleting expired reports on an interval.
type Purger struct {
	Store    Store
	Interval time.Duration
	Now      func() time.Time
}

// PurgeOnce deletes every expired report and returns how many were removed.
func (p *Purger) PurgeOnce(ctx context.Context) (int64, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	n, err := p.Store.DeleteExpired(ctx, now())
	if err != nil {
		telemetry.Error("reports.purge.failed", map[string]any{"err": err})
		return 0, err
	}
	metrics.AddReportsPurged(n)
	if n > 0 {
		telemetry.Info("reports.purged", map[string]any{"count": n})
	}
	return n, nil
}

// Run purges immediately and then on every tick until ctx is done.
func (p *Purger) Run(ctx context.Context) {
	if p == nil || p.Store == nil {
		return
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPurgeInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	_, _ = p.PurgeOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.PurgeOnce(ctx)
		}
	}
}
