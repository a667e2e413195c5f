package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/usecase/feed"

	"github.com/robfig/cron/v3"
)

// CronSchedule holds the three fixed entries §6.5/§4.J specify: feed
// refresh every 15 minutes, the orphan-feed cleanup sweep at 02:00,
// and the auto-mark-read sweep at 03:00. Jobs are not unique and do
// not run at process startup, matching the teacher's cron.New/AddFunc
// wiring in cmd/worker's startCronWorker.
type CronSchedule struct {
	Timezone string
	Feeds    *feed.Service
}

// Start builds and runs the cron table in loc (defaulting to UTC on a
// bad timezone name), returning the running *cron.Cron so callers can
// Stop it on shutdown.
func (s *CronSchedule) Start() (*cron.Cron, error) {
	loc := time.UTC
	if s.Timezone != "" {
		if l, err := time.LoadLocation(s.Timezone); err == nil {
			loc = l
		} else {
			slog.Warn("invalid cron timezone, using UTC", "timezone", s.Timezone, "error", err)
		}
	}

	c := cron.New(cron.WithLocation(loc))

	if _, err := c.AddFunc("*/15 * * * *", func() { s.runRefreshCycle() }); err != nil {
		return nil, fmt.Errorf("add refresh cron entry: %w", err)
	}
	if _, err := c.AddFunc("0 2 * * *", func() { s.runOrphanSweep() }); err != nil {
		return nil, fmt.Errorf("add cleanup cron entry: %w", err)
	}
	if _, err := c.AddFunc("0 3 * * *", func() { s.runAutoMarkReadSweep() }); err != nil {
		return nil, fmt.Errorf("add auto-mark-read cron entry: %w", err)
	}

	c.Start()
	return c, nil
}

func (s *CronSchedule) runRefreshCycle() {
	const name = "feed_refresh_cycle"
	start := time.Now()
	metrics.RecordJobRun(name, "started")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTTL)
	defer cancel()

	stats, err := s.Feeds.RunRefreshCycle(ctx)
	metrics.RecordJobDuration(name, time.Since(start))
	if err != nil {
		metrics.RecordJobRun(name, "failure")
		slog.Error("feed refresh cron job failed", "error", err)
		return
	}
	metrics.RecordJobRun(name, "success")
	slog.Info("feed refresh cron job completed",
		"feeds", stats.Feeds, "success", stats.Success, "error", stats.Error,
		"new_articles", stats.NewArticles, "duration", stats.Duration)
}

func (s *CronSchedule) runOrphanSweep() {
	const name = "feed_orphan_sweep"
	start := time.Now()
	metrics.RecordJobRun(name, "started")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTTL)
	defer cancel()

	n, err := s.Feeds.MarkOrphanedInactive(ctx)
	metrics.RecordJobDuration(name, time.Since(start))
	if err != nil {
		metrics.RecordJobRun(name, "failure")
		slog.Error("orphan sweep cron job failed", "error", err)
		return
	}
	metrics.RecordJobRun(name, "success")
	slog.Info("orphan sweep cron job completed", "marked_inactive", n)
}

func (s *CronSchedule) runAutoMarkReadSweep() {
	const name = "auto_mark_read_sweep"
	start := time.Now()
	metrics.RecordJobRun(name, "started")

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTTL)
	defer cancel()

	n, err := s.Feeds.AutoMarkReadSweep(ctx)
	metrics.RecordJobDuration(name, time.Since(start))
	if err != nil {
		metrics.RecordJobRun(name, "failure")
		slog.Error("auto-mark-read cron job failed", "error", err)
		return
	}
	metrics.RecordJobRun(name, "success")
	slog.Info("auto-mark-read cron job completed", "marked_read", n)
}
