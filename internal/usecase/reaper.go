package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// reapTimeout bounds a single reap run.
const reapTimeout = time.Minute

// Reaper periodically deletes idle threads on a cron schedule.
type Reaper struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewReaper schedules m.ReapStale(maxAge). The schedule is a cron
// expression, a descriptor such as "@every 10m" or "@hourly", or a plain
// duration ("30m").
func NewReaper(m *ThreadManager, schedule string, maxAge time.Duration, logger *slog.Logger) (*Reaper, error) {
	sched, err := parseSchedule(schedule)
	if err != nil {
		return nil, fmt.Errorf("reaper: invalid schedule %q: %w", schedule, err)
	}

	c := cron.New()
	c.Schedule(sched, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
		defer cancel()

		start := time.Now()
		if _, err := m.ReapStale(ctx, maxAge); err != nil {
			logger.Warn("thread reap failed", "error", err, "duration", time.Since(start))
		}
	}))

	logger.Info("thread reaper scheduled", "schedule", schedule, "max_age", maxAge)
	return &Reaper{cron: c, logger: logger}, nil
}

// Start begins running the schedule in the background.
func (r *Reaper) Start() { r.cron.Start() }

// Stop halts the schedule and waits for a running reap to finish or ctx
// to be done.
func (r *Reaper) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		r.logger.Warn("thread reaper stop timed out")
	}
}

func parseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("empty schedule")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(schedule); err == nil {
		return sched, nil
	}

	dur, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("not a valid cron expression or duration")
	}
	if dur <= 0 {
		return nil, fmt.Errorf("duration must be positive")
	}
	return cron.Every(dur), nil
}
