// Package maintenance runs periodic housekeeping against the store.
package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// DefaultSchedule sweeps the page cache hourly.
const DefaultSchedule = "@every 1h"

// PageSweeper deletes cached pages that expired at or before now.
type PageSweeper interface {
	DeleteExpiredPages(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler runs page-cache sweeps on a cron schedule.
type Scheduler struct {
	sweeper  PageSweeper
	schedule cron.Schedule
	spec     string
	now      func() time.Time
}

// New parses schedule (standard 5-field cron or a descriptor such as
// "@every 1h") and returns a Scheduler.
func New(sweeper PageSweeper, schedule string) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return nil, eris.Wrapf(err, "maintenance: parse schedule %q", schedule)
	}
	return &Scheduler{
		sweeper:  sweeper,
		schedule: sched,
		spec:     schedule,
		now:      time.Now,
	}, nil
}

// SweepPages deletes expired cache entries once.
func (s *Scheduler) SweepPages(ctx context.Context) (int64, error) {
	n, err := s.sweeper.DeleteExpiredPages(ctx, s.now())
	if err != nil {
		return 0, eris.Wrap(err, "maintenance: sweep pages")
	}
	zap.L().Info("maintenance: swept page cache", zap.Int64("deleted", n))
	return n, nil
}

// Run starts the cron loop and blocks until ctx is done, then waits for a
// running sweep to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := cronLogger{zap.S().Named("cron")}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(
		cron.Recover(logger),
		cron.SkipIfStillRunning(logger),
	))
	c.Schedule(s.schedule, cron.FuncJob(func() {
		if _, err := s.SweepPages(ctx); err != nil {
			zap.L().Warn("maintenance: scheduled sweep failed", zap.Error(err))
		}
	}))

	zap.L().Info("maintenance: scheduler started", zap.String("schedule", s.spec))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	zap.L().Info("maintenance: scheduler stopped")
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
