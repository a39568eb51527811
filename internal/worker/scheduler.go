package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultWarmSchedule refreshes hub weather twice an hour.
const DefaultWarmSchedule = "@every 30m"

// Scheduler runs the weather refresh job on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	job      *RefreshJob
	schedule string
	entryID  cron.EntryID
	logger   zerolog.Logger
}

// SchedulerConfig holds configuration for the Scheduler.
type SchedulerConfig struct {
	// Schedule is a cron spec or descriptor (default: DefaultWarmSchedule).
	Schedule string

	Job    *RefreshJob
	Logger zerolog.Logger
}

// NewScheduler validates the schedule and registers the refresh job.
// Overlapping runs are skipped rather than queued.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Job == nil {
		return nil, errors.New("scheduler requires a refresh job")
	}

	schedule := cfg.Schedule
	if schedule == "" {
		schedule = DefaultWarmSchedule
	}

	logger := cronLogger{logger: cfg.Logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	s := &Scheduler{
		cron:     c,
		job:      cfg.Job,
		schedule: schedule,
		logger:   cfg.Logger,
	}

	id, err := c.AddFunc(schedule, s.runOnce)
	if err != nil {
		return nil, fmt.Errorf("invalid warm schedule %q: %w", schedule, err)
	}
	s.entryID = id

	return s, nil
}

// Schedule returns the configured schedule spec.
func (s *Scheduler) Schedule() string {
	return s.schedule
}

// Start begins running the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().
		Str("schedule", s.schedule).
		Time("next_run", s.cron.Entry(s.entryID).Next).
		Msg("weather warm scheduler started")
}

// Stop halts scheduling and waits for a running job, up to ctx's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop().Done()
	select {
	case <-done:
		s.logger.Info().Msg("weather warm scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runOnce() {
	s.job.Run(context.Background())
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
