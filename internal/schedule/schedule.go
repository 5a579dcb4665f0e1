// Package schedule runs the sync job on a cron expression.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pders01/feedsync/internal/syncer"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one sync run.
type Job interface {
	Run(ctx context.Context) (*syncer.Result, error)
}

// Scheduler fires Job on every tick of a standard five-field cron expression.
// A tick that arrives while the previous run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	job      Job
	logger   *zap.Logger
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New parses spec and prepares a scheduler. Nothing runs until Start.
func New(spec string, job Job, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron expression %q: %w", spec, err)
	}

	logger = logger.Named("schedule")
	cronLogger := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		schedule: schedule,
		spec:     spec,
		job:      job,
		logger:   logger,
	}, nil
}

// Next returns the first activation after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Start runs the schedule until ctx is cancelled, then waits for a run in
// progress to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("scheduling job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		zap.String("cron", s.spec),
		zap.Time("next", s.Next(time.Now())))

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunOnce performs one run and logs its outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	result, err := s.job.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	if failErr := result.Err(); failErr != nil {
		s.logger.Warn("scheduled run finished with failures",
			zap.String("summary", result.String()),
			zap.Error(failErr))
		return
	}
	s.logger.Info("scheduled run finished", zap.String("summary", result.String()))
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
