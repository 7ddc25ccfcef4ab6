package scheduler

import (
	"fmt"
	"time"

	"rentalyard/internal/jobs"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron   *cron.Cron
	jobs   *jobs.JobRunner
	logger *zap.Logger
}

// Schedules holds the six-field cron expressions of each job.
type Schedules struct {
	CAAudit string
}

// NewScheduler registers every job; an invalid expression is an error.
func NewScheduler(jobRunner *jobs.JobRunner, schedules Schedules, loc *time.Location, logger *zap.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron:   c,
		jobs:   jobRunner,
		logger: logger.Named("scheduler"),
	}

	if err := s.registerJobs(schedules); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) registerJobs(schedules Schedules) error {
	if schedules.CAAudit != "" {
		if _, err := s.cron.AddFunc(schedules.CAAudit, s.jobs.AuditCA); err != nil {
			return fmt.Errorf("register AuditCA job: %w", err)
		}
	}
	s.logger.Info("cron jobs registered", zap.Int("count", len(s.cron.Entries())))
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("cron scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("cron scheduler stopped")
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
