package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wolfman30/healthcare-booking/pkg/logging"
)

// DefaultSchedule runs the job every morning at 09:00 clinic time.
const DefaultSchedule = "0 9 * * *"

const runTimeout = 5 * time.Minute

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	loc    *time.Location
	logger *logging.Logger
}

// NewScheduler validates the cron expression and registers the job. Runs never overlap.
func NewScheduler(job *Job, schedule string, loc *time.Location, logger *logging.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Scheduler{job: job, loc: loc, logger: logger}
	s.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("reminders: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	if _, err := s.job.RunOnce(ctx); err != nil {
		s.logger.Error("reminder run failed", "error", err)
	}
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("reminder scheduler started", "next_run", s.Next())
}

// Next reports the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now().In(s.loc))
}

// Stop halts scheduling and waits for a running job or ctx, whichever ends
// first.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
