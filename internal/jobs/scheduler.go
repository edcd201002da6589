package jobs

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron process driving DecayJob and EvergreenJob on
// their independent ticks (spec §4.9, §5: "each scheduled job is an
// independent task with its own lifecycle").
type Scheduler struct {
	cron *cron.Cron
	log  *log.Helper
}

// NewScheduler builds a Scheduler and registers decay and evergreen on
// their spec-mandated schedules: daily at 03:00, and every 2 hours.
func NewScheduler(decay *DecayJob, evergreen *EvergreenJob, logger log.Logger) (*Scheduler, error) {
	c := cron.New()
	helper := log.NewHelper(logger)

	if _, err := c.AddFunc("0 3 * * *", func() {
		decay.Run(context.Background())
	}); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("0 */2 * * *", func() {
		evergreen.Run(context.Background())
	}); err != nil {
		return nil, err
	}

	return &Scheduler{cron: c, log: helper}, nil
}

// Start launches the cron scheduler in the background.
func (s *Scheduler) Start(context.Context) error {
	s.cron.Start()
	return nil
}

// Stop drains the currently-running jobs (if any) before returning,
// honoring the graceful-shutdown contract every background worker
// follows (spec §5).
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.WithContext(ctx).Warnw("msg", "scheduler stop deadline exceeded, jobs may still be running")
	}
	return nil
}
