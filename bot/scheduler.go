package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// DuePoller delivers whatever is due at now and reports how many schedules it attempted.
type DuePoller interface {
	ProcessDue(ctx context.Context, now time.Time) (int, error)
}

// Scheduler runs the poll loop on a fixed interval. Ticks never overlap: a tick that
// is still delivering when the next one fires makes the next one a no-op.
type Scheduler struct {
	cron     *cron.Cron
	poller   DuePoller
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler that polls every interval.
func NewScheduler(poller DuePoller, interval time.Duration, log logrus.FieldLogger) *Scheduler {
	cronLog := cron.PrintfLogger(log.WithField("component", "cron"))
	c := cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     c,
		poller:   poller,
		interval: interval,
		log:      log,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the poll job and starts the cron runner.
func (s *Scheduler) Start() error {
	expr := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(expr, s.tick); err != nil {
		return fmt.Errorf("failed to schedule poll loop %q: %w", expr, err)
	}
	s.cron.Start()
	s.log.WithField("interval", s.interval).Info("Scheduler started")
	return nil
}

// Stop halts future ticks and cancels the one in flight, if any, without waiting for it.
func (s *Scheduler) Stop() {
	s.log.Info("Stopping scheduler...")
	s.cron.Stop()
	s.cancel()
}

func (s *Scheduler) tick() {
	if s.poller == nil {
		return
	}

	n, err := s.poller.ProcessDue(s.ctx, s.now().UTC())
	if err != nil {
		s.log.WithError(err).Error("Poll tick failed")
		return
	}
	if n == 0 {
		s.log.Debug("No schedules due")
		return
	}
	s.log.WithField("count", n).Info("Processed due schedules")
}
