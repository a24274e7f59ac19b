// Package schedule fires the ingestion pipeline on a wall-clock schedule.
package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/example/findme-platform/internal/platform/logging"
)

// Job is one unit of scheduled work; its error is logged, never propagated.
type Job func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	job     Job
	timeout time.Duration
	log     *zap.Logger
}

// New registers job under spec (standard cron or "@every 30m"). Ticks that
// arrive while a run is still in progress are skipped, panics are recovered,
// and each run is bounded by timeout.
func New(spec string, timeout time.Duration, job Job, log *zap.Logger) (*Scheduler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	l := logging.Logr(log, "cron")
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
		job:     job,
		timeout: timeout,
		log:     log,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.job(ctx); err != nil {
		s.log.Error("scheduled ingestion failed", zap.Error(err))
	}
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running job, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next reports the next activation time.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
