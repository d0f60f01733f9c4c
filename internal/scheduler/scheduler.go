package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"prepump-screener/internal/domain"
	"prepump-screener/internal/usecase"
)

// CycleRunner is the scan cycle driven by the schedule.
type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.ScanRun, error)
}

// Scheduler runs scan cycles on a cron schedule with a seconds field,
// e.g. "0 */15 * * * *".
type Scheduler struct {
	cron   *cron.Cron
	runner CycleRunner
	ctx    context.Context
	log    *zap.Logger
}

func New(ctx context.Context, runner CycleRunner, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		runner: runner,
		ctx:    ctx,
		log:    log,
	}
}

// Register adds the scan task on the given cron schedule.
func (s *Scheduler) Register(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, s.scanTask); err != nil {
		return errors.Wrapf(err, "register scan task %q", schedule)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", zap.Int("entries", len(s.cron.Entries())))
}

// Stop stops scheduling and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes one scan immediately (RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scanTask()
}

func (s *Scheduler) scanTask() {
	if s.ctx.Err() != nil {
		return
	}
	run, err := s.runner.RunCycle(s.ctx)
	switch {
	case errors.Is(err, usecase.ErrCycleInProgress):
		s.log.Warn("previous scan still running, tick skipped")
	case err != nil:
		s.log.Error("scan cycle failed", zap.Error(err))
	default:
		s.log.Info("scheduled scan finished",
			zap.String("run_id", run.ID),
			zap.Int("ranked", len(run.Rankings)),
			zap.Int("failed", len(run.Failures)),
		)
	}
}
