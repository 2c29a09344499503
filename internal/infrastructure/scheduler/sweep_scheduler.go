// Package scheduler runs the periodic evaluation sweep.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/agrovia/riskengine/internal/application/service"
	"github.com/agrovia/riskengine/internal/config"
	"github.com/agrovia/riskengine/pkg/logger"
)

// SweepScheduler triggers batch evaluation sweeps on a cron schedule.
// Overlapping runs are skipped: if a sweep is still in flight when the
// next tick fires, the tick is dropped and logged.
type SweepScheduler struct {
	cron    *cron.Cron
	evals   service.EvaluationAppService
	spec    string
	logger  logger.Logger
	running atomic.Bool
}

// NewSweepScheduler creates the scheduler. It does not start the cron loop.
func NewSweepScheduler(cfg *config.SchedulerConfig, evals service.EvaluationAppService, log logger.Logger) *SweepScheduler {
	return &SweepScheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		evals:  evals,
		spec:   cfg.SweepCron,
		logger: log.WithComponent("sweep-scheduler"),
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *SweepScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info(ctx, "sweep scheduler started", logger.String("cron", s.spec))
	return nil
}

// Stop stops the cron loop and waits for a running sweep to finish.
func (s *SweepScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// TriggerNow runs a sweep immediately, outside the cron schedule. Used by
// the admin endpoint. Returns false if a sweep is already in flight.
func (s *SweepScheduler) TriggerNow(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	defer s.running.Store(false)
	s.sweep(ctx)
	return true
}

func (s *SweepScheduler) runSweep(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn(ctx, "previous sweep still running, skipping tick")
		return
	}
	defer s.running.Store(false)
	s.sweep(ctx)
}

func (s *SweepScheduler) sweep(ctx context.Context) {
	report, err := s.evals.RunSweep(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed", err)
		return
	}
	s.logger.Info(ctx, "sweep completed",
		logger.Int("tenants", report.Tenants),
		logger.Int("entities", report.Entities),
		logger.Int("evaluated", report.Evaluated),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed),
		logger.Int("notified", report.Notified),
		logger.String("duration", report.Duration.String()))
}
