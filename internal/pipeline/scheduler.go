package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers a pipeline run on a recurring cron schedule. A tick that
// arrives while the previous run is still active is skipped; no state is
// carried between runs beyond what the stages persist themselves.
type Scheduler struct {
	pipeline *Pipeline
	spec     string
	cron     *cron.Cron
	logger   *zap.Logger
	running  sync.Mutex
}

// NewScheduler creates a Scheduler for the given cron spec.
func NewScheduler(p *Pipeline, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		pipeline: p,
		spec:     spec,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the schedule and blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.logger.Info("pipeline schedule registered", zap.String("spec", s.spec))
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous pipeline run still active, skipping this tick")
		return
	}
	defer s.running.Unlock()

	if err := s.pipeline.Run(ctx); err != nil {
		s.logger.Error("scheduled pipeline run failed", zap.Error(err))
	}
}
