package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Refresher is what the Scheduler drives.
type Refresher interface {
	Refresh(ctx context.Context) Snapshot
}

// Scheduler refreshes rates immediately and then on a fixed interval.
type Scheduler struct {
	target   Refresher
	interval time.Duration
	logger   *zap.SugaredLogger
}

// NewScheduler creates a scheduler refreshing target every interval.
func NewScheduler(target Refresher, interval time.Duration, logger *zap.SugaredLogger) *Scheduler {
	return &Scheduler{target: target, interval: interval, logger: logger}
}

// Run blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Infow("starting rate scheduler", "interval", s.interval.String())
	s.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("stopping rate scheduler")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	snap := s.target.Refresh(ctx)
	s.logger.Debugw("scheduled refresh finished", "status", snap.Status, "generation", snap.Generation)
}
