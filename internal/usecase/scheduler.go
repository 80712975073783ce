package usecase

import (
	"context"
	"time"

	"AlphaScreener/internal/ports"
)

// Scheduler refreshes the watchlist on every tick of a cron driver.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// NewScheduler binds driver to the pipeline's watchlist refresh.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline}
}

// Start registers the refresh job. Failed projects are logged per tick and
// do not stop later ticks.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) {
		if err := s.pipeline.RefreshWatchlist(ctx, trigger); err != nil {
			s.pipeline.logger.Warn("scheduled watchlist refresh incomplete", "trigger", trigger, "error", err)
		}
	})
}

// Stop halts the driver, waiting for a running refresh up to ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
