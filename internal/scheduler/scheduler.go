// Package scheduler runs periodic maintenance of the exercise cache.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper drops expired cache entries and reports how many were removed.
type Sweeper interface {
	Cleanup(ctx context.Context) int
}

type Scheduler struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	interval  time.Duration
	logger    *slog.Logger
}

func New(sweeper Sweeper, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		sweeper:   sweeper,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the sweep and runs it in the background. The first run
// happens immediately.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.interval).Do(s.sweep); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("Cache sweep scheduled", slog.Duration("interval", s.interval))
	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	started := time.Now()
	removed := s.sweeper.Cleanup(ctx)
	s.logger.Info("Cache sweep finished",
		slog.Int("removed", removed),
		slog.Duration("took", time.Since(started)),
	)
}
