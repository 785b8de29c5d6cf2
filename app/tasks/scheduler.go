package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"podkeep/app/refresh"
)

// Scheduler drives periodic refresh cycles in the background
type Scheduler struct {
	orchestrator *refresh.Orchestrator
	interval     time.Duration
	cron         *cron.Cron
	running      atomic.Bool
}

// NewScheduler creates a scheduler that refreshes every interval
func NewScheduler(orchestrator *refresh.Orchestrator, interval time.Duration) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		cron:         cron.New(),
	}
}

// Start begins periodic refreshes. The first cycle runs immediately.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.runCycle); err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	s.cron.Start()
	go s.runCycle()
	slog.Info("Scheduler started", "interval", s.interval)
	return nil
}

// Stop halts scheduling and waits for a running cycle to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Scheduler stopped")
}

// runCycle executes one refresh; overlapping cycles are skipped so a slow
// run never stacks behind the next tick.
func (s *Scheduler) runCycle() {
	if !s.running.CompareAndSwap(false, true) {
		slog.Debug("Previous refresh cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	err := s.orchestrator.Refresh(context.Background(), func(p refresh.Progress) {
		slog.Debug("Feed refresh progress", "feed", p.FeedID, "status", p.Status, "new", p.NewArticles)
	}, false)
	if err != nil {
		slog.Error("Scheduled refresh failed", "error", err)
		return
	}
	slog.Info("Scheduled refresh completed", "duration", time.Since(start))
}
