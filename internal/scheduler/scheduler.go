// Package scheduler runs the morning briefing on a cron schedule and caches
// the most recent result so the API can serve it without a model round-trip.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/x360-io/x360/pkg/protocol"
)

// RunFunc generates one briefing. It must never return nil; degraded
// briefings are still briefings.
type RunFunc func(ctx context.Context) *protocol.Briefing

// Scheduler owns the cron loop and the latest-briefing cache.
type Scheduler struct {
	mu          sync.RWMutex
	cron        *cron.Cron
	run         RunFunc
	logger      *slog.Logger
	timeout     time.Duration
	latest      *protocol.Briefing
	generatedAt time.Time
}

// New creates a scheduler around the given briefing generator.
func New(run RunFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		run:     run,
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Schedule registers the briefing job. The schedule is a standard cron
// expression (5 fields) or a predefined schedule like @every 6h.
func (s *Scheduler) Schedule(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.logger.Info("scheduled briefing fired", "schedule", schedule)
		s.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q: %w", schedule, err)
	}

	s.logger.Info("briefing schedule registered", "schedule", schedule)
	return nil
}

// Start begins the cron loop. Blocks until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()
	s.cron.Stop()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunNow generates a briefing immediately, caches it, and returns it.
// On-demand API requests and cron firings share this path.
func (s *Scheduler) RunNow(ctx context.Context) *protocol.Briefing {
	b := s.run(ctx)
	now := time.Now()

	s.mu.Lock()
	s.latest = b
	s.generatedAt = now
	s.mu.Unlock()

	s.logger.Info("briefing cached", "items", len(b.Items), "generated_at", now)
	return b
}

// Latest returns the cached briefing and its generation time. ok is false
// when no briefing has been generated yet.
func (s *Scheduler) Latest() (b *protocol.Briefing, generatedAt time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.generatedAt, s.latest != nil
}

// JobCount returns the number of registered cron entries.
func (s *Scheduler) JobCount() int {
	return len(s.cron.Entries())
}
