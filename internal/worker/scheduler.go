package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/macandtoo/backend/internal/queue"
)

// Scheduler publishes a process_contacts task on a fixed interval so rows a
// failed run returned to pending are retried without a new submission.
type Scheduler struct {
	publisher Publisher
	interval  time.Duration
}

func NewScheduler(publisher Publisher, interval time.Duration) *Scheduler {
	return &Scheduler{publisher: publisher, interval: interval}
}

// Run publishes once at start, then on every tick until ctx is cancelled.
// A non-positive interval disables scheduling.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		slog.Info("scheduler disabled")
		return nil
	}
	slog.Info("scheduler started", "interval", s.interval.String())

	s.tick(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick(ctx)
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return nil
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.publisher.Publish(ctx, queue.NewTask(queue.KindProcessContacts, 0)); err != nil && ctx.Err() == nil {
		slog.Error("scheduled publish failed", "error", err)
	}
}
