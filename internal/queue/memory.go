package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultBuffer  = 128
	defaultBackoff = 500 * time.Millisecond
)

// MemoryQueue is an in-process queue backed by a buffered channel. Tasks are
// lost on restart; the scheduler's periodic process_contacts run picks up
// anything left pending.
type MemoryQueue struct {
	tasks      chan Task
	done       chan struct{}
	closeOnce  sync.Once
	maxRetries int
	backoff    time.Duration
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates a queue holding up to buffer tasks.
func NewMemoryQueue(buffer, maxRetries int) *MemoryQueue {
	if buffer < 1 {
		buffer = defaultBuffer
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &MemoryQueue{
		tasks:      make(chan Task, buffer),
		done:       make(chan struct{}),
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
	}
}

// Publish enqueues t, or returns ErrFull when the buffer has no room.
func (q *MemoryQueue) Publish(ctx context.Context, t Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.tasks <- t:
		return nil
	default:
		return ErrFull
	}
}

// Consume runs tasks one at a time. A failing task is retried in place with
// linear backoff until it succeeds or maxRetries is exhausted.
func (q *MemoryQueue) Consume(ctx context.Context, h Handler) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.done:
			return nil
		case t := <-q.tasks:
			q.run(ctx, h, t)
		}
	}
}

func (q *MemoryQueue) run(ctx context.Context, h Handler, t Task) {
	for {
		err := h(ctx, t)
		if err == nil {
			return
		}
		if t.Attempt >= q.maxRetries {
			slog.Error("task dropped after retries",
				"task_id", t.ID, "kind", t.Kind, "attempts", t.Attempt+1, "error", err)
			return
		}
		t.Attempt++
		slog.Warn("task failed, retrying",
			"task_id", t.ID, "kind", t.Kind, "attempt", t.Attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(t.Attempt) * q.backoff):
		}
	}
}

// Close stops consumers and rejects further publishes.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}
