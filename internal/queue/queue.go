// Package queue hands work from the HTTP path to the background worker.
//
// Three drivers share one interface: an in-process channel, a Redis list and
// a durable RabbitMQ queue. Delivery is at-least-once; handlers must be safe
// to run twice for the same task.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/macandtoo/backend/internal/config"
)

// Kind names what a task asks the worker to do.
type Kind string

const (
	// KindContactReceived sends the confirmation and admin alert for one submission.
	KindContactReceived Kind = "contact_received"
	// KindProcessContacts runs the contact batch.
	KindProcessContacts Kind = "process_contacts"
	// KindCleanupTemp empties the transient workbook directory.
	KindCleanupTemp Kind = "cleanup_temp"
)

var (
	// ErrClosed is returned by Publish after Close.
	ErrClosed = errors.New("queue: closed")
	// ErrFull is returned by the memory driver when its buffer has no room.
	// The scheduled batch picks up whatever a dropped task would have done.
	ErrFull = errors.New("queue: full")
)

// Task is one unit of background work.
type Task struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	SubmissionID int64     `json:"submission_id,omitempty"`
	Attempt      int       `json:"attempt"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// NewTask stamps a fresh id and enqueue time.
func NewTask(kind Kind, submissionID int64) Task {
	return Task{
		ID:           uuid.NewString(),
		Kind:         kind,
		SubmissionID: submissionID,
		EnqueuedAt:   time.Now().UTC(),
	}
}

// Handler processes a task. A non-nil error asks the queue to redeliver it,
// up to the configured retry limit.
type Handler func(ctx context.Context, t Task) error

// Queue is implemented by every driver.
type Queue interface {
	// Publish never waits on a consumer; handlers publish to the queue that
	// feeds them.
	Publish(ctx context.Context, t Task) error
	// Consume blocks, feeding tasks to h until ctx is cancelled or the queue
	// is closed.
	Consume(ctx context.Context, h Handler) error
	Close() error
}

// New opens the driver named by cfg.Driver.
func New(ctx context.Context, cfg *config.QueueConfig) (Queue, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryQueue(cfg.Buffer, cfg.MaxRetries), nil
	case "redis":
		return NewRedisQueue(ctx, cfg)
	case "amqp":
		return NewAMQPQueue(cfg)
	default:
		return nil, fmt.Errorf("queue: unknown driver %q", cfg.Driver)
	}
}

func encode(t Task) ([]byte, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("queue: encode task: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Task, error) {
	var t Task
	if err := json.Unmarshal(b, &t); err != nil {
		return Task{}, fmt.Errorf("queue: decode task: %w", err)
	}
	if t.Kind == "" {
		return Task{}, errors.New("queue: task without kind")
	}
	return t, nil
}
