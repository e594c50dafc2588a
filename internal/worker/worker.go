// Package worker runs queued background tasks: post-submission email and the
// contact batch.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/queue"
	"github.com/macandtoo/backend/internal/repository"
)

type SubmissionFinder interface {
	FindByID(ctx context.Context, id int64) (*model.ContactSubmission, error)
}

type Notifier interface {
	SendConfirmation(ctx context.Context, c *model.ContactSubmission) error
	SendAdminAlert(ctx context.Context, c *model.ContactSubmission) error
}

type Processor interface {
	ProcessContacts(ctx context.Context) (*model.BatchResult, error)
	CleanupTemp(ctx context.Context) (int, error)
}

type Publisher interface {
	Publish(ctx context.Context, t queue.Task) error
}

// Worker maps task kinds to their handlers.
type Worker struct {
	contacts  SubmissionFinder
	notifier  Notifier
	processor Processor
	publisher Publisher
}

func New(contacts SubmissionFinder, notifier Notifier, processor Processor, publisher Publisher) *Worker {
	return &Worker{
		contacts:  contacts,
		notifier:  notifier,
		processor: processor,
		publisher: publisher,
	}
}

// Run consumes q until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, q queue.Queue) error {
	slog.Info("worker started")
	defer slog.Info("worker stopped")
	return q.Consume(ctx, w.Handle)
}

// Handle processes one task. Returning an error asks the queue to retry.
func (w *Worker) Handle(ctx context.Context, t queue.Task) error {
	switch t.Kind {
	case queue.KindContactReceived:
		return w.contactReceived(ctx, t)
	case queue.KindProcessContacts:
		res, err := w.processor.ProcessContacts(ctx)
		if err != nil {
			return err
		}
		slog.Info("batch task finished",
			"task_id", t.ID, "run_id", res.RunID, "processed", res.Processed, "skipped", res.Skipped)
		return nil
	case queue.KindCleanupTemp:
		n, err := w.processor.CleanupTemp(ctx)
		if err != nil {
			return err
		}
		slog.Info("temp cleanup finished", "task_id", t.ID, "removed", n)
		return nil
	default:
		slog.Warn("unknown task kind", "task_id", t.ID, "kind", t.Kind)
		return nil
	}
}

// contactReceived sends both intake emails. Send failures are logged only:
// a retry would repeat the confirmation the submitter may already have.
func (w *Worker) contactReceived(ctx context.Context, t queue.Task) error {
	c, err := w.contacts.FindByID(ctx, t.SubmissionID)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Warn("submission vanished before notification", "submission_id", t.SubmissionID)
		return nil
	}
	if err != nil {
		return err
	}

	if err := w.notifier.SendConfirmation(ctx, c); err != nil {
		logSendError("confirmation email failed", c.ID, err)
	}
	if err := w.notifier.SendAdminAlert(ctx, c); err != nil {
		logSendError("admin alert failed", c.ID, err)
	}

	if err := w.publisher.Publish(ctx, queue.NewTask(queue.KindProcessContacts, 0)); err != nil {
		slog.Error("publish process_contacts failed", "submission_id", c.ID, "error", err)
	}
	return nil
}

func logSendError(msg string, id int64, err error) {
	if errors.Is(err, notify.ErrNotConfigured) {
		slog.Debug(msg, "submission_id", id, "error", err)
		return
	}
	slog.Error(msg, "submission_id", id, "error", err)
}
