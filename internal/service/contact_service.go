package service

import (
	"context"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/queue"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates and stores a new submission. The ID and timestamps are
	// populated by the implementation. Post-submission email is handed to the
	// worker; its outcome never affects the result.
	Submit(ctx context.Context, c *model.ContactSubmission) error

	Get(ctx context.Context, id int64) (*model.ContactSubmission, error)

	// List returns submissions according to the given options.
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error)

	MarkRead(ctx context.Context, id int64) error
}

// TaskPublisher hands work to the background worker.
type TaskPublisher interface {
	Publish(ctx context.Context, t queue.Task) error
}
