package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/queue"
	"github.com/macandtoo/backend/internal/repository"
)

// MaxMessageRunes bounds the message field.
const MaxMessageRunes = 5000

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo      repository.ContactRepository
	publisher TaskPublisher
}

// NewContactService creates a ContactService backed by the given repository.
// publisher may be nil, in which case rows wait for the scheduled batch and
// no intake email is sent.
func NewContactService(repo repository.ContactRepository, publisher TaskPublisher) ContactService {
	return &contactServiceImpl{repo: repo, publisher: publisher}
}

// Submit trims and validates c, stores it as unread and pending, then queues
// the intake email. A publish failure is logged only: the row is already
// durable and the next scheduled batch exports it.
func (s *contactServiceImpl) Submit(ctx context.Context, c *model.ContactSubmission) error {
	normalizeContact(c)
	if err := validateContact(c); err != nil {
		return err
	}

	c.Status = model.ContactUnread
	c.ExportState = model.ExportPending
	c.Processed = false
	if err := s.repo.Save(ctx, c); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "save contact", err)
	}
	slog.Info("contact submission stored", "submission_id", c.ID)

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, queue.NewTask(queue.KindContactReceived, c.ID)); err != nil {
			slog.Error("publish contact_received failed", "submission_id", c.ID, "error", err)
		}
	}
	return nil
}

func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*model.ContactSubmission, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns submissions according to the given filter/pagination options.
func (s *contactServiceImpl) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error) {
	return s.repo.List(ctx, opts)
}

func (s *contactServiceImpl) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkRead(ctx, id)
}

func normalizeContact(c *model.ContactSubmission) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Company = strings.TrimSpace(c.Company)
	c.ServiceRequested = strings.TrimSpace(c.ServiceRequested)
	c.Message = strings.TrimSpace(c.Message)
	c.BudgetRange = strings.TrimSpace(c.BudgetRange)
}

func validateContact(c *model.ContactSubmission) error {
	switch {
	case c.Name == "":
		return apperr.Validation("name", "name is required")
	case c.Email == "":
		return apperr.Validation("email", "email is required")
	case c.Message == "":
		return apperr.Validation("message", "message is required")
	case utf8.RuneCountInString(c.Message) > MaxMessageRunes:
		return apperr.Validation("message", "message is too long")
	}
	return nil
}
