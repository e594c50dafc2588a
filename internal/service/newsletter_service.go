package service

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/repository"
)

// ErrAlreadySent is returned when sending a newsletter that went out in full.
var ErrAlreadySent = errors.New("newsletter already sent")

const newsletterTemplate = "newsletter.html"

// NewsletterService manages subscribers and dispatches newsletters.
type NewsletterService interface {
	Create(ctx context.Context, n *model.Newsletter) error
	Get(ctx context.Context, id int64) (*model.Newsletter, error)
	List(ctx context.Context, limit, offset int) ([]*model.Newsletter, error)
	// Send mails newsletter id to every active subscriber in fixed-size
	// chunks and records one delivery per subscriber. Sending a partial
	// newsletter again only reaches subscribers without a sent delivery.
	Send(ctx context.Context, id int64) (*model.DispatchResult, error)

	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListSubscribers(ctx context.Context, limit, offset int) ([]*model.Subscriber, error)
}

// BulkSender is satisfied by *notify.Service.
type BulkSender interface {
	SendBatch(ctx context.Context, recipients []string, subject, templateName string, data any) (*notify.BatchOutcome, error)
}

type newsletterServiceImpl struct {
	newsletters repository.NewsletterRepository
	subscribers repository.SubscriberRepository
	sender      BulkSender
}

func NewNewsletterService(newsletters repository.NewsletterRepository, subscribers repository.SubscriberRepository, sender BulkSender) NewsletterService {
	return &newsletterServiceImpl{newsletters: newsletters, subscribers: subscribers, sender: sender}
}

func (s *newsletterServiceImpl) Create(ctx context.Context, n *model.Newsletter) error {
	n.Title = strings.TrimSpace(n.Title)
	n.Subject = strings.TrimSpace(n.Subject)
	if n.Title == "" {
		return apperr.Validation("title", "title is required")
	}
	if strings.TrimSpace(n.Content) == "" {
		return apperr.Validation("content", "content is required")
	}
	if n.Subject == "" {
		n.Subject = n.Title
	}
	n.Status = model.NewsletterDraft
	n.SentAt = nil
	return s.newsletters.Create(ctx, n)
}

func (s *newsletterServiceImpl) Get(ctx context.Context, id int64) (*model.Newsletter, error) {
	return s.newsletters.FindByID(ctx, id)
}

func (s *newsletterServiceImpl) List(ctx context.Context, limit, offset int) ([]*model.Newsletter, error) {
	return s.newsletters.List(ctx, limit, offset)
}

func (s *newsletterServiceImpl) Send(ctx context.Context, id int64) (*model.DispatchResult, error) {
	n, err := s.newsletters.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.Status == model.NewsletterSent {
		return nil, ErrAlreadySent
	}
	subs, err := s.subscribers.ListActive(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "list subscribers", err)
	}
	if n.Status == model.NewsletterPartial {
		sent, err := s.newsletters.SentSubscriberIDs(ctx, id)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindPersistence, "load deliveries", err)
		}
		pending := subs[:0:0]
		for _, sub := range subs {
			if !sent[sub.ID] {
				pending = append(pending, sub)
			}
		}
		subs = pending
	}

	recipients := make([]string, len(subs))
	for i, sub := range subs {
		recipients[i] = sub.Email
	}

	outcome := &notify.BatchOutcome{}
	if len(recipients) > 0 {
		data := map[string]any{
			"Title": n.Title,
			// Authored in the admin editor.
			"Content": template.HTML(n.Content),
		}
		var sendErr error
		outcome, sendErr = s.sender.SendBatch(ctx, recipients, n.Subject, newsletterTemplate, data)
		if outcome == nil {
			return nil, sendErr
		}
		if sendErr != nil {
			slog.Warn("newsletter sent with failures", "newsletter_id", id, "error", sendErr)
		}
	}

	res := &model.DispatchResult{NewsletterID: id, Batches: len(outcome.Chunks), Status: model.NewsletterSent}
	deliveries := make([]model.Delivery, 0, len(subs))
	for _, sub := range subs {
		status := model.DeliverySent
		if outcome.Failed(sub.Email) {
			status = model.DeliveryFailed
			res.Failed++
		} else {
			res.Sent++
		}
		deliveries = append(deliveries, model.Delivery{
			NewsletterID: id, SubscriberID: sub.ID, Email: sub.Email, Status: status,
		})
	}
	if res.Failed > 0 {
		res.Status = model.NewsletterPartial
	}

	if err := s.newsletters.RecordDispatch(ctx, id, deliveries, res.Status); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "record dispatch", err)
	}
	slog.Info("newsletter dispatched",
		"newsletter_id", id, "batches", res.Batches, "sent", res.Sent, "failed", res.Failed)
	return res, nil
}

func (s *newsletterServiceImpl) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.subscribers.Subscribe(ctx, email)
}

func (s *newsletterServiceImpl) Unsubscribe(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.subscribers.Unsubscribe(ctx, email)
}

func (s *newsletterServiceImpl) ListSubscribers(ctx context.Context, limit, offset int) ([]*model.Subscriber, error) {
	return s.subscribers.List(ctx, limit, offset)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperr.Validation("email", "email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return "", apperr.Validation("email", "email is invalid")
	}
	return email, nil
}
