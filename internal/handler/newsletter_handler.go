package handler

import (
	"errors"
	"net/http"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

type NewsletterHandler struct {
	svc service.NewsletterService
}

func NewNewsletterHandler(svc service.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

type emailRequest struct {
	Email string `json:"email"`
}

// Subscribe handles POST /api/newsletter/subscribe.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sub, err := h.svc.Subscribe(r.Context(), req.Email)
	if errors.Is(err, repository.ErrDuplicate) {
		writeError(w, http.StatusConflict, "already_subscribed")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "subscribe_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"subscriber": sub})
}

// Unsubscribe handles POST /api/newsletter/unsubscribe.
func (h *NewsletterHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Unsubscribe(r.Context(), req.Email); err != nil {
		writeFailure(w, r, err, "unsubscribe_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// List handles GET /api/admin/newsletters.
func (h *NewsletterHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context(), queryInt(r, "limit", 20, 1, 100), queryInt(r, "offset", 0, 0, 1<<31-1))
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	if items == nil {
		items = []*model.Newsletter{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"newsletters": items})
}

type newsletterRequest struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Create handles POST /api/admin/newsletters. New newsletters are drafts.
func (h *NewsletterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n := &model.Newsletter{Title: req.Title, Subject: req.Subject, Content: req.Content}
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		n.CreatedBy = &id
	}
	if err := h.svc.Create(r.Context(), n); err != nil {
		writeFailure(w, r, err, "create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"newsletter": n})
}

// Get handles GET /api/admin/newsletters/{id}.
func (h *NewsletterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"newsletter": n})
}

// Send handles POST /api/admin/newsletters/{id}/send. Chunk failures are
// reported in the body with status "partial", not as an HTTP error.
func (h *NewsletterHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Send(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrAlreadySent):
		writeError(w, http.StatusConflict, "already_sent")
		return
	case errors.Is(err, notify.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "smtp_not_configured")
		return
	case err != nil:
		writeFailure(w, r, err, "send_failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Subscribers handles GET /api/admin/subscribers.
func (h *NewsletterHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscribers(r.Context(), queryInt(r, "limit", 50, 1, 200), queryInt(r, "offset", 0, 0, 1<<31-1))
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	if subs == nil {
		subs = []*model.Subscriber{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscribers": subs})
}
