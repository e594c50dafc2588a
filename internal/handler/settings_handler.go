package handler

import (
	"errors"
	"net/http"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

type SettingsHandler struct {
	svc service.SettingsService
}

func NewSettingsHandler(svc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{svc: svc}
}

// Get handles GET /api/admin/settings. The SMTP password is masked.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context())
	if err != nil {
		writeFailure(w, r, err, "settings_failed")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Update handles PUT /api/admin/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in model.Settings
	if !decodeJSON(w, r, &in) {
		return
	}
	var updatedBy *int64
	if id, ok := auth.UserIDFromContext(r.Context()); ok {
		updatedBy = &id
	}
	s, err := h.svc.Update(r.Context(), in, updatedBy)
	if err != nil {
		writeFailure(w, r, err, "settings_failed")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

type testEmailRequest struct {
	To string `json:"to"`
}

// TestEmail handles POST /api/admin/settings/test-email. An empty body sends
// to the configured from address.
func (h *SettingsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.SendTestEmail(r.Context(), req.To)
	switch {
	case errors.Is(err, notify.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "smtp_not_configured")
	case apperr.IsKind(err, apperr.KindNotification):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   "send_failed",
			"message": err.Error(),
		})
	case err != nil:
		writeFailure(w, r, err, "send_failed")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
