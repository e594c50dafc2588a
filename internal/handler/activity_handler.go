package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

// ActivityHandler serves the back-office audit log.
type ActivityHandler struct {
	svc service.ActivityService
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(svc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// List handles GET /api/admin/activity?user_id&action&from&to&limit.
// from/to are RFC 3339 timestamps.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.ActivityFilter{
		Action: q.Get("action"),
		Limit:  queryInt(r, "limit", 50, 1, 100),
	}
	if v := q.Get("user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user_id")
			return
		}
		f.UserID = &id
	}
	for key, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		v := q.Get(key)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_"+key)
			return
		}
		*dst = &t
	}

	items, err := h.svc.List(r.Context(), f)
	if err != nil {
		writeFailure(w, r, err, "activity_failed")
		return
	}
	if items == nil {
		items = []*model.ActivityLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activities": items})
}

// ActivityLogger records every authenticated admin request. It sits inside
// RequireAuth so the claims are available.
func ActivityLogger(svc service.ActivityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(sr, r)

			entry := &model.ActivityLog{
				Action:         r.Method + " " + r.URL.Path,
				IPAddress:      remoteHost(r),
				StatusCode:     sr.statusCode,
				ResponseTimeMs: time.Since(start).Milliseconds(),
			}
			if id, ok := auth.UserIDFromContext(r.Context()); ok {
				entry.UserID = &id
			}
			if r.URL.RawQuery != "" {
				entry.Details, _ = json.Marshal(map[string]string{"query": r.URL.RawQuery})
			}

			// クライアントが切断しても記録は残す
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
			defer cancel()
			if err := svc.Record(ctx, entry); err != nil {
				slog.Warn("activity record failed", "action", entry.Action, "error", err)
			}
		})
	}
}
