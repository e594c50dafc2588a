package handler

import (
	"errors"
	"net/http"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

// AdminUserHandler handles team (back-office account) management.
type AdminUserHandler struct {
	adminSvc service.AdminUserService
}

// NewAdminUserHandler creates an AdminUserHandler.
func NewAdminUserHandler(adminSvc service.AdminUserService) *AdminUserHandler {
	return &AdminUserHandler{adminSvc: adminSvc}
}

func writeTeamFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if errors.Is(err, service.ErrProtectedUser) {
		writeError(w, http.StatusForbidden, "protected_user")
		return
	}
	writeFailure(w, r, err, fallback)
}

// List handles GET /api/admin/team.
func (h *AdminUserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminSvc.List(r.Context())
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	if users == nil {
		users = []*model.AdminUser{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Create handles POST /api/admin/team.
func (h *AdminUserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.AdminUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	u, err := h.adminSvc.Create(r.Context(), in)
	if err != nil {
		writeTeamFailure(w, r, err, "create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": u})
}

// Update handles PUT /api/admin/team/{id}. The password is changed separately.
func (h *AdminUserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in service.AdminUserInput
	if !decodeJSON(w, r, &in) {
		return
	}
	in.Password = ""
	u, err := h.adminSvc.Update(r.Context(), id, in)
	if err != nil {
		writeTeamFailure(w, r, err, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Delete handles DELETE /api/admin/team/{id}.
func (h *AdminUserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if self, _ := auth.UserIDFromContext(r.Context()); self == id {
		writeError(w, http.StatusBadRequest, "cannot_delete_self")
		return
	}
	if err := h.adminSvc.Delete(r.Context(), id); err != nil {
		writeTeamFailure(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword handles PUT /api/admin/team/{id}/password. Members change
// only their own password.
func (h *AdminUserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if self, _ := auth.UserIDFromContext(r.Context()); self != id {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.adminSvc.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusBadRequest, "wrong_password")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
