package handler

import (
	"net/http"

	"github.com/macandtoo/backend/internal/service"
)

type DashboardHandler struct {
	svc service.DashboardService
}

func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Get handles GET /api/admin/dashboard.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		writeFailure(w, r, err, "dashboard_failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
