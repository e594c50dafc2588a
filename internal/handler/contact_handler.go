package handler

import (
	"net/http"
	"strconv"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/service"
)

// ContactHandler handles contact form submission and the admin inbox.
type ContactHandler struct {
	contactService service.ContactService
}

// NewContactHandler creates a ContactHandler with the given service.
func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// submitRequest is the JSON body for POST /api/contacts. The site form sends
// service/budget; older clients send serviceRequested/budgetRange.
type submitRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Company          string `json:"company"`
	Service          string `json:"service"`
	ServiceRequested string `json:"serviceRequested"`
	Message          string `json:"message"`
	Budget           string `json:"budget"`
	BudgetRange      string `json:"budgetRange"`
}

type submitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// Submit handles POST /api/contacts.
// name, email and message are required; message max 5000 characters.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	c := &model.ContactSubmission{
		Name:             req.Name,
		Email:            req.Email,
		Company:          req.Company,
		ServiceRequested: firstNonEmpty(req.Service, req.ServiceRequested),
		Message:          req.Message,
		BudgetRange:      firstNonEmpty(req.Budget, req.BudgetRange),
	}
	if err := h.contactService.Submit(r.Context(), c); err != nil {
		writeFailure(w, r, err, "submit_failed")
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Success: true,
		Message: "Thank you for contacting us. We will get back to you soon.",
		ID:      c.ID,
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// AdminList handles GET /api/admin/contacts.
// Query params: status (all/unread/read), processed (true/false), limit, offset.
func (h *ContactHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := model.ContactListOptions{
		Status: q.Get("status"),
		Limit:  queryInt(r, "limit", 20, 1, 100),
		Offset: queryInt(r, "offset", 0, 0, 1<<31-1),
	}
	switch opts.Status {
	case "", "all", model.ContactUnread, model.ContactRead:
	default:
		writeError(w, http.StatusBadRequest, "invalid_status")
		return
	}
	if p := q.Get("processed"); p != "" {
		b, err := strconv.ParseBool(p)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_processed")
			return
		}
		opts.Processed = &b
	}

	contacts, err := h.contactService.List(r.Context(), opts)
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	// Return [] not null for empty lists
	if contacts == nil {
		contacts = []*model.ContactSubmission{}
	}
	writeJSON(w, http.StatusOK, contacts)
}

// MarkRead handles PATCH /api/admin/contacts/{id}/read.
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.contactService.MarkRead(r.Context(), id); err != nil {
		writeFailure(w, r, err, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
