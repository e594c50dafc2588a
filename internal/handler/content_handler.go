package handler

import (
	"net/http"

	"github.com/macandtoo/backend/internal/service"
)

// ContentHandler serves one kind of site content. Public routes see visible
// rows only; admin routes see everything. plural and single name the JSON
// envelopes ("posts" / "post").
type ContentHandler[T any] struct {
	svc    service.ContentService[T]
	plural string
	single string
}

func NewContentHandler[T any](svc service.ContentService[T], plural, single string) *ContentHandler[T] {
	return &ContentHandler[T]{svc: svc, plural: plural, single: single}
}

func (h *ContentHandler[T]) list(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	items, err := h.svc.List(r.Context(), visibleOnly)
	if err != nil {
		writeFailure(w, r, err, "list_failed")
		return
	}
	if items == nil {
		items = []*T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{h.plural: items})
}

func (h *ContentHandler[T]) get(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := h.svc.Get(r.Context(), id, visibleOnly)
	if err != nil {
		writeFailure(w, r, err, "get_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.single: item})
}

func (h *ContentHandler[T]) PublicList(w http.ResponseWriter, r *http.Request) { h.list(w, r, true) }
func (h *ContentHandler[T]) PublicGet(w http.ResponseWriter, r *http.Request)  { h.get(w, r, true) }
func (h *ContentHandler[T]) AdminList(w http.ResponseWriter, r *http.Request)  { h.list(w, r, false) }
func (h *ContentHandler[T]) AdminGet(w http.ResponseWriter, r *http.Request)   { h.get(w, r, false) }

func (h *ContentHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	item := new(T)
	if !decodeJSON(w, r, item) {
		return
	}
	if err := h.svc.Create(r.Context(), item); err != nil {
		writeFailure(w, r, err, "create_failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{h.single: item})
}

// Update replaces the row at {id}; the body id is ignored.
func (h *ContentHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item := new(T)
	if !decodeJSON(w, r, item) {
		return
	}
	if err := h.svc.Update(r.Context(), id, item); err != nil {
		writeFailure(w, r, err, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{h.single: item})
}

func (h *ContentHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err, "delete_failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
