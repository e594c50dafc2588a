package handler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/report"
	"github.com/macandtoo/backend/internal/service"
)

const reportRowLimit = 100

// ArtifactReader is satisfied by *report.Exporter.
type ArtifactReader interface {
	Buffer() ([]byte, error)
}

// ContactSnapshot supplies the rows and counts for the PDF report.
type ContactSnapshot interface {
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error)
	CountByState(ctx context.Context) (model.ContactStateCounts, error)
}

// BatchHandler exposes the export pipeline's maintenance actions to admins.
type BatchHandler struct {
	processor service.BatchProcessor
	artifact  ArtifactReader
	contacts  ContactSnapshot
	now       func() time.Time
}

func NewBatchHandler(processor service.BatchProcessor, artifact ArtifactReader, contacts ContactSnapshot) *BatchHandler {
	return &BatchHandler{processor: processor, artifact: artifact, contacts: contacts, now: time.Now}
}

// ProcessContacts handles POST /api/admin/process-contacts. The run is
// synchronous; an export or notification failure answers 500 and leaves the
// claimed rows pending.
func (h *BatchHandler) ProcessContacts(w http.ResponseWriter, r *http.Request) {
	res, err := h.processor.ProcessContacts(r.Context())
	if err != nil {
		kind := "unknown"
		var ae *apperr.Error
		if errors.As(err, &ae) {
			kind = string(ae.Kind)
		}
		slog.Error("process contacts failed", "kind", kind, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "process_failed",
			"kind":  kind,
		})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CleanupTemp handles POST /api/admin/cleanup-temp.
func (h *BatchHandler) CleanupTemp(w http.ResponseWriter, r *http.Request) {
	n, err := h.processor.CleanupTemp(r.Context())
	if err != nil {
		writeFailure(w, r, err, "cleanup_failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Removed %d temporary files", n),
		"removed": n,
	})
}

// Export handles GET /api/admin/contacts/export: the canonical workbook.
func (h *BatchHandler) Export(w http.ResponseWriter, r *http.Request) {
	b, err := h.artifact.Buffer()
	if errors.Is(err, fs.ErrNotExist) {
		writeError(w, http.StatusNotFound, "no_export")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "export_failed")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.xlsx"`)
	_, _ = w.Write(b)
}

// Report handles GET /api/admin/contacts/report: a PDF of the latest submissions.
func (h *BatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	rows, err := h.contacts.List(r.Context(), model.ContactListOptions{Limit: reportRowLimit})
	if err != nil {
		writeFailure(w, r, err, "report_failed")
		return
	}
	counts, err := h.contacts.CountByState(r.Context())
	if err != nil {
		writeFailure(w, r, err, "report_failed")
		return
	}
	now := h.now()
	b, err := report.SummaryPDF(rows, counts, now)
	if err != nil {
		writeFailure(w, r, err, "report_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="contacts-%s.pdf"`, now.UTC().Format("20060102")))
	_, _ = w.Write(b)
}
