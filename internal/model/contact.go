package model

import "time"

// ExportState is the outbox position of a submission in the export pipeline.
type ExportState string

const (
	ExportPending   ExportState = "pending"
	ExportExporting ExportState = "exporting"
	ExportNotified  ExportState = "notified"
	ExportDone      ExportState = "done"
)

const (
	ContactUnread = "unread"
	ContactRead   = "read"
)

// ContactSubmission is one contact-form message. It is both the inbox item
// (Status) and the export outbox row (ExportState, Processed).
type ContactSubmission struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Email            string      `json:"email"`
	Company          string      `json:"company,omitempty"`
	ServiceRequested string      `json:"service_requested,omitempty"`
	Message          string      `json:"message"`
	BudgetRange      string      `json:"budget_range,omitempty"`
	Status           string      `json:"status"` // "unread" | "read"
	ExportState      ExportState `json:"export_state"`
	Processed        bool        `json:"processed"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ContactListOptions carries filter and pagination parameters for the admin inbox.
type ContactListOptions struct {
	// Status filters by inbox status: "", "all", "unread", "read".
	Status string
	// Processed filters by export flag when non-nil.
	Processed *bool
	Limit     int
	Offset    int
}

// ContactStateCounts is the number of submissions per export state.
type ContactStateCounts map[ExportState]int
