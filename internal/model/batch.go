package model

import "time"

// BatchResult summarises one contact processing run.
type BatchResult struct {
	RunID        string    `json:"run_id"`
	Processed    int       `json:"processed"`
	Skipped      bool      `json:"skipped"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	Notified     bool      `json:"notified"`
	Mirrored     bool      `json:"mirrored"`
	Message      string    `json:"message"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}
