package model

import (
	"encoding/json"
	"time"
)

// ActivityLog is one audited back-office request.
type ActivityLog struct {
	ID             int64           `json:"id"`
	UserID         *int64          `json:"user_id,omitempty"`
	Username       string          `json:"username,omitempty"`
	Action         string          `json:"action"`
	Details        json.RawMessage `json:"details,omitempty"`
	IPAddress      string          `json:"ip_address"`
	StatusCode     int             `json:"status_code"`
	ResponseTimeMs int64           `json:"response_time_ms"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ActivityFilter narrows an activity log listing.
type ActivityFilter struct {
	UserID *int64
	Action string
	From   *time.Time
	To     *time.Time
	Limit  int
}
