package repository

import (
	"context"

	"github.com/macandtoo/backend/internal/model"
)

// ActivityRepository handles persistence for the back-office audit log.
type ActivityRepository interface {
	// Insert records one request.
	Insert(ctx context.Context, a *model.ActivityLog) error
	// List returns the newest entries matching f.
	List(ctx context.Context, f model.ActivityFilter) ([]*model.ActivityLog, error)
}
