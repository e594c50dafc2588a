package service

import (
	"context"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 100
)

// ActivityService records and lists the back-office audit log.
type ActivityService interface {
	Record(ctx context.Context, a *model.ActivityLog) error
	List(ctx context.Context, f model.ActivityFilter) ([]*model.ActivityLog, error)
}

type activityService struct {
	repo repository.ActivityRepository
}

// NewActivityService creates an ActivityService.
func NewActivityService(repo repository.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

func (s *activityService) Record(ctx context.Context, a *model.ActivityLog) error {
	return s.repo.Insert(ctx, a)
}

// List clamps the limit to 1..100 (default 50).
func (s *activityService) List(ctx context.Context, f model.ActivityFilter) ([]*model.ActivityLog, error) {
	switch {
	case f.Limit <= 0:
		f.Limit = defaultActivityLimit
	case f.Limit > maxActivityLimit:
		f.Limit = maxActivityLimit
	}
	return s.repo.List(ctx, f)
}
