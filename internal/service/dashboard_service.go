package service

import (
	"context"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
)

// DashboardService serves the admin overview counts.
type DashboardService interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type dashboardServiceImpl struct {
	stats repository.StatsRepository
}

func NewDashboardService(stats repository.StatsRepository) DashboardService {
	return &dashboardServiceImpl{stats: stats}
}

func (s *dashboardServiceImpl) Stats(ctx context.Context) (*model.DashboardStats, error) {
	st, err := s.stats.Dashboard(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "dashboard stats", err)
	}
	return st, nil
}
