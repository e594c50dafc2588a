package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// StatsRepository aggregates counts for the admin dashboard.
type StatsRepository interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

type pgStatsRepository struct {
	pool *pgxpool.Pool
}

func NewPgStatsRepository(pool *pgxpool.Pool) StatsRepository {
	return &pgStatsRepository{pool: pool}
}

func (r *pgStatsRepository) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var s model.DashboardStats
	err := r.pool.QueryRow(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM contact_submissions),
		  (SELECT COUNT(*) FROM contact_submissions WHERE status = 'unread'),
		  (SELECT COUNT(*) FROM contact_submissions WHERE NOT processed),
		  (SELECT COUNT(*) FROM newsletter_subscribers WHERE status = 'active'),
		  (SELECT COUNT(*) FROM newsletters WHERE status IN ('sent', 'partial')),
		  (SELECT COUNT(*) FROM blog_posts),
		  (SELECT COUNT(*) FROM portfolio_items)`,
	).Scan(&s.Submissions, &s.UnreadSubmissions, &s.PendingExport, &s.ActiveSubscribers,
		&s.NewslettersSent, &s.BlogPosts, &s.PortfolioItems)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
