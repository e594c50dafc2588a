package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// PortfolioRepository persists case studies.
type PortfolioRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]*model.PortfolioItem, error)
	FindByID(ctx context.Context, id int64) (*model.PortfolioItem, error)
	Create(ctx context.Context, p *model.PortfolioItem) error
	Update(ctx context.Context, p *model.PortfolioItem) error
	Delete(ctx context.Context, id int64) error
}

type pgPortfolioRepository struct {
	pool *pgxpool.Pool
}

func NewPgPortfolioRepository(pool *pgxpool.Pool) PortfolioRepository {
	return &pgPortfolioRepository{pool: pool}
}

const portfolioColumns = `id, title, description, client, category, image_url, link, visible, created_at, updated_at`

func scanPortfolioItem(row pgx.Row) (*model.PortfolioItem, error) {
	var p model.PortfolioItem
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Client, &p.Category, &p.ImageURL,
		&p.Link, &p.Visible, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgPortfolioRepository) List(ctx context.Context, visibleOnly bool) ([]*model.PortfolioItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_items
		 WHERE ($1 = FALSE OR visible) ORDER BY created_at DESC`, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PortfolioItem
	for rows.Next() {
		p, err := scanPortfolioItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgPortfolioRepository) FindByID(ctx context.Context, id int64) (*model.PortfolioItem, error) {
	p, err := scanPortfolioItem(r.pool.QueryRow(ctx, `SELECT `+portfolioColumns+` FROM portfolio_items WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *pgPortfolioRepository) Create(ctx context.Context, p *model.PortfolioItem) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO portfolio_items (title, description, client, category, image_url, link, visible)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.Client, p.Category, p.ImageURL, p.Link, p.Visible,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *pgPortfolioRepository) Update(ctx context.Context, p *model.PortfolioItem) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE portfolio_items
		 SET title = $2, description = $3, client = $4, category = $5, image_url = $6, link = $7,
		     visible = $8, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Description, p.Client, p.Category, p.ImageURL, p.Link, p.Visible,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *pgPortfolioRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM portfolio_items WHERE id = $1`, id)
}
