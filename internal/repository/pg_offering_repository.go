package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// OfferingRepository persists the agency's service catalogue.
type OfferingRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]*model.ServiceOffering, error)
	FindByID(ctx context.Context, id int64) (*model.ServiceOffering, error)
	Create(ctx context.Context, s *model.ServiceOffering) error
	Update(ctx context.Context, s *model.ServiceOffering) error
	Delete(ctx context.Context, id int64) error
}

type pgOfferingRepository struct {
	pool *pgxpool.Pool
}

func NewPgOfferingRepository(pool *pgxpool.Pool) OfferingRepository {
	return &pgOfferingRepository{pool: pool}
}

const offeringColumns = `id, title, description, icon, price, visible, created_at, updated_at`

func scanOffering(row pgx.Row) (*model.ServiceOffering, error) {
	var s model.ServiceOffering
	if err := row.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.Price, &s.Visible,
		&s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgOfferingRepository) List(ctx context.Context, visibleOnly bool) ([]*model.ServiceOffering, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+offeringColumns+` FROM service_offerings
		 WHERE ($1 = FALSE OR visible) ORDER BY id`, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ServiceOffering
	for rows.Next() {
		s, err := scanOffering(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgOfferingRepository) FindByID(ctx context.Context, id int64) (*model.ServiceOffering, error) {
	s, err := scanOffering(r.pool.QueryRow(ctx, `SELECT `+offeringColumns+` FROM service_offerings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *pgOfferingRepository) Create(ctx context.Context, s *model.ServiceOffering) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO service_offerings (title, description, icon, price, visible)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.Title, s.Description, s.Icon, s.Price, s.Visible,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *pgOfferingRepository) Update(ctx context.Context, s *model.ServiceOffering) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE service_offerings
		 SET title = $2, description = $3, icon = $4, price = $5, visible = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		s.ID, s.Title, s.Description, s.Icon, s.Price, s.Visible,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *pgOfferingRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM service_offerings WHERE id = $1`, id)
}
