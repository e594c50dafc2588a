package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// TestimonialRepository persists client testimonials.
type TestimonialRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]*model.Testimonial, error)
	FindByID(ctx context.Context, id int64) (*model.Testimonial, error)
	Create(ctx context.Context, t *model.Testimonial) error
	Update(ctx context.Context, t *model.Testimonial) error
	Delete(ctx context.Context, id int64) error
}

type pgTestimonialRepository struct {
	pool *pgxpool.Pool
}

func NewPgTestimonialRepository(pool *pgxpool.Pool) TestimonialRepository {
	return &pgTestimonialRepository{pool: pool}
}

const testimonialColumns = `id, author, company, content, rating, visible, created_at, updated_at`

func scanTestimonial(row pgx.Row) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := row.Scan(&t.ID, &t.Author, &t.Company, &t.Content, &t.Rating, &t.Visible,
		&t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *pgTestimonialRepository) List(ctx context.Context, visibleOnly bool) ([]*model.Testimonial, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+testimonialColumns+` FROM testimonials
		 WHERE ($1 = FALSE OR visible) ORDER BY created_at DESC`, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Testimonial
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *pgTestimonialRepository) FindByID(ctx context.Context, id int64) (*model.Testimonial, error) {
	t, err := scanTestimonial(r.pool.QueryRow(ctx, `SELECT `+testimonialColumns+` FROM testimonials WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *pgTestimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO testimonials (author, company, content, rating, visible)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		t.Author, t.Company, t.Content, t.Rating, t.Visible,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *pgTestimonialRepository) Update(ctx context.Context, t *model.Testimonial) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE testimonials
		 SET author = $2, company = $3, content = $4, rating = $5, visible = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		t.ID, t.Author, t.Company, t.Content, t.Rating, t.Visible,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *pgTestimonialRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM testimonials WHERE id = $1`, id)
}
