package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// BlogRepository persists blog posts.
type BlogRepository interface {
	List(ctx context.Context, visibleOnly bool) ([]*model.BlogPost, error)
	FindByID(ctx context.Context, id int64) (*model.BlogPost, error)
	Create(ctx context.Context, p *model.BlogPost) error
	Update(ctx context.Context, p *model.BlogPost) error
	Delete(ctx context.Context, id int64) error
}

type pgBlogRepository struct {
	pool *pgxpool.Pool
}

func NewPgBlogRepository(pool *pgxpool.Pool) BlogRepository {
	return &pgBlogRepository{pool: pool}
}

const blogColumns = `id, title, content, category, image_url, visible, created_at, updated_at`

func scanBlogPost(row pgx.Row) (*model.BlogPost, error) {
	var p model.BlogPost
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &p.ImageURL, &p.Visible,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgBlogRepository) List(ctx context.Context, visibleOnly bool) ([]*model.BlogPost, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+blogColumns+` FROM blog_posts
		 WHERE ($1 = FALSE OR visible) ORDER BY created_at DESC`, visibleOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.BlogPost
	for rows.Next() {
		p, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *pgBlogRepository) FindByID(ctx context.Context, id int64) (*model.BlogPost, error) {
	p, err := scanBlogPost(r.pool.QueryRow(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *pgBlogRepository) Create(ctx context.Context, p *model.BlogPost) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO blog_posts (title, content, category, image_url, visible)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.Content, p.Category, p.ImageURL, p.Visible,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *pgBlogRepository) Update(ctx context.Context, p *model.BlogPost) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE blog_posts
		 SET title = $2, content = $3, category = $4, image_url = $5, visible = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		p.ID, p.Title, p.Content, p.Category, p.ImageURL, p.Visible,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *pgBlogRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM blog_posts WHERE id = $1`, id)
}
