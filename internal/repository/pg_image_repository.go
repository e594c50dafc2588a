package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// ImageRepository persists uploaded image metadata. File bytes live in storage.
type ImageRepository interface {
	Insert(ctx context.Context, img *model.Image) error
	List(ctx context.Context, limit, offset int) ([]*model.Image, error)
	FindByID(ctx context.Context, id int64) (*model.Image, error)
	Delete(ctx context.Context, id int64) error
}

type pgImageRepository struct {
	pool *pgxpool.Pool
}

func NewPgImageRepository(pool *pgxpool.Pool) ImageRepository {
	return &pgImageRepository{pool: pool}
}

const imageColumns = `id, name, storage_key, url, thumbnail_url, size, content_type, uploaded_by, created_at`

func scanImage(row pgx.Row) (*model.Image, error) {
	var img model.Image
	if err := row.Scan(&img.ID, &img.Name, &img.Key, &img.URL, &img.ThumbnailURL, &img.Size,
		&img.ContentType, &img.UploadedBy, &img.CreatedAt); err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *pgImageRepository) Insert(ctx context.Context, img *model.Image) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO images (name, storage_key, url, thumbnail_url, size, content_type, uploaded_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		img.Name, img.Key, img.URL, img.ThumbnailURL, img.Size, img.ContentType, img.UploadedBy,
	).Scan(&img.ID, &img.CreatedAt)
}

func (r *pgImageRepository) List(ctx context.Context, limit, offset int) ([]*model.Image, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+imageColumns+` FROM images ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

func (r *pgImageRepository) FindByID(ctx context.Context, id int64) (*model.Image, error) {
	img, err := scanImage(r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM images WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return img, err
}

func (r *pgImageRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM images WHERE id = $1`, id)
}
