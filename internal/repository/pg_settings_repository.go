package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// SettingsRepository stores dotted key/value settings.
type SettingsRepository interface {
	All(ctx context.Context) ([]model.SettingEntry, error)
	// Upsert writes every entry in one transaction; either all land or none.
	Upsert(ctx context.Context, entries []model.SettingEntry, updatedBy *int64) error
}

type pgSettingsRepository struct {
	pool *pgxpool.Pool
}

// NewPgSettingsRepository returns a PostgreSQL-backed SettingsRepository.
func NewPgSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &pgSettingsRepository{pool: pool}
}

func (r *pgSettingsRepository) All(ctx context.Context) ([]model.SettingEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value, category, updated_by, updated_at FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SettingEntry
	for rows.Next() {
		var e model.SettingEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Category, &e.UpdatedBy, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgSettingsRepository) Upsert(ctx context.Context, entries []model.SettingEntry, updatedBy *int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO settings (key, value, category, updated_by)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (key) DO UPDATE SET
			   value = EXCLUDED.value,
			   updated_by = EXCLUDED.updated_by,
			   updated_at = NOW()`,
			e.Key, e.Value, e.Category, updatedBy,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
