package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// PgUserRepository は AdminUserRepository の PostgreSQL 実装
type PgUserRepository struct {
	pool *pgxpool.Pool
}

// NewPgUserRepository は PgUserRepository を生成する
func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ AdminUserRepository = (*PgUserRepository)(nil)

func scanUser(scan func(...any) error) (*model.AdminUser, error) {
	var u model.AdminUser
	if err := scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Active,
		&u.LastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

const userSelectCols = `id, username, email, password_hash, role, active, last_login, created_at, updated_at`

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*model.AdminUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userSelectCols+` FROM admin_users WHERE id = $1`, id)
	return scanUser(row.Scan)
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userSelectCols+` FROM admin_users WHERE username = $1`, username)
	return scanUser(row.Scan)
}

func (r *PgUserRepository) List(ctx context.Context) ([]*model.AdminUser, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userSelectCols+` FROM admin_users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*model.AdminUser
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *PgUserRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}

// Create は新規ユーザーを登録する。username 重複時は ErrDuplicate
func (r *PgUserRepository) Create(ctx context.Context, user *model.AdminUser) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO admin_users (username, email, password_hash, role, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Active,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) Update(ctx context.Context, user *model.AdminUser) error {
	err := r.pool.QueryRow(ctx,
		`UPDATE admin_users
		 SET username = $2, email = $3, role = $4, active = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		user.ID, user.Username, user.Email, user.Role, user.Active,
	).Scan(&user.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case isUniqueViolation(err):
		return ErrDuplicate
	}
	return err
}

func (r *PgUserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	return execOne(ctx, r.pool,
		`UPDATE admin_users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, hash)
}

func (r *PgUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `UPDATE admin_users SET last_login = NOW() WHERE id = $1`, id)
}

func (r *PgUserRepository) Delete(ctx context.Context, id int64) error {
	return execOne(ctx, r.pool, `DELETE FROM admin_users WHERE id = $1`, id)
}
