package repository

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

type pgActivityRepository struct {
	pool *pgxpool.Pool
}

// NewPgActivityRepository returns a PostgreSQL-backed ActivityRepository.
func NewPgActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &pgActivityRepository{pool: pool}
}

func (r *pgActivityRepository) Insert(ctx context.Context, a *model.ActivityLog) error {
	var details any
	if len(a.Details) > 0 {
		details = string(a.Details)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO activity_logs (user_id, action, details, ip_address, status_code, response_time_ms)
		 VALUES ($1, $2, $3::jsonb, $4, $5, $6)
		 RETURNING id, created_at`,
		a.UserID, a.Action, details, a.IPAddress, a.StatusCode, a.ResponseTimeMs,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *pgActivityRepository) List(ctx context.Context, f model.ActivityFilter) ([]*model.ActivityLog, error) {
	var conditions []string
	var args []any

	if f.UserID != nil {
		args = append(args, *f.UserID)
		conditions = append(conditions, "a.user_id = $"+strconv.Itoa(len(args)))
	}
	if f.Action != "" {
		args = append(args, "%"+f.Action+"%")
		conditions = append(conditions, "a.action ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conditions = append(conditions, "a.created_at >= $"+strconv.Itoa(len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conditions = append(conditions, "a.created_at <= $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, f.Limit)

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.user_id, COALESCE(u.username, ''), a.action, COALESCE(a.details::text, ''),
		        a.ip_address, a.status_code, a.response_time_ms, a.created_at
		 FROM activity_logs a
		 LEFT JOIN admin_users u ON u.id = a.user_id `+where+`
		 ORDER BY a.created_at DESC
		 LIMIT $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.ActivityLog
	for rows.Next() {
		var a model.ActivityLog
		var details string
		if err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.Action, &details,
			&a.IPAddress, &a.StatusCode, &a.ResponseTimeMs, &a.CreatedAt); err != nil {
			return nil, err
		}
		if details != "" {
			a.Details = []byte(details)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
