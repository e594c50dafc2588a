package repository

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// ContactRepository persists contact submissions and their export outbox state.
// It is defined here (in repository) to avoid an import cycle with service.
type ContactRepository interface {
	Save(ctx context.Context, c *model.ContactSubmission) error
	FindByID(ctx context.Context, id int64) (*model.ContactSubmission, error)
	List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error)
	// ListAll returns every submission, newest first.
	ListAll(ctx context.Context) ([]*model.ContactSubmission, error)
	MarkRead(ctx context.Context, id int64) error

	// ClaimPending moves every pending row to exporting and returns the claimed rows.
	ClaimPending(ctx context.Context) ([]*model.ContactSubmission, error)
	// SetExportState moves the given rows to state unless they are already done.
	SetExportState(ctx context.Context, ids []int64, state model.ExportState) error
	// MarkProcessed moves claimed rows to done and sets processed.
	MarkProcessed(ctx context.Context, ids []int64) (int64, error)
	// ResetStale returns in-flight rows untouched for longer than olderThan to pending.
	ResetStale(ctx context.Context, olderThan time.Duration) (int64, error)
	CountByState(ctx context.Context) (model.ContactStateCounts, error)
}

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	pool *pgxpool.Pool
}

// NewPgContactRepository creates a PgContactRepository backed by the given pool.
func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool}
}

var _ ContactRepository = (*PgContactRepository)(nil)

const contactColumns = `id, name, email, company, service_requested, message, budget_range,
	status, export_state, processed, created_at, updated_at`

func scanContact(row pgx.Row) (*model.ContactSubmission, error) {
	var c model.ContactSubmission
	var state string
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Company, &c.ServiceRequested, &c.Message,
		&c.BudgetRange, &c.Status, &state, &c.Processed, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ExportState = model.ExportState(state)
	return &c, nil
}

func collectContacts(rows pgx.Rows) ([]*model.ContactSubmission, error) {
	defer rows.Close()
	var out []*model.ContactSubmission
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save inserts a new row and populates ID and timestamps from RETURNING.
func (r *PgContactRepository) Save(ctx context.Context, c *model.ContactSubmission) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO contact_submissions
		   (name, email, company, service_requested, message, budget_range, status, export_state, processed)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Company, c.ServiceRequested, c.Message, c.BudgetRange,
		c.Status, string(c.ExportState), c.Processed,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *PgContactRepository) FindByID(ctx context.Context, id int64) (*model.ContactSubmission, error) {
	c, err := scanContact(r.pool.QueryRow(ctx,
		`SELECT `+contactColumns+` FROM contact_submissions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns submissions filtered by inbox status and processed flag.
// Status "" or "all" returns every status.
func (r *PgContactRepository) List(ctx context.Context, opts model.ContactListOptions) ([]*model.ContactSubmission, error) {
	var conditions []string
	var args []any

	status := strings.TrimSpace(opts.Status)
	if status != "" && status != "all" {
		args = append(args, status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if opts.Processed != nil {
		args = append(args, *opts.Processed)
		conditions = append(conditions, "processed = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, opts.Limit, opts.Offset)
	query := `SELECT ` + contactColumns + ` FROM contact_submissions ` + where +
		` ORDER BY created_at DESC, id DESC
		  LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (r *PgContactRepository) ListAll(ctx context.Context) ([]*model.ContactSubmission, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+contactColumns+` FROM contact_submissions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (r *PgContactRepository) MarkRead(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions SET status = 'read', updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimPending relies on row locks taken by UPDATE: a concurrent claim
// re-checks the predicate after the first commits and skips the row.
func (r *PgContactRepository) ClaimPending(ctx context.Context) ([]*model.ContactSubmission, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE contact_submissions
		 SET export_state = 'exporting', updated_at = NOW()
		 WHERE export_state = 'pending'
		 RETURNING `+contactColumns)
	if err != nil {
		return nil, err
	}
	return collectContacts(rows)
}

func (r *PgContactRepository) SetExportState(ctx context.Context, ids []int64, state model.ExportState) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions
		 SET export_state = $2, updated_at = NOW()
		 WHERE id = ANY($1) AND export_state <> 'done'`,
		ids, string(state),
	)
	return err
}

func (r *PgContactRepository) MarkProcessed(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions
		 SET export_state = 'done', processed = TRUE, updated_at = NOW()
		 WHERE id = ANY($1) AND export_state IN ('exporting', 'notified')`,
		ids,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgContactRepository) ResetStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE contact_submissions
		 SET export_state = 'pending', updated_at = NOW()
		 WHERE export_state IN ('exporting', 'notified')
		   AND updated_at < NOW() - make_interval(secs => $1)`,
		olderThan.Seconds(),
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgContactRepository) CountByState(ctx context.Context) (model.ContactStateCounts, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT export_state, COUNT(*) FROM contact_submissions GROUP BY export_state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := model.ContactStateCounts{}
	for rows.Next() {
		var state string
		var n int
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[model.ExportState(state)] = n
	}
	return counts, rows.Err()
}
