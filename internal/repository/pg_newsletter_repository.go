package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/macandtoo/backend/internal/model"
)

// SubscriberRepository persists newsletter subscribers.
type SubscriberRepository interface {
	// Subscribe inserts email as active. An address that already exists and is
	// active yields ErrDuplicate; an unsubscribed one is reactivated.
	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	ListActive(ctx context.Context) ([]*model.Subscriber, error)
	List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error)
}

// NewsletterRepository persists newsletters and their delivery log.
type NewsletterRepository interface {
	Create(ctx context.Context, n *model.Newsletter) error
	FindByID(ctx context.Context, id int64) (*model.Newsletter, error)
	List(ctx context.Context, limit, offset int) ([]*model.Newsletter, error)
	// SentSubscriberIDs returns the subscribers already holding a sent delivery.
	SentSubscriberIDs(ctx context.Context, newsletterID int64) (map[int64]bool, error)
	// RecordDispatch upserts one delivery per subscriber and stamps the
	// newsletter in one transaction.
	RecordDispatch(ctx context.Context, newsletterID int64, deliveries []model.Delivery, status string) error
}

type pgSubscriberRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriberRepository returns a PostgreSQL-backed SubscriberRepository.
func NewPgSubscriberRepository(pool *pgxpool.Pool) SubscriberRepository {
	return &pgSubscriberRepository{pool: pool}
}

func (r *pgSubscriberRepository) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var s model.Subscriber
	err := r.pool.QueryRow(ctx,
		`INSERT INTO newsletter_subscribers (email, status)
		 VALUES ($1, 'active')
		 ON CONFLICT (email) DO UPDATE SET status = 'active'
		   WHERE newsletter_subscribers.status = 'unsubscribed'
		 RETURNING id, email, status, created_at`,
		email,
	).Scan(&s.ID, &s.Email, &s.Status, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// ON CONFLICT ... WHERE matched nothing: already an active subscriber.
		return nil, ErrDuplicate
	}
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgSubscriberRepository) Unsubscribe(ctx context.Context, email string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE newsletter_subscribers SET status = 'unsubscribed' WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgSubscriberRepository) ListActive(ctx context.Context) ([]*model.Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, status, created_at FROM newsletter_subscribers
		 WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectSubscribers(rows)
}

func (r *pgSubscriberRepository) List(ctx context.Context, limit, offset int) ([]*model.Subscriber, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, status, created_at FROM newsletter_subscribers
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	return collectSubscribers(rows)
}

func collectSubscribers(rows pgx.Rows) ([]*model.Subscriber, error) {
	defer rows.Close()
	var out []*model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

type pgNewsletterRepository struct {
	pool *pgxpool.Pool
}

// NewPgNewsletterRepository returns a PostgreSQL-backed NewsletterRepository.
func NewPgNewsletterRepository(pool *pgxpool.Pool) NewsletterRepository {
	return &pgNewsletterRepository{pool: pool}
}

func (r *pgNewsletterRepository) Create(ctx context.Context, n *model.Newsletter) error {
	if n.Status == "" {
		n.Status = model.NewsletterDraft
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO newsletters (title, subject, content, status, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		n.Title, n.Subject, n.Content, n.Status, n.CreatedBy,
	).Scan(&n.ID, &n.CreatedAt)
}

const newsletterColumns = `id, title, subject, content, status, created_by, created_at, sent_at`

func scanNewsletter(row pgx.Row) (*model.Newsletter, error) {
	var n model.Newsletter
	if err := row.Scan(&n.ID, &n.Title, &n.Subject, &n.Content, &n.Status,
		&n.CreatedBy, &n.CreatedAt, &n.SentAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *pgNewsletterRepository) FindByID(ctx context.Context, id int64) (*model.Newsletter, error) {
	n, err := scanNewsletter(r.pool.QueryRow(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return n, err
}

func (r *pgNewsletterRepository) List(ctx context.Context, limit, offset int) ([]*model.Newsletter, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+newsletterColumns+` FROM newsletters
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *pgNewsletterRepository) SentSubscriberIDs(ctx context.Context, newsletterID int64) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subscriber_id FROM newsletter_deliveries WHERE newsletter_id = $1 AND status = 'sent'`,
		newsletterID)
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *pgNewsletterRepository) RecordDispatch(ctx context.Context, newsletterID int64, deliveries []model.Delivery, status string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(deliveries) > 0 {
		batch := &pgx.Batch{}
		for _, d := range deliveries {
			batch.Queue(
				`INSERT INTO newsletter_deliveries (newsletter_id, subscriber_id, email, status)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (newsletter_id, subscriber_id)
				 DO UPDATE SET email = EXCLUDED.email, status = EXCLUDED.status, created_at = NOW()`,
				newsletterID, d.SubscriberID, d.Email, d.Status)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE newsletters SET status = $2, sent_at = NOW() WHERE id = $1`,
		newsletterID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}
