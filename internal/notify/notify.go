// Package notify sends the site's transactional and bulk email over SMTP.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/model"
	mail "gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// ErrNotConfigured is returned by every send when SMTP (or the admin address
// for internal mail) is not configured.
var ErrNotConfigured = errors.New("notify: smtp not configured")

const (
	defaultBatchSize = 50
	artifactName     = "contacts.xlsx"
)

// Dialer delivers messages. *mail.Dialer satisfies it; one call is one SMTP session.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// SubmissionSheetWriter produces the single-row workbook attached to admin alerts.
type SubmissionSheetWriter interface {
	WriteSubmission(ctx context.Context, c *model.ContactSubmission) (string, error)
}

// Service is constructed once at startup and shared. It holds the SMTP
// dialer and the parsed templates.
type Service struct {
	dialer    Dialer
	sheets    SubmissionSheetWriter
	templates *template.Template
	from      string
	admin     string
	batchSize int
	timeout   time.Duration
	enabled   bool
}

// NewDialer builds a gomail dialer from cfg.
func NewDialer(cfg *config.SMTPConfig) *mail.Dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return d
}

// New parses the embedded templates. sheets may be nil, in which case admin
// alerts go out without an attachment.
func New(cfg *config.SMTPConfig, dialer Dialer, sheets SubmissionSheetWriter) (*Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("notify: parse templates: %w", err)
	}
	batchSize := cfg.BatchSize
	if batchSize < 1 {
		batchSize = defaultBatchSize
	}
	s := &Service{
		dialer:    dialer,
		sheets:    sheets,
		templates: tmpl,
		from:      cfg.From,
		admin:     cfg.AdminAddress,
		batchSize: batchSize,
		timeout:   cfg.Timeout,
		enabled:   cfg.Enabled() && dialer != nil,
	}
	if !s.enabled {
		slog.Warn("smtp not configured, email notifications disabled")
	}
	return s, nil
}

// Enabled reports whether sends will be attempted.
func (s *Service) Enabled() bool { return s.enabled }

// BatchSize is the number of recipients per SMTP session in SendBatch.
func (s *Service) BatchSize() int { return s.batchSize }

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Service) message(to, subject, body string) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return m
}

// send runs one SMTP session bounded by the configured timeout and ctx.
func (s *Service) send(ctx context.Context, msgs ...*mail.Message) error {
	if !s.enabled {
		return ErrNotConfigured
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(msgs...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendConfirmation thanks the submitter.
func (s *Service) SendConfirmation(ctx context.Context, c *model.ContactSubmission) error {
	if !s.enabled {
		return ErrNotConfigured
	}
	body, err := s.render("confirmation.html", c)
	if err != nil {
		return err
	}
	m := s.message(c.Email, "Thank you for contacting us", body)
	return apperr.Wrap(apperr.KindNotification, "send confirmation", s.send(ctx, m))
}

// SendAdminAlert sends every submitted field to the admin address with a
// single-row workbook attached. The workbook is deleted once the send
// returns, whatever the outcome.
func (s *Service) SendAdminAlert(ctx context.Context, c *model.ContactSubmission) error {
	if !s.enabled || s.admin == "" {
		return ErrNotConfigured
	}
	body, err := s.render("admin_alert.html", c)
	if err != nil {
		return err
	}
	m := s.message(s.admin, "New contact form submission from "+c.Name, body)
	m.SetHeader("Reply-To", c.Email)

	if s.sheets != nil {
		path, err := s.sheets.WriteSubmission(ctx, c)
		if err != nil {
			slog.Warn("admin alert attachment skipped", "submission_id", c.ID, "error", err)
		} else {
			defer func() {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					slog.Warn("remove alert attachment failed", "path", path, "error", err)
				}
			}()
			m.Attach(path)
		}
	}
	return apperr.Wrap(apperr.KindNotification, "send admin alert", s.send(ctx, m))
}

// SendBatchUpdate tells the admin that count submissions were exported and
// attaches the regenerated workbook.
func (s *Service) SendBatchUpdate(ctx context.Context, count int, artifact []byte) error {
	if !s.enabled || s.admin == "" {
		return ErrNotConfigured
	}
	body, err := s.render("batch_update.html", map[string]any{"Count": count})
	if err != nil {
		return err
	}
	m := s.message(s.admin, fmt.Sprintf("%d new contact submission(s) processed", count), body)
	m.Attach(artifactName, mail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(artifact)
		return err
	}))
	return apperr.Wrap(apperr.KindNotification, "send batch update", s.send(ctx, m))
}

// SendTest sends a short message proving the SMTP settings work.
func (s *Service) SendTest(ctx context.Context, to string) error {
	body, err := s.render("test.html", map[string]any{"SentAt": time.Now()})
	if err != nil {
		return err
	}
	return apperr.Wrap(apperr.KindNotification, "send test", s.send(ctx, s.message(to, "Test email", body)))
}

// ChunkResult is the outcome of one SMTP session in SendBatch.
type ChunkResult struct {
	Index      int
	Recipients []string
	Err        error
}

// BatchOutcome collects every chunk of a SendBatch call.
type BatchOutcome struct {
	Chunks []ChunkResult
}

// Failed reports whether recipient was in a chunk that failed.
func (o *BatchOutcome) Failed(recipient string) bool {
	for _, c := range o.Chunks {
		if c.Err == nil {
			continue
		}
		for _, r := range c.Recipients {
			if r == recipient {
				return true
			}
		}
	}
	return false
}

// SendBatch renders templateName once and sends one message per recipient,
// BatchSize recipients per SMTP session. A failed chunk is logged and the
// remaining chunks are still attempted; the returned error joins every chunk
// failure. There is no retry.
func (s *Service) SendBatch(ctx context.Context, recipients []string, subject, templateName string, data any) (*BatchOutcome, error) {
	if !s.enabled {
		return nil, ErrNotConfigured
	}
	body, err := s.render(templateName, data)
	if err != nil {
		return nil, err
	}

	outcome := &BatchOutcome{}
	var errs []error
	for start, idx := 0, 0; start < len(recipients); start, idx = start+s.batchSize, idx+1 {
		end := min(start+s.batchSize, len(recipients))
		chunk := recipients[start:end]

		msgs := make([]*mail.Message, 0, len(chunk))
		for _, to := range chunk {
			msgs = append(msgs, s.message(to, subject, body))
		}

		err := s.send(ctx, msgs...)
		outcome.Chunks = append(outcome.Chunks, ChunkResult{Index: idx, Recipients: chunk, Err: err})
		if err != nil {
			slog.Error("batch chunk failed", "chunk", idx, "size", len(chunk), "error", err)
			errs = append(errs, fmt.Errorf("chunk %d: %w", idx, err))
			continue
		}
		slog.Info("batch chunk sent", "chunk", idx, "size", len(chunk))
	}
	return outcome, apperr.Wrap(apperr.KindNotification, "send batch", errors.Join(errs...))
}
