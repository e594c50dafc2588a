package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/repository"
)

const redactedSecret = "********"

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// SettingsService reads and writes the admin-editable site settings.
type SettingsService interface {
	Get(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, s model.Settings, updatedBy *int64) (model.Settings, error)
	// SendTestEmail mails to using the stored SMTP settings, or the process
	// SMTP configuration when none are stored.
	SendTestEmail(ctx context.Context, to string) error
}

// TestMailer is satisfied by *notify.Service.
type TestMailer interface {
	SendTest(ctx context.Context, to string) error
}

// DialerFactory builds an SMTP dialer for stored settings.
type DialerFactory func(cfg *config.SMTPConfig) notify.Dialer

type settingsServiceImpl struct {
	repo     repository.SettingsRepository
	fallback TestMailer
	dial     DialerFactory
	timeout  time.Duration
}

// NewSettingsService wires the settings store. dial may be nil to use gomail.
func NewSettingsService(repo repository.SettingsRepository, fallback TestMailer, dial DialerFactory) SettingsService {
	if dial == nil {
		dial = func(cfg *config.SMTPConfig) notify.Dialer { return notify.NewDialer(cfg) }
	}
	return &settingsServiceImpl{repo: repo, fallback: fallback, dial: dial, timeout: 15 * time.Second}
}

func (s *settingsServiceImpl) load(ctx context.Context) (model.Settings, error) {
	entries, err := s.repo.All(ctx)
	if err != nil {
		return model.Settings{}, apperr.Wrap(apperr.KindPersistence, "load settings", err)
	}
	return model.SettingsFromEntries(entries), nil
}

func (s *settingsServiceImpl) Get(ctx context.Context) (model.Settings, error) {
	st, err := s.load(ctx)
	if err != nil {
		return st, err
	}
	return st.Redacted(), nil
}

func (s *settingsServiceImpl) Update(ctx context.Context, in model.Settings, updatedBy *int64) (model.Settings, error) {
	in.Theme.PrimaryColor = strings.TrimSpace(in.Theme.PrimaryColor)
	if in.Theme.PrimaryColor != "" && !hexColor.MatchString(in.Theme.PrimaryColor) {
		return model.Settings{}, apperr.Validation("theme.primaryColor", "primary color must be #RRGGBB")
	}
	in.Email.SMTPHost = strings.TrimSpace(in.Email.SMTPHost)
	in.Email.SMTPPort = strings.TrimSpace(in.Email.SMTPPort)
	if in.Email.SMTPPort != "" {
		if p, err := strconv.Atoi(in.Email.SMTPPort); err != nil || p < 1 || p > 65535 {
			return model.Settings{}, apperr.Validation("email.smtpPort", "smtp port must be a number")
		}
	}
	if in.Email.FromEmail != "" {
		addr, err := normalizeEmail(in.Email.FromEmail)
		if err != nil {
			return model.Settings{}, apperr.Validation("email.fromEmail", "from email is invalid")
		}
		in.Email.FromEmail = addr
	}

	// 画面には伏せ字で返しているので、そのまま戻ってきたら保存済みの値を使う
	if in.Email.SMTPPass == redactedSecret {
		current, err := s.load(ctx)
		if err != nil {
			return model.Settings{}, err
		}
		in.Email.SMTPPass = current.Email.SMTPPass
	}

	if err := s.repo.Upsert(ctx, in.Entries(), updatedBy); err != nil {
		return model.Settings{}, apperr.Wrap(apperr.KindPersistence, "save settings", err)
	}
	return in.Redacted(), nil
}

func (s *settingsServiceImpl) SendTestEmail(ctx context.Context, to string) error {
	st, err := s.load(ctx)
	if err != nil {
		return err
	}
	if to == "" {
		to = st.Email.FromEmail
	}
	to, err = normalizeEmail(to)
	if err != nil {
		return err
	}

	if st.Email.SMTPHost == "" {
		if s.fallback == nil {
			return notify.ErrNotConfigured
		}
		return s.fallback.SendTest(ctx, to)
	}

	port := 587
	if st.Email.SMTPPort != "" {
		if port, err = strconv.Atoi(st.Email.SMTPPort); err != nil {
			return apperr.Validation("email.smtpPort", "smtp port must be a number")
		}
	}
	from := st.Email.FromEmail
	if st.Email.FromName != "" && from != "" {
		from = st.Email.FromName + " <" + from + ">"
	}
	cfg := &config.SMTPConfig{
		Host:     st.Email.SMTPHost,
		Port:     port,
		Username: st.Email.SMTPUser,
		Password: st.Email.SMTPPass,
		From:     from,
		Timeout:  s.timeout,
	}
	mailer, err := notify.New(cfg, s.dial(cfg), nil)
	if err != nil {
		return err
	}
	return mailer.SendTest(ctx, to)
}
