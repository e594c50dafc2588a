package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/pkg/auth"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered in tests.
var bcryptCost = bcrypt.DefaultCost

type authServiceImpl struct {
	users  repository.AdminUserRepository
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthService は AuthService の実装を返す
func NewAuthService(users repository.AdminUserRepository, secret []byte, ttl time.Duration) AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &authServiceImpl{users: users, secret: secret, ttl: ttl, now: time.Now}
}

func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrAccountDisabled
	}

	if err := s.users.TouchLastLogin(ctx, u.ID); err != nil {
		slog.Warn("touch last_login failed", "user_id", u.ID, "error", err)
	}
	now := s.now()
	u.LastLogin = &now

	exp := now.Add(s.ttl)
	token := auth.CreateSessionToken(auth.Claims{UserID: u.ID, Role: u.Role, ExpiresAt: exp}, s.secret)
	slog.Info("admin login", "user_id", u.ID, "role", u.Role)
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *authServiceImpl) Me(ctx context.Context, userID int64) (*model.AdminUser, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *authServiceImpl) EnsureBootstrapAdmin(ctx context.Context, username, email, password string) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if username == "" || password == "" {
		slog.Warn("no admin accounts and no bootstrap credentials configured")
		return false, nil
	}

	hash, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	u := &model.AdminUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, err
	}
	slog.Info("bootstrap super admin created", "user_id", u.ID, "username", username)
	return true, nil
}

func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
