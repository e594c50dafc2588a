package service

import (
	"context"
	"errors"
	"time"

	"github.com/macandtoo/backend/internal/model"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled は無効化されたアカウントでのログイン
	ErrAccountDisabled = errors.New("account disabled")
)

// LoginResult は認証成功時に返す情報
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      *model.AdminUser `json:"user"`
}

// AuthService は認証に関するビジネスロジックのインターフェース
type AuthService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Me(ctx context.Context, userID int64) (*model.AdminUser, error)
	// EnsureBootstrapAdmin creates the first super admin when no account
	// exists yet. It reports whether one was created.
	EnsureBootstrapAdmin(ctx context.Context, username, email, password string) (bool, error)
}
