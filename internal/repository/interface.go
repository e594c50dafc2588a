package repository

import (
	"context"

	"github.com/macandtoo/backend/internal/model"
)

// AdminUserRepository は管理ユーザー（チームメンバー）永続化のインターフェース
type AdminUserRepository interface {
	FindByID(ctx context.Context, id int64) (*model.AdminUser, error)
	FindByUsername(ctx context.Context, username string) (*model.AdminUser, error)
	List(ctx context.Context) ([]*model.AdminUser, error)
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, user *model.AdminUser) error
	// Update writes username, email, role and active.
	Update(ctx context.Context, user *model.AdminUser) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	TouchLastLogin(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}
