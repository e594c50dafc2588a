package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

// ErrProtectedUser is returned when removing or demoting the super admin.
var ErrProtectedUser = errors.New("super admin cannot be modified this way")

// AdminUserInput carries team member fields from the back office.
type AdminUserInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Active   *bool  `json:"active,omitempty"`
}

// AdminUserService manages team members (back-office accounts).
type AdminUserService interface {
	List(ctx context.Context) ([]*model.AdminUser, error)
	Get(ctx context.Context, id int64) (*model.AdminUser, error)
	Create(ctx context.Context, in AdminUserInput) (*model.AdminUser, error)
	Update(ctx context.Context, id int64, in AdminUserInput) (*model.AdminUser, error)
	Delete(ctx context.Context, id int64) error
	// ChangePassword verifies current before storing next.
	ChangePassword(ctx context.Context, id int64, current, next string) error
}

type adminUserService struct {
	users repository.AdminUserRepository
}

// NewAdminUserService creates an AdminUserService.
func NewAdminUserService(users repository.AdminUserRepository) AdminUserService {
	return &adminUserService{users: users}
}

func (s *adminUserService) List(ctx context.Context) ([]*model.AdminUser, error) {
	return s.users.List(ctx)
}

func (s *adminUserService) Get(ctx context.Context, id int64) (*model.AdminUser, error) {
	return s.users.FindByID(ctx, id)
}

func (s *adminUserService) Create(ctx context.Context, in AdminUserInput) (*model.AdminUser, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Role == "" {
		in.Role = model.RoleEditor
	}
	switch {
	case in.Username == "":
		return nil, apperr.Validation("username", "username is required")
	case in.Email == "":
		return nil, apperr.Validation("email", "email is required")
	case utf8.RuneCountInString(in.Password) < minPasswordLen:
		return nil, apperr.Validation("password", "password must be at least 8 characters")
	case !model.ValidRole(in.Role) || in.Role == model.RoleSuperAdmin:
		return nil, apperr.Validation("role", "role must be admin or editor")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.AdminUser{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Active:       in.Active == nil || *in.Active,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Update applies non-empty fields. The super admin keeps its role and stays active.
func (s *adminUserService) Update(ctx context.Context, id int64, in AdminUserInput) (*model.AdminUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Username); v != "" {
		u.Username = v
	}
	if v := strings.TrimSpace(in.Email); v != "" {
		u.Email = v
	}
	if in.Role != "" && in.Role != u.Role {
		if u.IsSuperAdmin() {
			return nil, ErrProtectedUser
		}
		if !model.ValidRole(in.Role) || in.Role == model.RoleSuperAdmin {
			return nil, apperr.Validation("role", "role must be admin or editor")
		}
		u.Role = in.Role
	}
	if in.Active != nil && *in.Active != u.Active {
		if u.IsSuperAdmin() {
			return nil, ErrProtectedUser
		}
		u.Active = *in.Active
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *adminUserService) Delete(ctx context.Context, id int64) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if u.IsSuperAdmin() {
		return ErrProtectedUser
	}
	return s.users.Delete(ctx, id)
}

func (s *adminUserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	if utf8.RuneCountInString(next) < minPasswordLen {
		return apperr.Validation("new_password", "password must be at least 8 characters")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}
