package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/pkg/auth"
)

var authSecret = auth.SessionSecretBytes("test-secret")

func TestAuthService_Login(t *testing.T) {
	store := newFakeUserStore()
	ed := store.seed(t, "ed", "correct-horse", model.RoleEditor, true)
	svc := NewAuthService(store, authSecret, time.Hour)

	res, err := svc.Login(context.Background(), " ed ", "correct-horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := auth.VerifySessionToken(res.Token, authSecret, time.Now())
	if err != nil {
		t.Fatalf("token should verify: %v", err)
	}
	if claims.UserID != ed.ID || claims.Role != model.RoleEditor {
		t.Errorf("unexpected claims %+v", claims)
	}
	if d := time.Until(res.ExpiresAt); d < 59*time.Minute || d > time.Hour {
		t.Errorf("expected ~1h expiry, got %v", d)
	}
	if len(store.touched) != 1 || store.touched[0] != ed.ID {
		t.Errorf("expected last_login stamped, got %v", store.touched)
	}
	if res.User.LastLogin == nil {
		t.Error("expected LastLogin in the response")
	}
}

func TestAuthService_Login_Rejections(t *testing.T) {
	store := newFakeUserStore()
	store.seed(t, "ed", "correct-horse", model.RoleEditor, true)
	store.seed(t, "gone", "correct-horse", model.RoleAdmin, false)
	svc := NewAuthService(store, authSecret, 0)
	ctx := context.Background()

	cases := []struct {
		user, pass string
		want       error
	}{
		{"ed", "wrong", ErrInvalidCredentials},
		{"nobody", "correct-horse", ErrInvalidCredentials},
		{"", "", ErrInvalidCredentials},
		{"gone", "correct-horse", ErrAccountDisabled},
	}
	for _, c := range cases {
		if _, err := svc.Login(ctx, c.user, c.pass); !errors.Is(err, c.want) {
			t.Errorf("Login(%q): expected %v, got %v", c.user, c.want, err)
		}
	}
	if len(store.touched) != 0 {
		t.Error("failed logins must not stamp last_login")
	}
}

func TestAuthService_EnsureBootstrapAdmin(t *testing.T) {
	store := newFakeUserStore()
	svc := NewAuthService(store, authSecret, time.Hour)
	ctx := context.Background()

	created, err := svc.EnsureBootstrapAdmin(ctx, "root", "root@example.com", "bootstrap-pass")
	if err != nil || !created {
		t.Fatalf("expected bootstrap admin, got %v, %v", created, err)
	}
	u, _ := store.FindByUsername(ctx, "root")
	if !u.IsSuperAdmin() || !u.Active {
		t.Errorf("unexpected bootstrap user %+v", u)
	}

	created, err = svc.EnsureBootstrapAdmin(ctx, "root2", "x@example.com", "bootstrap-pass")
	if err != nil || created {
		t.Errorf("second call must be a no-op, got %v, %v", created, err)
	}

	if _, err := svc.Login(ctx, "root", "bootstrap-pass"); err != nil {
		t.Errorf("bootstrap admin should be able to log in: %v", err)
	}
}

func TestAuthService_EnsureBootstrapAdmin_NoCredentials(t *testing.T) {
	store := newFakeUserStore()
	created, err := NewAuthService(store, authSecret, time.Hour).EnsureBootstrapAdmin(context.Background(), "", "", "")
	if err != nil || created {
		t.Errorf("expected no-op, got %v, %v", created, err)
	}
}
