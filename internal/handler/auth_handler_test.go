package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc func(ctx context.Context, username, password string) (*service.LoginResult, error)
	meFunc    func(ctx context.Context, userID int64) (*model.AdminUser, error)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	return m.loginFunc(ctx, username, password)
}

func (m *mockAuthService) Me(ctx context.Context, userID int64) (*model.AdminUser, error) {
	return m.meFunc(ctx, userID)
}

func (m *mockAuthService) EnsureBootstrapAdmin(context.Context, string, string, string) (bool, error) {
	return false, nil
}

func withClaims(req *http.Request, id int64, role string) *http.Request {
	return req.WithContext(auth.WithClaims(req.Context(), auth.Claims{UserID: id, Role: role, ExpiresAt: time.Now().Add(time.Hour)}))
}

// ---------------------------------------------------------------------------
// POST /api/auth/login
// ---------------------------------------------------------------------------

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	exp := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	h := NewAuthHandler(&mockAuthService{
		loginFunc: func(_ context.Context, username, password string) (*service.LoginResult, error) {
			if username != "owner" || password != "correct horse" {
				return nil, service.ErrInvalidCredentials
			}
			return &service.LoginResult{
				Token: "tok", ExpiresAt: exp,
				User: &model.AdminUser{ID: 1, Username: "owner", Role: model.RoleSuperAdmin, Active: true},
			}, nil
		},
	}, true)

	rec := postJSON(h.Login, "/api/auth/login", `{"username":"owner","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — %s", rec.Code, rec.Body.String())
	}
	var resp loginResponse
	decodeBody(t, rec, &resp)
	if resp.Token != "tok" || resp.Role != model.RoleSuperAdmin || !resp.ExpiresAt.Equal(exp) {
		t.Errorf("unexpected response %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.SessionCookieName() || cookies[0].Value != "tok" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Error("session cookie must be HttpOnly and Secure")
	}
}

func TestAuthHandler_Login_Failures(t *testing.T) {
	cases := []struct {
		err  error
		code int
		body string
	}{
		{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{service.ErrAccountDisabled, http.StatusForbidden, "account_disabled"},
	}
	for _, tc := range cases {
		h := NewAuthHandler(&mockAuthService{
			loginFunc: func(context.Context, string, string) (*service.LoginResult, error) { return nil, tc.err },
		}, false)
		rec := postJSON(h.Login, "/api/auth/login", `{"username":"a","password":"b"}`)
		if rec.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, rec.Code)
		}
		var resp map[string]string
		decodeBody(t, rec, &resp)
		if resp["error"] != tc.body {
			t.Errorf("expected error %q, got %q", tc.body, resp["error"])
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("no cookie on failure")
		}
	}
}

// ---------------------------------------------------------------------------
// GET /api/auth/me, POST /api/auth/logout
// ---------------------------------------------------------------------------

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		meFunc: func(_ context.Context, id int64) (*model.AdminUser, error) {
			if id != 2 {
				return nil, repository.ErrNotFound
			}
			return &model.AdminUser{ID: 2, Username: "ed", Role: model.RoleEditor, Active: true}, nil
		},
	}, false)

	rec := httptest.NewRecorder()
	h.Me(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), 2, model.RoleEditor))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without claims, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Me(rec, withClaims(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), 9, model.RoleEditor))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for a deleted account, got %d", rec.Code)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{}, false)
	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expired cookie, got %v", cookies)
	}
}
