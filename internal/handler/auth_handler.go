package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

// AuthHandler は管理画面のログイン・ログアウトを扱う
type AuthHandler struct {
	authService  service.AuthService
	secureCookie bool
}

// NewAuthHandler は AuthHandler を生成する（DI: AuthService を注入）
// secureCookie は本番環境（HTTPS）で true にする
func NewAuthHandler(authService service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, secureCookie: secureCookie}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	User      any       `json:"user"`
}

// Login はユーザー名とパスワードで認証する（POST /api/auth/login）
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.authService.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	case errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account_disabled")
		return
	case err != nil:
		writeFailure(w, r, err, "login_failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     res.Token,
		Role:      res.User.Role,
		ExpiresAt: res.ExpiresAt,
		User:      res.User,
	})
}

// Me はログイン中のユーザーを返す（GET /api/auth/me）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	u, err := h.authService.Me(r.Context(), userID)
	if err != nil {
		writeFailure(w, r, err, "me_failed")
		return
	}
	if !u.Active {
		writeError(w, http.StatusForbidden, "account_disabled")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// Logout はログアウトする（POST /api/auth/logout）
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
