package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// SecurityHeaders
// ---------------------------------------------------------------------------

func TestSecurityHeaders_SetsHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, req)

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for name, want := range headers {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s: want %q, got %q", name, want, got)
		}
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "frame-ancestors 'none'") {
		t.Errorf("CSP missing frame-ancestors: %s", csp)
	}
	if hsts := rec.Header().Get("Strict-Transport-Security"); !strings.Contains(hsts, "max-age=") {
		t.Errorf("HSTS missing max-age: %s", hsts)
	}
}

// ---------------------------------------------------------------------------
// RateLimiter
// ---------------------------------------------------------------------------

func newTestLimiter(t *testing.T, max int) *RateLimiter {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRateLimiter(ctx, max)
}

func hit(h http.Handler, remote, xff string) int {
	req := httptest.NewRequest("POST", "/api/contacts", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	h := newTestLimiter(t, 5).Middleware(okHandler())

	for i := 0; i < 5; i++ {
		if code := hit(h, "192.168.1.1:12345", ""); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, code)
		}
	}
	req := httptest.NewRequest("POST", "/api/contacts", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on 6th request, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if !strings.Contains(rec.Body.String(), "rate_limited") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl := newTestLimiter(t, 1)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler())

	hit(h, "10.0.0.1:1", "")
	if code := hit(h, "10.0.0.1:1", ""); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	now = now.Add(61 * time.Second)
	if code := hit(h, "10.0.0.1:1", ""); code != http.StatusOK {
		t.Errorf("expected 200 after the window, got %d", code)
	}
}

func TestRateLimiter_DifferentIPsAreIndependent(t *testing.T) {
	h := newTestLimiter(t, 1).Middleware(okHandler())

	hit(h, "10.0.0.1:1234", "")
	if code := hit(h, "10.0.0.2:1234", ""); code != http.StatusOK {
		t.Errorf("different IP should not be rate limited, got %d", code)
	}
}

func TestRateLimiter_SpoofedLeftmostIgnored(t *testing.T) {
	h := newTestLimiter(t, 1).Middleware(okHandler())

	if code := hit(h, "10.0.0.99:1234", "203.0.113.50"); code != http.StatusOK {
		t.Fatalf("first request should succeed, got %d", code)
	}
	if code := hit(h, "10.0.0.99:1234", "9.9.9.9, 203.0.113.50"); code != http.StatusTooManyRequests {
		t.Errorf("spoofed leftmost IP should not bypass the limit, got %d", code)
	}
}

func TestRateLimiter_ZeroDisables(t *testing.T) {
	h := newTestLimiter(t, 0).Middleware(okHandler())
	for i := 0; i < 3; i++ {
		if code := hit(h, "10.0.0.1:1", ""); code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
	}
}
