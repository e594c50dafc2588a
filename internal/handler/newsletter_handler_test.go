package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
)

// ---------------------------------------------------------------------------
// Mock NewsletterService
// ---------------------------------------------------------------------------

type mockNewsletterService struct {
	createFunc      func(ctx context.Context, n *model.Newsletter) error
	sendFunc        func(ctx context.Context, id int64) (*model.DispatchResult, error)
	subscribeFunc   func(ctx context.Context, email string) (*model.Subscriber, error)
	unsubscribeFunc func(ctx context.Context, email string) error
	listFunc        func(ctx context.Context, limit, offset int) ([]*model.Newsletter, error)
}

func (m *mockNewsletterService) Create(ctx context.Context, n *model.Newsletter) error {
	return m.createFunc(ctx, n)
}
func (m *mockNewsletterService) Get(context.Context, int64) (*model.Newsletter, error) {
	return nil, repository.ErrNotFound
}
func (m *mockNewsletterService) List(ctx context.Context, limit, offset int) ([]*model.Newsletter, error) {
	return m.listFunc(ctx, limit, offset)
}
func (m *mockNewsletterService) Send(ctx context.Context, id int64) (*model.DispatchResult, error) {
	return m.sendFunc(ctx, id)
}
func (m *mockNewsletterService) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	return m.subscribeFunc(ctx, email)
}
func (m *mockNewsletterService) Unsubscribe(ctx context.Context, email string) error {
	return m.unsubscribeFunc(ctx, email)
}
func (m *mockNewsletterService) ListSubscribers(context.Context, int, int) ([]*model.Subscriber, error) {
	return nil, nil
}

// ---------------------------------------------------------------------------
// public
// ---------------------------------------------------------------------------

func TestNewsletterHandler_Subscribe(t *testing.T) {
	h := NewNewsletterHandler(&mockNewsletterService{
		subscribeFunc: func(_ context.Context, email string) (*model.Subscriber, error) {
			switch email {
			case "taken@example.com":
				return nil, repository.ErrDuplicate
			case "bad":
				return nil, apperr.Validation("email", "email is invalid")
			}
			return &model.Subscriber{ID: 1, Email: email, Status: model.SubscriberActive}, nil
		},
	})

	cases := []struct {
		email string
		code  int
		body  string
	}{
		{"new@example.com", http.StatusCreated, `"subscriber"`},
		{"taken@example.com", http.StatusConflict, "already_subscribed"},
		{"bad", http.StatusBadRequest, `"field":"email"`},
	}
	for _, tc := range cases {
		rec := postJSON(h.Subscribe, "/api/newsletter/subscribe", `{"email":"`+tc.email+`"}`)
		if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.body) {
			t.Errorf("%s: expected %d with %s, got %d %s", tc.email, tc.code, tc.body, rec.Code, rec.Body.String())
		}
	}
}

func TestNewsletterHandler_Unsubscribe(t *testing.T) {
	var got string
	h := NewNewsletterHandler(&mockNewsletterService{
		unsubscribeFunc: func(_ context.Context, email string) error { got = email; return nil },
	})
	rec := postJSON(h.Unsubscribe, "/api/newsletter/unsubscribe", `{"email":"ann@example.com"}`)
	if rec.Code != http.StatusOK || got != "ann@example.com" {
		t.Errorf("expected 200 for ann, got %d %q", rec.Code, got)
	}
}

// ---------------------------------------------------------------------------
// admin
// ---------------------------------------------------------------------------

func TestNewsletterHandler_Create_SetsAuthor(t *testing.T) {
	var saved *model.Newsletter
	h := NewNewsletterHandler(&mockNewsletterService{
		createFunc: func(_ context.Context, n *model.Newsletter) error {
			saved = n
			n.ID = 3
			n.Status = model.NewsletterDraft
			return nil
		},
	})

	req := withClaims(httptest.NewRequest(http.MethodPost, "/api/admin/newsletters",
		strings.NewReader(`{"title":"March","content":"<p>hi</p>"}`)), 4, model.RoleAdmin)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if saved.CreatedBy == nil || *saved.CreatedBy != 4 {
		t.Errorf("expected created_by 4, got %v", saved.CreatedBy)
	}
}

func TestNewsletterHandler_Send(t *testing.T) {
	h := NewNewsletterHandler(&mockNewsletterService{
		sendFunc: func(_ context.Context, id int64) (*model.DispatchResult, error) {
			switch id {
			case 1:
				return &model.DispatchResult{NewsletterID: 1, Batches: 3, Sent: 70, Failed: 50, Status: model.NewsletterPartial}, nil
			case 2:
				return nil, service.ErrAlreadySent
			case 3:
				return nil, notify.ErrNotConfigured
			}
			return nil, repository.ErrNotFound
		},
	})

	cases := []struct {
		id   string
		code int
		body string
	}{
		{"1", http.StatusOK, `"status":"partial"`},
		{"2", http.StatusConflict, "already_sent"},
		{"3", http.StatusServiceUnavailable, "smtp_not_configured"},
		{"4", http.StatusNotFound, "not_found"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/newsletters/"+tc.id+"/send", nil)
		req.SetPathValue("id", tc.id)
		rec := httptest.NewRecorder()
		h.Send(rec, req)
		if rec.Code != tc.code || !strings.Contains(rec.Body.String(), tc.body) {
			t.Errorf("send %s: expected %d with %s, got %d %s", tc.id, tc.code, tc.body, rec.Code, rec.Body.String())
		}
	}
}

func TestNewsletterHandler_List_ClampsLimit(t *testing.T) {
	var gotLimit int
	h := NewNewsletterHandler(&mockNewsletterService{
		listFunc: func(_ context.Context, limit, _ int) ([]*model.Newsletter, error) {
			gotLimit = limit
			return nil, nil
		},
	})
	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/admin/newsletters?limit=1000", nil))
	if gotLimit != 20 || !strings.Contains(rec.Body.String(), `"newsletters":[]`) {
		t.Errorf("expected default limit and empty array, got %d %s", gotLimit, rec.Body.String())
	}
}
