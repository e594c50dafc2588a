package service

import (
	"context"
	"errors"
	"testing"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
)

// fakeContentStore keeps rows in insertion order.
type fakeContentStore[T any] struct {
	rows    map[int64]*T
	nextID  int64
	setID   func(*T, int64)
	visible func(*T) bool
	created int
	updated []*T
}

func (f *fakeContentStore[T]) List(_ context.Context, visibleOnly bool) ([]*T, error) {
	var out []*T
	for id := int64(1); id <= f.nextID; id++ {
		v, ok := f.rows[id]
		if !ok || (visibleOnly && !f.visible(v)) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeContentStore[T]) FindByID(_ context.Context, id int64) (*T, error) {
	v, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (f *fakeContentStore[T]) Create(_ context.Context, v *T) error {
	f.nextID++
	f.setID(v, f.nextID)
	f.rows[f.nextID] = v
	f.created++
	return nil
}

func (f *fakeContentStore[T]) Update(_ context.Context, v *T) error {
	f.updated = append(f.updated, v)
	return nil
}

func (f *fakeContentStore[T]) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

func newFakeTestimonials() *fakeContentStore[model.Testimonial] {
	return &fakeContentStore[model.Testimonial]{
		rows:    map[int64]*model.Testimonial{},
		setID:   func(t *model.Testimonial, id int64) { t.ID = id },
		visible: func(t *model.Testimonial) bool { return t.Visible },
	}
}

func TestTestimonialService_RatingBounds(t *testing.T) {
	for _, tc := range []struct {
		rating int
		ok     bool
	}{{0, false}, {1, true}, {5, true}, {6, false}} {
		store := newFakeTestimonials()
		svc := NewTestimonialService(store)

		err := svc.Create(context.Background(), &model.Testimonial{Author: "Ann", Content: "Great", Rating: tc.rating})
		if tc.ok && err != nil {
			t.Errorf("rating %d: unexpected error %v", tc.rating, err)
		}
		if !tc.ok && apperr.FieldOf(err) != "rating" {
			t.Errorf("rating %d: expected rating validation error, got %v", tc.rating, err)
		}
	}
}

func TestTestimonialService_PublicReadsHideInvisible(t *testing.T) {
	store := newFakeTestimonials()
	svc := NewTestimonialService(store)
	ctx := context.Background()

	shown := &model.Testimonial{Author: "Ann", Content: "Great", Rating: 5, Visible: true}
	hidden := &model.Testimonial{Author: "Bob", Content: "Fine", Rating: 3}
	for _, v := range []*model.Testimonial{shown, hidden} {
		if err := svc.Create(ctx, v); err != nil {
			t.Fatal(err)
		}
	}

	public, _ := svc.List(ctx, true)
	if len(public) != 1 || public[0].Author != "Ann" {
		t.Errorf("expected only Ann, got %v", public)
	}
	all, _ := svc.List(ctx, false)
	if len(all) != 2 {
		t.Errorf("admin list should include hidden rows, got %d", len(all))
	}
	if _, err := svc.Get(ctx, hidden.ID, true); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("hidden row must 404 publicly, got %v", err)
	}
	if _, err := svc.Get(ctx, hidden.ID, false); err != nil {
		t.Errorf("admin read of hidden row failed: %v", err)
	}
}

func TestContentService_UpdateUsesPathID(t *testing.T) {
	store := &fakeContentStore[model.BlogPost]{
		rows:    map[int64]*model.BlogPost{},
		setID:   func(p *model.BlogPost, id int64) { p.ID = id },
		visible: func(p *model.BlogPost) bool { return p.Visible },
	}
	svc := NewBlogService(store)

	if err := svc.Update(context.Background(), 9, &model.BlogPost{ID: 1, Title: " News ", Content: "x"}); err != nil {
		t.Fatal(err)
	}
	if len(store.updated) != 1 || store.updated[0].ID != 9 || store.updated[0].Title != "News" {
		t.Errorf("unexpected update %+v", store.updated)
	}
}

func TestContentService_RequiredFields(t *testing.T) {
	ctx := context.Background()
	blog := NewBlogService(&fakeContentStore[model.BlogPost]{rows: map[int64]*model.BlogPost{}, setID: func(*model.BlogPost, int64) {}})
	offering := NewOfferingService(&fakeContentStore[model.ServiceOffering]{rows: map[int64]*model.ServiceOffering{}, setID: func(*model.ServiceOffering, int64) {}})
	portfolio := NewPortfolioService(&fakeContentStore[model.PortfolioItem]{rows: map[int64]*model.PortfolioItem{}, setID: func(*model.PortfolioItem, int64) {}})

	cases := []struct {
		name  string
		err   error
		field string
	}{
		{"blog title", blog.Create(ctx, &model.BlogPost{Content: "x"}), "title"},
		{"blog content", blog.Create(ctx, &model.BlogPost{Title: "x", Content: "  "}), "content"},
		{"offering description", offering.Create(ctx, &model.ServiceOffering{Title: "SEO"}), "description"},
		{"portfolio title", portfolio.Create(ctx, &model.PortfolioItem{Client: "Acme"}), "title"},
	}
	for _, tc := range cases {
		if got := apperr.FieldOf(tc.err); got != tc.field {
			t.Errorf("%s: expected field %q, got %q", tc.name, tc.field, got)
		}
	}
}
