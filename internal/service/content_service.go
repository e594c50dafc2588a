package service

import (
	"context"
	"strings"

	"github.com/macandtoo/backend/internal/apperr"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/repository"
)

// ContentRepository is the shape shared by the blog, offering, portfolio and
// testimonial repositories.
type ContentRepository[T any] interface {
	List(ctx context.Context, visibleOnly bool) ([]*T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id int64) error
}

// ContentService manages one kind of public site content. Public reads only
// see visible rows.
type ContentService[T any] interface {
	List(ctx context.Context, visibleOnly bool) ([]*T, error)
	Get(ctx context.Context, id int64, visibleOnly bool) (*T, error)
	Create(ctx context.Context, v *T) error
	Update(ctx context.Context, id int64, v *T) error
	Delete(ctx context.Context, id int64) error
}

// contentRules adapts a content type to the generic service.
type contentRules[T any] struct {
	normalize func(*T) error
	setID     func(*T, int64)
	visible   func(*T) bool
}

type contentServiceImpl[T any] struct {
	repo  ContentRepository[T]
	rules contentRules[T]
}

func (s *contentServiceImpl[T]) List(ctx context.Context, visibleOnly bool) ([]*T, error) {
	return s.repo.List(ctx, visibleOnly)
}

func (s *contentServiceImpl[T]) Get(ctx context.Context, id int64, visibleOnly bool) (*T, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if visibleOnly && !s.rules.visible(v) {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (s *contentServiceImpl[T]) Create(ctx context.Context, v *T) error {
	if err := s.rules.normalize(v); err != nil {
		return err
	}
	return s.repo.Create(ctx, v)
}

func (s *contentServiceImpl[T]) Update(ctx context.Context, id int64, v *T) error {
	if err := s.rules.normalize(v); err != nil {
		return err
	}
	s.rules.setID(v, id)
	return s.repo.Update(ctx, v)
}

func (s *contentServiceImpl[T]) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func required(field, value string) error {
	if value == "" {
		return apperr.Validation(field, field+" is required")
	}
	return nil
}

func NewBlogService(repo repository.BlogRepository) ContentService[model.BlogPost] {
	return &contentServiceImpl[model.BlogPost]{repo: repo, rules: contentRules[model.BlogPost]{
		normalize: func(p *model.BlogPost) error {
			p.Title = strings.TrimSpace(p.Title)
			p.Category = strings.TrimSpace(p.Category)
			if err := required("title", p.Title); err != nil {
				return err
			}
			return required("content", strings.TrimSpace(p.Content))
		},
		setID:   func(p *model.BlogPost, id int64) { p.ID = id },
		visible: func(p *model.BlogPost) bool { return p.Visible },
	}}
}

func NewOfferingService(repo repository.OfferingRepository) ContentService[model.ServiceOffering] {
	return &contentServiceImpl[model.ServiceOffering]{repo: repo, rules: contentRules[model.ServiceOffering]{
		normalize: func(o *model.ServiceOffering) error {
			o.Title = strings.TrimSpace(o.Title)
			o.Description = strings.TrimSpace(o.Description)
			if err := required("title", o.Title); err != nil {
				return err
			}
			return required("description", o.Description)
		},
		setID:   func(o *model.ServiceOffering, id int64) { o.ID = id },
		visible: func(o *model.ServiceOffering) bool { return o.Visible },
	}}
}

func NewPortfolioService(repo repository.PortfolioRepository) ContentService[model.PortfolioItem] {
	return &contentServiceImpl[model.PortfolioItem]{repo: repo, rules: contentRules[model.PortfolioItem]{
		normalize: func(p *model.PortfolioItem) error {
			p.Title = strings.TrimSpace(p.Title)
			p.Client = strings.TrimSpace(p.Client)
			p.Link = strings.TrimSpace(p.Link)
			return required("title", p.Title)
		},
		setID:   func(p *model.PortfolioItem, id int64) { p.ID = id },
		visible: func(p *model.PortfolioItem) bool { return p.Visible },
	}}
}

// NewTestimonialService requires an author, content and a 1..5 rating.
func NewTestimonialService(repo repository.TestimonialRepository) ContentService[model.Testimonial] {
	return &contentServiceImpl[model.Testimonial]{repo: repo, rules: contentRules[model.Testimonial]{
		normalize: func(t *model.Testimonial) error {
			t.Author = strings.TrimSpace(t.Author)
			t.Company = strings.TrimSpace(t.Company)
			t.Content = strings.TrimSpace(t.Content)
			if err := required("author", t.Author); err != nil {
				return err
			}
			if err := required("content", t.Content); err != nil {
				return err
			}
			if t.Rating < 1 || t.Rating > 5 {
				return apperr.Validation("rating", "rating must be between 1 and 5")
			}
			return nil
		},
		setID:   func(t *model.Testimonial, id int64) { t.ID = id },
		visible: func(t *model.Testimonial) bool { return t.Visible },
	}}
}
