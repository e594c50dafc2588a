package main

import (
	"net/http"
	"strings"

	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/handler"
	"github.com/macandtoo/backend/internal/model"
	"github.com/macandtoo/backend/internal/report"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/pkg/auth"
)

type services struct {
	auth         service.AuthService
	contacts     service.ContactService
	processor    service.BatchProcessor
	newsletters  service.NewsletterService
	team         service.AdminUserService
	activity     service.ActivityService
	settings     service.SettingsService
	dashboard    service.DashboardService
	images       service.ImageService
	blog         service.ContentService[model.BlogPost]
	offerings    service.ContentService[model.ServiceOffering]
	portfolio    service.ContentService[model.PortfolioItem]
	testimonials service.ContentService[model.Testimonial]
}

type routeDeps struct {
	base     *handler.Handler
	exporter *report.Exporter
	contacts *repository.PgContactRepository
	limiter  *handler.RateLimiter
	secret   []byte
}

var (
	anyRole   = []string{model.RoleSuperAdmin, model.RoleAdmin, model.RoleEditor}
	adminRole = []string{model.RoleSuperAdmin, model.RoleAdmin}
	superRole = []string{model.RoleSuperAdmin}
)

func registerRoutes(mux *http.ServeMux, cfg *config.AppConfig, s services, d routeDeps) {
	authHandler := handler.NewAuthHandler(s.auth, cfg.Server.Production)
	contactHandler := handler.NewContactHandler(s.contacts)
	batchHandler := handler.NewBatchHandler(s.processor, d.exporter, d.contacts)
	newsletterHandler := handler.NewNewsletterHandler(s.newsletters)
	teamHandler := handler.NewAdminUserHandler(s.team)
	activityHandler := handler.NewActivityHandler(s.activity)
	settingsHandler := handler.NewSettingsHandler(s.settings)
	dashboardHandler := handler.NewDashboardHandler(s.dashboard)
	imageHandler := handler.NewImageHandler(s.images, cfg.Storage.MaxUploadBytes)

	requireAuth := auth.RequireAuth(d.secret)
	if cfg.Auth.SkipAuth {
		requireAuth = auth.DevAuth
	}
	recordActivity := handler.ActivityLogger(s.activity)
	// 管理 API: 認証 → 操作ログ → ロール確認
	admin := func(fn http.HandlerFunc, roles []string) http.Handler {
		return requireAuth(recordActivity(auth.RequireRole(roles...)(fn)))
	}
	public := func(fn http.HandlerFunc) http.Handler {
		return d.limiter.Middleware(fn)
	}

	mux.HandleFunc("GET /api/health", d.base.Health)

	// 認証
	mux.Handle("POST /api/auth/login", public(authHandler.Login))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(http.HandlerFunc(authHandler.Me)))

	// 公開フォーム
	mux.Handle("POST /api/contacts", public(contactHandler.Submit))
	mux.Handle("POST /api/newsletter/subscribe", public(newsletterHandler.Subscribe))
	mux.Handle("POST /api/newsletter/unsubscribe", public(newsletterHandler.Unsubscribe))

	// お問い合わせ管理
	mux.Handle("GET /api/admin/contacts", admin(contactHandler.AdminList, anyRole))
	mux.Handle("PATCH /api/admin/contacts/{id}/read", admin(contactHandler.MarkRead, anyRole))
	mux.Handle("GET /api/admin/contacts/export", admin(batchHandler.Export, adminRole))
	mux.Handle("GET /api/admin/contacts/report", admin(batchHandler.Report, adminRole))
	mux.Handle("POST /api/admin/process-contacts", admin(batchHandler.ProcessContacts, adminRole))
	mux.Handle("POST /api/admin/cleanup-temp", admin(batchHandler.CleanupTemp, adminRole))

	// ニュースレター
	mux.Handle("GET /api/admin/newsletters", admin(newsletterHandler.List, anyRole))
	mux.Handle("POST /api/admin/newsletters", admin(newsletterHandler.Create, anyRole))
	mux.Handle("GET /api/admin/newsletters/{id}", admin(newsletterHandler.Get, anyRole))
	mux.Handle("POST /api/admin/newsletters/{id}/send", admin(newsletterHandler.Send, adminRole))
	mux.Handle("GET /api/admin/subscribers", admin(newsletterHandler.Subscribers, adminRole))

	// チーム
	mux.Handle("GET /api/admin/team", admin(teamHandler.List, superRole))
	mux.Handle("POST /api/admin/team", admin(teamHandler.Create, superRole))
	mux.Handle("PUT /api/admin/team/{id}", admin(teamHandler.Update, superRole))
	mux.Handle("DELETE /api/admin/team/{id}", admin(teamHandler.Delete, superRole))
	mux.Handle("PUT /api/admin/team/{id}/password", admin(teamHandler.ChangePassword, anyRole))

	mux.Handle("GET /api/admin/activity", admin(activityHandler.List, adminRole))
	mux.Handle("GET /api/admin/settings", admin(settingsHandler.Get, adminRole))
	mux.Handle("PUT /api/admin/settings", admin(settingsHandler.Update, adminRole))
	mux.Handle("POST /api/admin/settings/test-email", admin(settingsHandler.TestEmail, adminRole))
	mux.Handle("GET /api/admin/dashboard", admin(dashboardHandler.Get, anyRole))

	// 画像
	mux.Handle("GET /api/admin/images", admin(imageHandler.List, anyRole))
	mux.Handle("POST /api/admin/images", admin(imageHandler.Upload, anyRole))
	mux.Handle("DELETE /api/admin/images/{id}", admin(imageHandler.Delete, anyRole))
	prefix := strings.TrimSuffix(cfg.Storage.URLPrefix, "/")
	mux.Handle("GET "+prefix+"/", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.Storage.UploadDir))))

	// サイトコンテンツ
	registerContent(mux, "blog", handler.NewContentHandler(s.blog, "posts", "post"), admin)
	registerContent(mux, "services", handler.NewContentHandler(s.offerings, "services", "service"), admin)
	registerContent(mux, "portfolio", handler.NewContentHandler(s.portfolio, "items", "item"), admin)
	registerContent(mux, "testimonials", handler.NewContentHandler(s.testimonials, "testimonials", "testimonial"), admin)
}

// contentRoutes is the method set shared by every ContentHandler instantiation.
type contentRoutes interface {
	PublicList(http.ResponseWriter, *http.Request)
	PublicGet(http.ResponseWriter, *http.Request)
	AdminList(http.ResponseWriter, *http.Request)
	AdminGet(http.ResponseWriter, *http.Request)
	Create(http.ResponseWriter, *http.Request)
	Update(http.ResponseWriter, *http.Request)
	Delete(http.ResponseWriter, *http.Request)
}

func registerContent(mux *http.ServeMux, name string, h contentRoutes, admin func(http.HandlerFunc, []string) http.Handler) {
	mux.HandleFunc("GET /api/"+name, h.PublicList)
	mux.HandleFunc("GET /api/"+name+"/{id}", h.PublicGet)
	mux.Handle("GET /api/admin/"+name, admin(h.AdminList, anyRole))
	mux.Handle("POST /api/admin/"+name, admin(h.Create, anyRole))
	mux.Handle("GET /api/admin/"+name+"/{id}", admin(h.AdminGet, anyRole))
	mux.Handle("PUT /api/admin/"+name+"/{id}", admin(h.Update, anyRole))
	mux.Handle("DELETE /api/admin/"+name+"/{id}", admin(h.Delete, anyRole))
}
