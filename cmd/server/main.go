package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/handler"
	"github.com/macandtoo/backend/internal/logging"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/queue"
	"github.com/macandtoo/backend/internal/report"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
	"github.com/macandtoo/backend/internal/storage"
	"github.com/macandtoo/backend/internal/worker"
	"github.com/macandtoo/backend/pkg/auth"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Database.MigrateOnStart {
		if err := repository.ApplyMigrations(cfg.Database.URL); err != nil {
			logging.Fatal("migration failed", "error", err)
		}
	}

	pool, err := repository.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	// リポジトリ
	userRepo := repository.NewPgUserRepository(pool)
	contactRepo := repository.NewPgContactRepository(pool)
	newsletterRepo := repository.NewPgNewsletterRepository(pool)
	subscriberRepo := repository.NewPgSubscriberRepository(pool)
	activityRepo := repository.NewPgActivityRepository(pool)
	settingsRepo := repository.NewPgSettingsRepository(pool)
	imageRepo := repository.NewPgImageRepository(pool)

	// 通知・エクスポート
	exporter := report.NewExporter(cfg.Export)
	var dialer notify.Dialer
	if cfg.SMTP.Enabled() {
		dialer = notify.NewDialer(cfg.SMTP)
	}
	notifier, err := notify.New(cfg.SMTP, dialer, exporter)
	if err != nil {
		logging.Fatal("failed to init notifier", "error", err)
	}
	var mirror service.SheetAppender
	if cfg.Sheets.Enabled() {
		m, err := report.NewSheetsMirror(ctx, cfg.Sheets)
		if err != nil {
			slog.Warn("sheet mirror disabled", "error", err)
		} else {
			mirror = m
		}
	}

	q, err := queue.New(ctx, cfg.Queue)
	if err != nil {
		logging.Fatal("failed to open task queue", "driver", cfg.Queue.Driver, "error", err)
	}
	defer q.Close()

	// サービス
	secret := auth.SessionSecretBytes(cfg.Auth.SessionSecret)
	authService := service.NewAuthService(userRepo, secret, cfg.Auth.TokenTTL)
	processor := service.NewBatchProcessor(contactRepo, exporter, notifier, mirror, cfg.Export.StaleAfter)
	images := storage.NewImageStore(
		storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.URLPrefix),
		cfg.Storage.ThumbnailWidth,
	)
	svcs := services{
		auth:         authService,
		contacts:     service.NewContactService(contactRepo, q),
		processor:    processor,
		newsletters:  service.NewNewsletterService(newsletterRepo, subscriberRepo, notifier),
		team:         service.NewAdminUserService(userRepo),
		activity:     service.NewActivityService(activityRepo),
		settings:     service.NewSettingsService(settingsRepo, notifier, nil),
		dashboard:    service.NewDashboardService(repository.NewPgStatsRepository(pool)),
		images:       service.NewImageService(imageRepo, images, cfg.Storage.MaxUploadBytes),
		blog:         service.NewBlogService(repository.NewPgBlogRepository(pool)),
		offerings:    service.NewOfferingService(repository.NewPgOfferingRepository(pool)),
		portfolio:    service.NewPortfolioService(repository.NewPgPortfolioRepository(pool)),
		testimonials: service.NewTestimonialService(repository.NewPgTestimonialRepository(pool)),
	}

	if cfg.Auth.BootstrapPassword != "" {
		created, err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword)
		if err != nil {
			logging.Fatal("failed to bootstrap admin", "error", err)
		}
		if created {
			slog.Info("bootstrap super admin created", "username", cfg.Auth.BootstrapUsername)
		}
	}

	h := handler.New(pool, cfg.Server.FrontendURL)
	limiter := handler.NewRateLimiter(ctx, cfg.Server.RateLimit)
	mux := http.NewServeMux()
	registerRoutes(mux, cfg, svcs, routeDeps{
		base:     h,
		exporter: exporter,
		contacts: contactRepo,
		limiter:  limiter,
		secret:   secret,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           middleware.RequestID(handler.RequestLogger(middleware.Recoverer(handler.SecurityHeaders(h.CORS(mux))))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// process-contacts は同期実行なので長めに取る
		WriteTimeout: 2 * time.Minute,
	}

	w := worker.New(contactRepo, notifier, processor, q)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx, q) })
	g.Go(func() error { return worker.NewScheduler(q, cfg.Batch.Interval).Run(gctx) })
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr, "queue", cfg.Queue.Driver, "smtp", notifier.Enabled(), "sheets", mirror != nil)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
