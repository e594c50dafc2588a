// Command maintenance runs the contact batch actions once, outside the server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/logging"
	"github.com/macandtoo/backend/internal/notify"
	"github.com/macandtoo/backend/internal/report"
	"github.com/macandtoo/backend/internal/repository"
	"github.com/macandtoo/backend/internal/service"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: maintenance [flags] <command>

Commands:
  process-contacts  未処理のお問い合わせをエクスポートして管理者に通知
  cleanup-temp      一時ファイルを削除`)
	os.Exit(2)
}

func main() {
	cfg, err := config.Load("maintenance", os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)
	if len(cfg.Args) != 1 {
		usage()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exporter := report.NewExporter(cfg.Export)

	switch cfg.Args[0] {
	case "cleanup-temp":
		n, err := exporter.CleanupTemp()
		if err != nil {
			logging.Fatal("cleanup failed", "error", err)
		}
		slog.Info("temp files removed", "count", n)
	case "process-contacts":
		pool, err := repository.NewPool(ctx, cfg.Database.URL)
		if err != nil {
			logging.Fatal("failed to connect to database", "error", err)
		}
		defer pool.Close()

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
			if m, err := report.NewSheetsMirror(ctx, cfg.Sheets); err != nil {
				slog.Warn("sheet mirror disabled", "error", err)
			} else {
				mirror = m
			}
		}

		processor := service.NewBatchProcessor(repository.NewPgContactRepository(pool), exporter, notifier, mirror, cfg.Export.StaleAfter)
		res, err := processor.ProcessContacts(ctx)
		if err != nil {
			logging.Fatal("process contacts failed", "error", err)
		}
		slog.Info(res.Message, "run_id", res.RunID, "processed", res.Processed, "notified", res.Notified, "mirrored", res.Mirrored)
	default:
		usage()
	}
}
