package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/macandtoo/backend/internal/config"
	"github.com/macandtoo/backend/internal/logging"
	"github.com/macandtoo/backend/internal/repository"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: migrate [flags] [command]

Commands:
  up (default)  未適用のマイグレーションをすべて適用
  down          直近のマイグレーションを 1 つ戻す
  version       現在のスキーマバージョンを表示`)
	os.Exit(2)
}

func main() {
	cfg, err := config.Load("migrate", os.Args[1:])
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	cmd := "up"
	if len(cfg.Args) > 0 {
		cmd = cfg.Args[0]
	}

	switch cmd {
	case "up":
		if err := repository.ApplyMigrations(cfg.Database.URL); err != nil {
			logging.Fatal("migrate up failed", "error", err)
		}
	case "down":
		m, err := repository.NewMigrator(cfg.Database.URL)
		if err != nil {
			logging.Fatal("open migrator failed", "error", err)
		}
		defer m.Close()
		if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			logging.Fatal("migrate down failed", "error", err)
		}
		slog.Info("rolled back one migration")
	case "version":
		m, err := repository.NewMigrator(cfg.Database.URL)
		if err != nil {
			logging.Fatal("open migrator failed", "error", err)
		}
		defer m.Close()
		v, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			slog.Info("no migration applied")
			return
		}
		if err != nil {
			logging.Fatal("read version failed", "error", err)
		}
		slog.Info("schema version", "version", v, "dirty", dirty)
	default:
		usage()
	}
}
