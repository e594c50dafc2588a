package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test", []string{"--database_url=postgres://u:p@localhost/agency"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected addr :8080, got %q", cfg.Server.Addr)
	}
	if cfg.Export.Retain != 5 {
		t.Errorf("expected retain=5, got %d", cfg.Export.Retain)
	}
	if cfg.SMTP.BatchSize != 50 {
		t.Errorf("expected batch size 50, got %d", cfg.SMTP.BatchSize)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Queue.Driver != "memory" {
		t.Errorf("expected memory queue, got %q", cfg.Queue.Driver)
	}
	if cfg.Sheets.Range != "Contacts!A:G" {
		t.Errorf("expected default range, got %q", cfg.Sheets.Range)
	}
	if cfg.SMTP.Enabled() {
		t.Error("SMTP should be disabled without a host")
	}
	if cfg.Sheets.Enabled() {
		t.Error("sheets mirror should be disabled without an id")
	}
	if cfg.Auth.SessionSecret == "" {
		t.Error("expected development session secret outside production")
	}
}

func TestLoad_DatabaseURLRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load("test", nil); err == nil {
		t.Fatal("expected error when database url is missing")
	}
}

func TestLoad_EnvironmentAndLegacyNames(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/agency")
	t.Setenv("EMAIL_HOST", "smtp.example.com")
	t.Setenv("EMAIL_USER", "mailer@example.com")
	t.Setenv("ADMIN_EMAIL", "owner@example.com")
	t.Setenv("SMTP_BATCH_SIZE", "25")

	cfg, err := Load("test", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "postgres://env/agency" {
		t.Errorf("expected env database url, got %q", cfg.Database.URL)
	}
	if cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("expected EMAIL_HOST to populate smtp host, got %q", cfg.SMTP.Host)
	}
	if cfg.SMTP.From != "mailer@example.com" {
		t.Errorf("expected From to fall back to username, got %q", cfg.SMTP.From)
	}
	if cfg.SMTP.AdminAddress != "owner@example.com" {
		t.Errorf("expected admin address, got %q", cfg.SMTP.AdminAddress)
	}
	if cfg.SMTP.BatchSize != 25 {
		t.Errorf("expected batch size 25, got %d", cfg.SMTP.BatchSize)
	}
	if !cfg.SMTP.Enabled() {
		t.Error("SMTP should be enabled with a host")
	}
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/agency")
	cfg, err := Load("test", []string{"--database_url=postgres://flag/agency"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.URL != "postgres://flag/agency" {
		t.Errorf("expected flag to win, got %q", cfg.Database.URL)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agency.yaml")
	content := "database_url: postgres://file/agency\nexport_retain: 3\nqueue_driver: redis\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("test", []string{"--config_file=" + path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.File != path {
		t.Errorf("expected File=%q, got %q", path, cfg.File)
	}
	if cfg.Export.Retain != 3 {
		t.Errorf("expected retain=3 from file, got %d", cfg.Export.Retain)
	}
	if cfg.Queue.Driver != "redis" {
		t.Errorf("expected redis driver from file, got %q", cfg.Queue.Driver)
	}
}

func TestLoad_RejectsUnknownQueueDriver(t *testing.T) {
	_, err := Load("test", []string{"--database_url=postgres://x", "--queue_driver=kafka"})
	if err == nil {
		t.Fatal("expected error for unknown queue driver")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("JWT_SECRET", "")
	_, err := Load("test", []string{"--database_url=postgres://x", "--production"})
	if err == nil {
		t.Fatal("expected error without session secret in production")
	}
}

func TestLoad_PositionalArgs(t *testing.T) {
	cfg, err := Load("maintenance", []string{"--database_url=postgres://x", "cleanup-temp"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "cleanup-temp" {
		t.Errorf("expected positional arg cleanup-temp, got %v", cfg.Args)
	}
}

func TestLoad_SkipAuthRefusedInProduction(t *testing.T) {
	_, err := Load("test", []string{"--database_url=postgres://x", "--session_secret=s", "--production", "--skip_auth"})
	if err == nil {
		t.Fatal("expected error for skip_auth in production")
	}
	cfg, err := Load("test", []string{"--database_url=postgres://x", "--skip_auth"})
	if err != nil || !cfg.Auth.SkipAuth {
		t.Fatalf("skip_auth should be allowed in development: %v", err)
	}
}
