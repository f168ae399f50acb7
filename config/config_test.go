package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("ADMIN_LOGIN_IDS", "root, Admin ,,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.JWTSecret != "s3cret" || cfg.App.AppPort != "8080" || cfg.App.JWTExpirationHours != 24 {
		t.Fatalf("unexpected app section: %+v", cfg.App)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("driver not normalized: %q", cfg.Database.Driver)
	}
	if len(cfg.Admin.LoginIDs) != 2 || !cfg.IsAdminLoginID("admin") || cfg.IsAdminLoginID("alice") {
		t.Fatalf("unexpected admin ids: %v", cfg.Admin.LoginIDs)
	}
	if len(cfg.App.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.App.AllowedOrigins)
	}
	if cfg.Upload.MaxSizeMB != 10 || cfg.Upload.Driver != "local" {
		t.Fatalf("unexpected upload defaults: %+v", cfg.Upload)
	}
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := []byte(`{"app": {"JWTSecret": "from-file", "AppPort": "9090"}, "upload": {"MaxSizeMB": 3}}`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APP_PORT", "7070")
	t.Setenv("JWT_SECRET", "")
	os.Unsetenv("JWT_SECRET")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.JWTSecret != "from-file" {
		t.Fatalf("secret not read from file: %q", cfg.App.JWTSecret)
	}
	if cfg.App.AppPort != "7070" {
		t.Fatalf("env should override file, got %q", cfg.App.AppPort)
	}
	if cfg.Upload.MaxSizeMB != 3 {
		t.Fatalf("upload size not read from file: %d", cfg.Upload.MaxSizeMB)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error without JWT_SECRET")
	}
}
