// Package testutil holds helpers shared by package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/board/config"
)

var dbSeq atomic.Int64

// NewDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the shared-cache database alive and serializes writers.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_busy_timeout=5000", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// TestConfig returns a configuration suitable for tests.
func TestConfig(t *testing.T) config.AppConfig {
	t.Helper()
	var cfg config.AppConfig
	cfg.App.JWTSecret = "test-secret"
	cfg.App.JWTExpirationHours = 24
	cfg.App.RateLimitPerMinute = 1000
	cfg.App.AllowedOrigins = []string{"*"}
	cfg.App.SkipCategorySeed = true
	cfg.Database.Driver = "sqlite"
	cfg.Gin.Mode = "test"
	cfg.Upload.Driver = "local"
	cfg.Upload.Dir = t.TempDir()
	cfg.Upload.MaxSizeMB = 1
	return cfg
}
