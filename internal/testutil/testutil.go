// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yigit/phdtrack/internal/app/migrations"
	"github.com/yigit/phdtrack/internal/config"
	"github.com/yigit/phdtrack/internal/db"
	"github.com/yigit/phdtrack/internal/pkg/filestorage"
)

// TestConfig returns a sqlite configuration rooted in a fresh temp dir.
func TestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.Mode = "test"
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Path = filepath.Join(dir, "records.db")
	cfg.Database.MaxOpenConns = 4
	cfg.Database.MaxIdleConns = 1
	cfg.Database.ConnMaxLifetime = "1h"
	cfg.Storage.UploadRoot = filepath.Join(dir, "Uploads")
	cfg.Storage.ReleaseReplacedFiles = true
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "admin"
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiration = "1h"
	cfg.JWT.Issuer = "phdtrack-test"
	cfg.Logging.Level = "error"
	return cfg
}

// SetupTestDB opens cfg's store (a fresh one when cfg is nil) with the
// schema in place. The connection is closed when the test ends.
func SetupTestDB(t *testing.T, cfg *config.Config) *db.Database {
	t.Helper()
	if cfg == nil {
		cfg = TestConfig(t)
	}
	database, err := db.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := migrations.NewMigrator(database).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	return database
}

// NewTestStorage returns a LocalStorage rooted at cfg's upload root.
func NewTestStorage(t *testing.T, cfg *config.Config) *filestorage.LocalStorage {
	t.Helper()
	fs, err := filestorage.NewLocalStorage(cfg.Storage.UploadRoot)
	if err != nil {
		t.Fatalf("create test storage: %v", err)
	}
	return fs
}

// WriteTempFile writes content to name inside a fresh temp dir and returns the path.
func WriteTempFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

// ReadFile returns the file's content or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}

// StrPtr returns &s
func StrPtr(s string) *string {
	return &s
}
