package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/mhartig/dispensary-api/internal/config"
	"github.com/mhartig/dispensary-api/internal/database/schema"
	"github.com/mhartig/dispensary-api/internal/repository"
)

// newTestEnv creates an in-memory database with repositories and a config
// suitable for service tests.
func newTestEnv(t *testing.T) (*config.Config, *repository.Repositories, *slog.Logger) {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	logger := slog.New(slog.DiscardHandler)
	if err := schema.ReconcileAll(context.Background(), db, schema.SQLite{}, schema.Tables(), logger); err != nil {
		t.Fatalf("failed to reconcile schema: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		EncryptionKey: make([]byte, 32),
	}

	return cfg, repository.NewRepositories(db), logger
}

// newTestServices wires a full service set over an in-memory database.
func newTestServices(t *testing.T) *Services {
	t.Helper()

	cfg, repos, logger := newTestEnv(t)
	svcs, err := NewServices(cfg, repos, logger)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}
	return svcs
}
