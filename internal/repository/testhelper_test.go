package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/mhartig/dispensary-api/internal/database/schema"
)

// setupTestDB creates an in-memory SQLite database with the full schema
// reconciled, for repository tests.
func setupTestDB(t *testing.T) *sql.DB {
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

	return db
}
