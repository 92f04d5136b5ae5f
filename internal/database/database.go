// Package database handles database connections and startup schema
// reconciliation.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/mhartig/dispensary-api/internal/database/schema"
)

// New opens a database connection for the given DSN.
// Supports:
//   - SQLite files: DATABASE_URL="file:path/to/shop.db" (libsql driver)
//   - In-memory SQLite: DATABASE_URL=":memory:" (tests, throwaway setups)
//   - Postgres: DATABASE_URL="postgres://user:pw@host/db" (pgx driver)
func New(dsn string) (*sql.DB, error) {
	var db *sql.DB
	var err error

	if isPostgres(dsn) {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
	} else {
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// Enable foreign keys (SQLite has them off by default)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// DialectFor returns the reconciler dialect matching the DSN.
func DialectFor(dsn string) schema.Dialect {
	if isPostgres(dsn) {
		return schema.Postgres{}
	}
	return schema.SQLite{}
}

// Reconcile brings every application table up to the declared target schema.
// Called once at startup before any request-serving component touches the
// database; a failure here should abort the process.
func Reconcile(ctx context.Context, db *sql.DB, d schema.Dialect, logger *slog.Logger) error {
	return schema.ReconcileAll(ctx, db, d, schema.Tables(), logger)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
