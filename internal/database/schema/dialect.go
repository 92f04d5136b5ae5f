package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Dialect abstracts the engine-specific pieces of reconciliation: catalog
// introspection, DDL generation, and benign-error classification.
type Dialect interface {
	// Name identifies the dialect ("sqlite" or "postgres").
	Name() string
	// TableExists reports whether the named table exists.
	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	// ColumnNames returns the set of column names the live table has.
	ColumnNames(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error)
	// CreateTableSQL builds the CREATE TABLE statement including the
	// synthetic auto-incrementing primary key.
	CreateTableSQL(t Table) string
	// AddColumnSQL builds an additive ALTER TABLE statement for one column.
	AddColumnSQL(table string, c Column) string
	// IsDuplicateColumn reports whether err means the column already exists.
	IsDuplicateColumn(err error) bool
	// IsDuplicateTable reports whether err means the table already exists.
	IsDuplicateTable(err error) bool
}

// SQLite implements Dialect for SQLite and libsql.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }

func (SQLite) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (SQLite) ColumnNames(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	// PRAGMA arguments cannot be bound; table names are validated upstream.
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

func (SQLite) CreateTableSQL(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	b.WriteString("\tid INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, col := range t.Columns {
		fmt.Fprintf(&b, ",\n\t%s %s", col.Name, col.Declaration)
	}
	b.WriteString("\n)")
	return b.String()
}

func (SQLite) AddColumnSQL(table string, c Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.Name, c.Declaration)
}

// IsDuplicateColumn matches SQLite's "duplicate column name: x" message.
// SQLite exposes no structured error code through database/sql, so message
// inspection is the only available classification.
func (SQLite) IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column")
}

func (SQLite) IsDuplicateTable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") && strings.Contains(msg, "table")
}

// Postgres implements Dialect for PostgreSQL via pgx.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1
		)`, table,
	).Scan(&exists)
	return exists, err
}

func (Postgres) ColumnNames(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1`, table,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

func (Postgres) CreateTableSQL(t Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", t.Name)
	b.WriteString("\tid BIGSERIAL PRIMARY KEY")
	for _, col := range t.Columns {
		fmt.Fprintf(&b, ",\n\t%s %s", col.Name, col.Declaration)
	}
	b.WriteString("\n)")
	return b.String()
}

func (Postgres) AddColumnSQL(table string, c Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, c.Name, c.Declaration)
}

// Postgres error codes for "already exists" conditions.
const (
	pgDuplicateColumn = "42701"
	pgDuplicateTable  = "42P07"
)

// IsDuplicateColumn prefers the structured SQLSTATE code and falls back to
// message inspection for drivers that don't surface *pgconn.PgError.
func (Postgres) IsDuplicateColumn(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateColumn
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") && strings.Contains(msg, "column")
}

func (Postgres) IsDuplicateTable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable
	}
	msg := err.Error()
	return strings.Contains(msg, "already exists") && strings.Contains(msg, "relation")
}
