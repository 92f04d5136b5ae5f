// Package schema reconciles live database tables against the column set the
// current application version requires. It only ever adds: missing tables are
// created, missing columns are appended, and existing columns are never
// dropped, renamed, or retyped. Running it repeatedly converges to the same
// state, so it is safe to invoke on every process start.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Column declares one column of a target schema. Declaration carries the type
// plus any default or constraint clause, e.g. "TEXT NOT NULL DEFAULT ''".
type Column struct {
	Name        string
	Declaration string
}

// Table is the ordered column set a table must contain. The reconciler adds a
// synthetic auto-incrementing "id" primary key on creation; Columns must not
// declare one.
type Table struct {
	Name    string
	Columns []Column
}

// Result reports what a reconciliation changed.
type Result struct {
	// Created is true when the table itself was newly created.
	Created bool
	// AddedColumns lists columns actually added, in declaration order.
	AddedColumns []string
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Reconcile ensures the table exists with at least the declared columns.
//
// If the table is absent it is created with an auto-incrementing primary key
// plus every declared column. If present, each declared column missing from
// the live table is appended with ALTER TABLE ADD COLUMN. A duplicate-column
// error from the store means another process won the race to add it and is
// treated as success. Any other failure aborts the call; columns already
// added stay in place, and a rerun converges the remainder.
func Reconcile(ctx context.Context, db *sql.DB, d Dialect, t Table) (Result, error) {
	var res Result

	if err := validateTable(t); err != nil {
		return res, err
	}

	exists, err := d.TableExists(ctx, db, t.Name)
	if err != nil {
		return res, fmt.Errorf("failed to check table %s: %w", t.Name, err)
	}

	if !exists {
		if _, err := db.ExecContext(ctx, d.CreateTableSQL(t)); err != nil {
			// Concurrent startup may have created it first; fall through to
			// the column catch-up pass in that case.
			if !d.IsDuplicateTable(err) {
				return res, fmt.Errorf("failed to create table %s: %w", t.Name, err)
			}
		} else {
			res.Created = true
			return res, nil
		}
	}

	current, err := d.ColumnNames(ctx, db, t.Name)
	if err != nil {
		return res, fmt.Errorf("failed to introspect table %s: %w", t.Name, err)
	}

	for _, col := range t.Columns {
		if _, ok := current[col.Name]; ok {
			continue
		}
		if _, err := db.ExecContext(ctx, d.AddColumnSQL(t.Name, col)); err != nil {
			// A concurrent reconciler added it between introspection and
			// alteration. Already satisfied, not an error.
			if d.IsDuplicateColumn(err) {
				continue
			}
			return res, fmt.Errorf("failed to add column %s.%s: %w", t.Name, col.Name, err)
		}
		res.AddedColumns = append(res.AddedColumns, col.Name)
	}

	return res, nil
}

// ReconcileAll reconciles every given table in order, logging a summary of
// what changed. The first failure aborts; tables already reconciled stay.
func ReconcileAll(ctx context.Context, db *sql.DB, d Dialect, tables []Table, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	for _, t := range tables {
		res, err := Reconcile(ctx, db, d, t)
		if err != nil {
			return err
		}
		switch {
		case res.Created:
			logger.Info("created table", "table", t.Name, "columns", len(t.Columns))
		case len(res.AddedColumns) > 0:
			logger.Info("added columns", "table", t.Name, "columns", strings.Join(res.AddedColumns, ","))
		default:
			logger.Debug("table up to date", "table", t.Name)
		}
	}

	return nil
}

// validateTable rejects identifiers that cannot be safely interpolated into
// DDL. Declarations come from compile-time constants, not user input, and are
// passed through as-is.
func validateTable(t Table) error {
	if !identPattern.MatchString(t.Name) {
		return fmt.Errorf("invalid table name %q", t.Name)
	}
	for _, col := range t.Columns {
		if !identPattern.MatchString(col.Name) {
			return fmt.Errorf("invalid column name %q in table %s", col.Name, t.Name)
		}
		if strings.TrimSpace(col.Declaration) == "" {
			return fmt.Errorf("empty declaration for column %s.%s", t.Name, col.Name)
		}
	}
	return nil
}
