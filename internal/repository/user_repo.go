package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
)

// SQLiteUserRepository implements UserRepository for SQLite/libsql.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, status, created_at, approved_at`

// Create inserts a new user and fills in its generated ID.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now()
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}
	if user.Status == "" {
		user.Status = models.UserPending
	}

	var approvedAt any
	if user.ApprovedAt != nil {
		approvedAt = user.ApprovedAt.Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password_hash, role, status, created_at, approved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		strings.ToLower(user.Email),
		user.Name,
		user.PasswordHash,
		string(user.Role),
		string(user.Status),
		user.CreatedAt.Format(time.RFC3339),
		approvedAt,
	)
	if err != nil {
		return err
	}

	user.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a user by ID. Returns nil when not found.
func (r *SQLiteUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?
	`, id)
	return r.scanUser(row)
}

// GetByEmail retrieves a user by email (case-insensitive). Returns nil when not found.
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = ?
	`, strings.ToLower(email))
	return r.scanUser(row)
}

// ListByStatus returns users in a given approval state, oldest first.
func (r *SQLiteUserRepository) ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE status = ? ORDER BY created_at
	`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanUsers(rows)
}

// ListApproved returns all approved users.
func (r *SQLiteUserRepository) ListApproved(ctx context.Context) ([]*models.User, error) {
	return r.ListByStatus(ctx, models.UserApproved)
}

// UpdateStatus moves a user through the approval workflow.
func (r *SQLiteUserRepository) UpdateStatus(ctx context.Context, id int64, status models.UserStatus, approvedAt *time.Time) error {
	var ts any
	if approvedAt != nil {
		ts = approvedAt.Format(time.RFC3339)
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET status = ?, approved_at = ? WHERE id = ?
	`, string(status), ts, id)
	return err
}

// CountAdmins returns the number of admin accounts.
func (r *SQLiteUserRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, string(models.RoleAdmin),
	).Scan(&count)
	return count, err
}

func (r *SQLiteUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var role, status, createdAt string
	var approvedAt sql.NullString

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&role,
		&status,
		&createdAt,
		&approvedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Role = models.UserRole(role)
	u.Status = models.UserStatus(status)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if approvedAt.Valid {
		t, _ := time.Parse(time.RFC3339, approvedAt.String)
		u.ApprovedAt = &t
	}

	return &u, nil
}

func (r *SQLiteUserRepository) scanUsers(rows *sql.Rows) ([]*models.User, error) {
	var users []*models.User

	for rows.Next() {
		var u models.User
		var role, status, createdAt string
		var approvedAt sql.NullString

		err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.Name,
			&u.PasswordHash,
			&role,
			&status,
			&createdAt,
			&approvedAt,
		)
		if err != nil {
			return nil, err
		}

		u.Role = models.UserRole(role)
		u.Status = models.UserStatus(status)
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if approvedAt.Valid {
			t, _ := time.Parse(time.RFC3339, approvedAt.String)
			u.ApprovedAt = &t
		}

		users = append(users, &u)
	}

	return users, rows.Err()
}
