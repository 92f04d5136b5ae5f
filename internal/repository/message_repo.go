package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
)

// SQLiteMessageRepository implements MessageRepository for SQLite/libsql.
type SQLiteMessageRepository struct {
	db *sql.DB
}

// NewSQLiteMessageRepository creates a new SQLite message repository.
func NewSQLiteMessageRepository(db *sql.DB) *SQLiteMessageRepository {
	return &SQLiteMessageRepository{db: db}
}

const messageColumns = `id, user_id, subject, body, kind, status, origin_id, is_read, created_at, sent_at`

// Create inserts a new message and fills in its generated ID.
func (r *SQLiteMessageRepository) Create(ctx context.Context, message *models.Message) error {
	message.CreatedAt = time.Now()
	if message.Kind == "" {
		message.Kind = models.MessageDirect
	}
	if message.Status == "" {
		message.Status = models.MessagePending
	}

	var userID, originID any
	if message.UserID != nil {
		userID = *message.UserID
	}
	if message.OriginID != nil {
		originID = *message.OriginID
	}

	isRead := 0
	if message.IsRead {
		isRead = 1
	}

	var sentAt any
	if message.SentAt != nil {
		sentAt = message.SentAt.Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, subject, body, kind, status, origin_id, is_read, created_at, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		userID,
		message.Subject,
		message.Body,
		string(message.Kind),
		string(message.Status),
		originID,
		isRead,
		message.CreatedAt.Format(time.RFC3339),
		sentAt,
	)
	if err != nil {
		return err
	}

	message.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a message by ID. Returns nil when not found.
func (r *SQLiteMessageRepository) GetByID(ctx context.Context, id int64) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = ?
	`, id)
	return r.scanMessage(row)
}

// ListByUserID returns a user's inbox, newest first.
func (r *SQLiteMessageRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanMessages(rows)
}

// MarkRead flags an inbox message as read.
func (r *SQLiteMessageRepository) MarkRead(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = 1 WHERE id = ?`, id)
	return err
}

// ClaimPendingNewsletter atomically claims the oldest queued broadcast by
// flipping its status, so concurrent workers never deliver the same one.
// Returns nil when nothing is pending.
func (r *SQLiteMessageRepository) ClaimPendingNewsletter(ctx context.Context) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE messages SET status = ?
		WHERE id = (
			SELECT id FROM messages
			WHERE kind = ? AND status = ? AND user_id IS NULL
			ORDER BY created_at, id
			LIMIT 1
		)
		RETURNING `+messageColumns+`
	`, string(models.MessageSending), string(models.MessageNewsletter), string(models.MessagePending))

	msg, err := r.scanMessage(row)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// MarkSent finalizes a delivered broadcast.
func (r *SQLiteMessageRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE messages SET status = ?, sent_at = ? WHERE id = ?
	`, string(models.MessageSent), sentAt.Format(time.RFC3339), id)
	return err
}

func (r *SQLiteMessageRepository) scanMessage(row *sql.Row) (*models.Message, error) {
	var m models.Message
	var userID, originID sql.NullInt64
	var kind, status, createdAt string
	var sentAt sql.NullString
	var isRead int

	err := row.Scan(
		&m.ID,
		&userID,
		&m.Subject,
		&m.Body,
		&kind,
		&status,
		&originID,
		&isRead,
		&createdAt,
		&sentAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		m.UserID = &userID.Int64
	}
	if originID.Valid {
		m.OriginID = &originID.Int64
	}
	m.Kind = models.MessageKind(kind)
	m.Status = models.MessageStatus(status)
	m.IsRead = isRead == 1
	m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if sentAt.Valid {
		t, _ := time.Parse(time.RFC3339, sentAt.String)
		m.SentAt = &t
	}

	return &m, nil
}

func (r *SQLiteMessageRepository) scanMessages(rows *sql.Rows) ([]*models.Message, error) {
	var messages []*models.Message

	for rows.Next() {
		var m models.Message
		var userID, originID sql.NullInt64
		var kind, status, createdAt string
		var sentAt sql.NullString
		var isRead int

		err := rows.Scan(
			&m.ID,
			&userID,
			&m.Subject,
			&m.Body,
			&kind,
			&status,
			&originID,
			&isRead,
			&createdAt,
			&sentAt,
		)
		if err != nil {
			return nil, err
		}

		if userID.Valid {
			m.UserID = &userID.Int64
		}
		if originID.Valid {
			m.OriginID = &originID.Int64
		}
		m.Kind = models.MessageKind(kind)
		m.Status = models.MessageStatus(status)
		m.IsRead = isRead == 1
		m.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if sentAt.Valid {
			t, _ := time.Parse(time.RFC3339, sentAt.String)
			m.SentAt = &t
		}

		messages = append(messages, &m)
	}

	return messages, rows.Err()
}
