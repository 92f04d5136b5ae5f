package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
)

// SQLitePrescriptionRepository implements PrescriptionRepository for
// SQLite/libsql. The patient name, date of birth and insurance columns hold
// ciphertext produced by the service layer.
type SQLitePrescriptionRepository struct {
	db *sql.DB
}

// NewSQLitePrescriptionRepository creates a new SQLite prescription repository.
func NewSQLitePrescriptionRepository(db *sql.DB) *SQLitePrescriptionRepository {
	return &SQLitePrescriptionRepository{db: db}
}

const prescriptionColumns = `id, user_id, patient_name_enc, date_of_birth_enc, insurance_enc, medications_json, status, pickup_date, created_at, printed_at`

// Create inserts a new prescription and fills in its generated ID.
func (r *SQLitePrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	p.CreatedAt = time.Now()
	if p.Status == "" {
		p.Status = models.PrescriptionSubmitted
	}

	medications, err := json.Marshal(p.Medications)
	if err != nil {
		return err
	}

	var pickupDate any
	if p.PickupDate != nil {
		pickupDate = p.PickupDate.Format(time.RFC3339)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO prescriptions (user_id, patient_name_enc, date_of_birth_enc, insurance_enc, medications_json, status, pickup_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.UserID,
		p.PatientName,
		p.DateOfBirth,
		p.Insurance,
		string(medications),
		string(p.Status),
		pickupDate,
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	p.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a prescription by ID. Returns nil when not found.
func (r *SQLitePrescriptionRepository) GetByID(ctx context.Context, id int64) (*models.Prescription, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+prescriptionColumns+` FROM prescriptions WHERE id = ?
	`, id)
	return r.scanPrescription(row)
}

// ListByUserID returns a user's own prescriptions, newest first.
func (r *SQLitePrescriptionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prescriptionColumns+` FROM prescriptions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPrescriptions(rows)
}

// ListAll returns every prescription, newest first.
func (r *SQLitePrescriptionRepository) ListAll(ctx context.Context) ([]*models.Prescription, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+prescriptionColumns+` FROM prescriptions
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanPrescriptions(rows)
}

// MarkPrinted records the print and the computed pick-up date.
func (r *SQLitePrescriptionRepository) MarkPrinted(ctx context.Context, id int64, printedAt, pickupDate time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE prescriptions SET status = ?, printed_at = ?, pickup_date = ? WHERE id = ?
	`,
		string(models.PrescriptionPrinted),
		printedAt.Format(time.RFC3339),
		pickupDate.Format(time.RFC3339),
		id,
	)
	return err
}

func (r *SQLitePrescriptionRepository) scanPrescription(row *sql.Row) (*models.Prescription, error) {
	var p models.Prescription
	var medications, status, createdAt string
	var pickupDate, printedAt sql.NullString

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.PatientName,
		&p.DateOfBirth,
		&p.Insurance,
		&medications,
		&status,
		&pickupDate,
		&createdAt,
		&printedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(medications), &p.Medications); err != nil {
		return nil, err
	}
	p.Status = models.PrescriptionStatus(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if pickupDate.Valid {
		t, _ := time.Parse(time.RFC3339, pickupDate.String)
		p.PickupDate = &t
	}
	if printedAt.Valid {
		t, _ := time.Parse(time.RFC3339, printedAt.String)
		p.PrintedAt = &t
	}

	return &p, nil
}

func (r *SQLitePrescriptionRepository) scanPrescriptions(rows *sql.Rows) ([]*models.Prescription, error) {
	var prescriptions []*models.Prescription

	for rows.Next() {
		var p models.Prescription
		var medications, status, createdAt string
		var pickupDate, printedAt sql.NullString

		err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.PatientName,
			&p.DateOfBirth,
			&p.Insurance,
			&medications,
			&status,
			&pickupDate,
			&createdAt,
			&printedAt,
		)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal([]byte(medications), &p.Medications); err != nil {
			return nil, err
		}
		p.Status = models.PrescriptionStatus(status)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		if pickupDate.Valid {
			t, _ := time.Parse(time.RFC3339, pickupDate.String)
			p.PickupDate = &t
		}
		if printedAt.Valid {
			t, _ := time.Parse(time.RFC3339, printedAt.String)
			p.PrintedAt = &t
		}

		prescriptions = append(prescriptions, &p)
	}

	return prescriptions, rows.Err()
}
