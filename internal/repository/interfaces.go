// Package repository defines repository interfaces for data access.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
)

// ProductRepository defines methods for catalog data access.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
	// ListVisible returns products shown in the public storefront
	ListVisible(ctx context.Context) ([]*models.Product, error)
	// ListAll returns every product (for admin)
	ListAll(ctx context.Context) ([]*models.Product, error)
	// SetImageKey updates the stored object key after an image upload
	SetImageKey(ctx context.Context, id int64, key string) error
}

// UserRepository defines methods for user account data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// ListByStatus returns users in a given approval state
	ListByStatus(ctx context.Context, status models.UserStatus) ([]*models.User, error)
	// ListApproved returns all approved users (newsletter fan-out)
	ListApproved(ctx context.Context) ([]*models.User, error)
	// UpdateStatus moves a user through the approval workflow
	UpdateStatus(ctx context.Context, id int64, status models.UserStatus, approvedAt *time.Time) error
	// CountAdmins returns the number of admin accounts (bootstrap check)
	CountAdmins(ctx context.Context) (int, error)
}

// MessageRepository defines methods for inbox and newsletter data access.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.Message, error)
	// ListByUserID returns a user's inbox, newest first
	ListByUserID(ctx context.Context, userID int64) ([]*models.Message, error)
	MarkRead(ctx context.Context, id int64) error
	// ClaimPendingNewsletter atomically claims the next queued broadcast.
	// Returns nil when nothing is pending.
	ClaimPendingNewsletter(ctx context.Context) (*models.Message, error)
	// MarkSent finalizes a delivered broadcast
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
}

// PrescriptionRepository defines methods for prescription data access.
// Patient fields arrive already encrypted; this layer never sees plaintext.
type PrescriptionRepository interface {
	Create(ctx context.Context, p *models.Prescription) error
	GetByID(ctx context.Context, id int64) (*models.Prescription, error)
	// ListByUserID returns a user's own prescriptions, newest first
	ListByUserID(ctx context.Context, userID int64) ([]*models.Prescription, error)
	// ListAll returns every prescription (for admin)
	ListAll(ctx context.Context) ([]*models.Prescription, error)
	// MarkPrinted records the print and the computed pick-up date
	MarkPrinted(ctx context.Context, id int64, printedAt, pickupDate time.Time) error
}

// Repositories holds all repository instances.
type Repositories struct {
	Product      ProductRepository
	User         UserRepository
	Message      MessageRepository
	Prescription PrescriptionRepository
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Product:      NewSQLiteProductRepository(db),
		User:         NewSQLiteUserRepository(db),
		Message:      NewSQLiteMessageRepository(db),
		Prescription: NewSQLitePrescriptionRepository(db),
	}
}
