// Package models contains the domain types shared across layers.
package models

import "time"

// UserRole determines what a user may do.
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

// UserStatus tracks the registration approval workflow.
type UserStatus string

const (
	UserPending  UserStatus = "pending"
	UserApproved UserStatus = "approved"
	UserRejected UserStatus = "rejected"
)

// User is a registered account. New registrations start pending and must be
// approved by an admin before they can log in.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	ApprovedAt   *time.Time
}

// Product is a catalog entry. ImageKey references an object in the image
// bucket; the database never stores image bytes.
type Product struct {
	ID          int64
	Title       string
	Description string
	Price       float64
	ImageKey    string
	THC         float64
	CBD         float64
	Effects     string
	Genetics    string
	IsVisible   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MessageKind distinguishes direct messages from newsletter broadcasts.
type MessageKind string

const (
	MessageDirect     MessageKind = "direct"
	MessageNewsletter MessageKind = "newsletter"
)

// MessageStatus tracks delivery of newsletter broadcasts. Direct messages are
// sent immediately and never stay pending.
type MessageStatus string

const (
	MessagePending MessageStatus = "pending"
	MessageSending MessageStatus = "sending"
	MessageSent    MessageStatus = "sent"
)

// Message is an inbox entry or a queued newsletter broadcast. A broadcast has
// no UserID; the worker fans it out into per-user copies whose OriginID
// points back at the broadcast row.
type Message struct {
	ID        int64
	UserID    *int64
	Subject   string
	Body      string
	Kind      MessageKind
	Status    MessageStatus
	OriginID  *int64
	IsRead    bool
	CreatedAt time.Time
	SentAt    *time.Time
}

// PrescriptionStatus tracks the intake-and-print workflow.
type PrescriptionStatus string

const (
	PrescriptionSubmitted PrescriptionStatus = "submitted"
	PrescriptionPrinted   PrescriptionStatus = "printed"
)

// MedicationLine is one requested medication on a prescription.
type MedicationLine struct {
	Name     string  `json:"name"`
	Genetics string  `json:"genetics,omitempty"`
	THC      float64 `json:"thc"`
	CBD      float64 `json:"cbd"`
	Quantity float64 `json:"quantity"`
	Dosage   string  `json:"dosage,omitempty"`
}

// Prescription is a private prescription intake. Patient-identifying fields
// are held decrypted in memory only; the repository stores ciphertext.
type Prescription struct {
	ID          int64
	UserID      int64
	PatientName string
	DateOfBirth string
	Insurance   string
	Medications []MedicationLine
	Status      PrescriptionStatus
	PickupDate  *time.Time
	CreatedAt   time.Time
	PrintedAt   *time.Time
}
