package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/mhartig/dispensary-api/internal/crypto"
	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/repository"
	"github.com/mhartig/dispensary-api/internal/workdays"
)

// PrescriptionService handles private prescription intake, printing and the
// pick-up schedule. Patient-identifying fields are encrypted before they
// reach the repository and decrypted on the way out.
type PrescriptionService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	logger    *slog.Logger
	now       func() time.Time
}

// NewPrescriptionService creates a new prescription service.
func NewPrescriptionService(repos *repository.Repositories, encryptor *crypto.Encryptor, logger *slog.Logger) *PrescriptionService {
	return &PrescriptionService{
		repos:     repos,
		encryptor: encryptor,
		logger:    logger,
		now:       time.Now,
	}
}

// PrescriptionInput carries a prescription intake.
type PrescriptionInput struct {
	PatientName string
	DateOfBirth string
	Insurance   string
	Medications []models.MedicationLine
}

// Submit records a new prescription for a user.
func (s *PrescriptionService) Submit(ctx context.Context, userID int64, in PrescriptionInput) (*models.Prescription, error) {
	if strings.TrimSpace(in.PatientName) == "" || strings.TrimSpace(in.DateOfBirth) == "" {
		return nil, ErrInvalidInput
	}
	if len(in.Medications) == 0 {
		return nil, ErrInvalidInput
	}
	for _, line := range in.Medications {
		if strings.TrimSpace(line.Name) == "" || line.Quantity <= 0 {
			return nil, ErrInvalidInput
		}
	}

	p := &models.Prescription{
		UserID:      userID,
		PatientName: in.PatientName,
		DateOfBirth: in.DateOfBirth,
		Insurance:   in.Insurance,
		Medications: in.Medications,
		Status:      models.PrescriptionSubmitted,
	}
	if err := s.encrypt(p); err != nil {
		return nil, err
	}
	if err := s.repos.Prescription.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	if err := s.decrypt(p); err != nil {
		return nil, err
	}

	s.logger.Info("prescription submitted", "prescription_id", p.ID, "user_id", userID)
	return p, nil
}

// Get returns one prescription, decrypted. Non-admins only see their own.
func (s *PrescriptionService) Get(ctx context.Context, id int64, claims *TokenClaims) (*models.Prescription, error) {
	p, err := s.repos.Prescription.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if !claims.IsAdmin() && p.UserID != claims.UserID {
		return nil, ErrForbidden
	}
	if err := s.decrypt(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListMine returns a user's own prescriptions, decrypted.
func (s *PrescriptionService) ListMine(ctx context.Context, userID int64) ([]*models.Prescription, error) {
	list, err := s.repos.Prescription.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return s.decryptAll(list)
}

// ListAll returns every prescription, decrypted, for the back office.
func (s *PrescriptionService) ListAll(ctx context.Context) ([]*models.Prescription, error) {
	list, err := s.repos.Prescription.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list prescriptions: %w", err)
	}
	return s.decryptAll(list)
}

// Print renders the printable prescription document, marks the prescription
// printed and schedules the pick-up on the next German workday. Reprinting an
// already printed prescription renders the same document again and keeps the
// original pick-up date.
func (s *PrescriptionService) Print(ctx context.Context, id int64) (*models.Prescription, string, error) {
	p, err := s.repos.Prescription.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get prescription: %w", err)
	}
	if p == nil {
		return nil, "", ErrNotFound
	}
	if err := s.decrypt(p); err != nil {
		return nil, "", err
	}

	if p.Status != models.PrescriptionPrinted {
		printedAt := s.now()
		next := workdays.Next(printedAt)
		// Pick-up is a calendar date, not a time of day.
		pickup := time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
		if err := s.repos.Prescription.MarkPrinted(ctx, id, printedAt, pickup); err != nil {
			return nil, "", fmt.Errorf("failed to mark prescription printed: %w", err)
		}
		p.Status = models.PrescriptionPrinted
		p.PrintedAt = &printedAt
		p.PickupDate = &pickup
		s.logger.Info("prescription printed", "prescription_id", id, "pickup_date", pickup.Format("2006-01-02"))
	}

	doc, err := s.render(p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to render prescription: %w", err)
	}
	return p, doc, nil
}

func (s *PrescriptionService) encrypt(p *models.Prescription) error {
	var err error
	if p.PatientName, err = s.encryptor.Encrypt(p.PatientName); err != nil {
		return fmt.Errorf("failed to encrypt patient data: %w", err)
	}
	if p.DateOfBirth, err = s.encryptor.Encrypt(p.DateOfBirth); err != nil {
		return fmt.Errorf("failed to encrypt patient data: %w", err)
	}
	if p.Insurance, err = s.encryptor.Encrypt(p.Insurance); err != nil {
		return fmt.Errorf("failed to encrypt patient data: %w", err)
	}
	return nil
}

func (s *PrescriptionService) decrypt(p *models.Prescription) error {
	var err error
	if p.PatientName, err = s.encryptor.Decrypt(p.PatientName); err != nil {
		return fmt.Errorf("failed to decrypt patient data: %w", err)
	}
	if p.DateOfBirth, err = s.encryptor.Decrypt(p.DateOfBirth); err != nil {
		return fmt.Errorf("failed to decrypt patient data: %w", err)
	}
	if p.Insurance, err = s.encryptor.Decrypt(p.Insurance); err != nil {
		return fmt.Errorf("failed to decrypt patient data: %w", err)
	}
	return nil
}

func (s *PrescriptionService) decryptAll(list []*models.Prescription) ([]*models.Prescription, error) {
	for _, p := range list {
		if err := s.decrypt(p); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// germanDate formats times the way the printed form expects, e.g. 24.08.2026.
func germanDate(t time.Time) string {
	return t.Format("02.01.2006")
}

var prescriptionTemplate = template.Must(template.New("prescription").Funcs(template.FuncMap{
	"date": germanDate,
}).Parse(`PRIVATREZEPT Nr. {{.ID}}
=====================================

Patient:        {{.PatientName}}
Geburtsdatum:   {{.DateOfBirth}}
Krankenkasse:   {{if .Insurance}}{{.Insurance}}{{else}}privat{{end}}
Ausgestellt am: {{date .CreatedAt}}

Medikation:
{{range .Medications}}  - {{.Name}}{{if .Genetics}} ({{.Genetics}}){{end}}, THC {{printf "%.1f" .THC}}% / CBD {{printf "%.1f" .CBD}}%, Menge {{printf "%g" .Quantity}} g{{if .Dosage}}, Dosierung: {{.Dosage}}{{end}}
{{end}}
{{- if .PickupDate}}
Abholung ab:    {{.PickupDate}}
{{- end}}
{{- if .PrintedAt}}
Gedruckt am:    {{.PrintedAt}}
{{- end}}
`))

func (s *PrescriptionService) render(p *models.Prescription) (string, error) {
	data := struct {
		ID          int64
		PatientName string
		DateOfBirth string
		Insurance   string
		CreatedAt   time.Time
		Medications []models.MedicationLine
		PickupDate  string
		PrintedAt   string
	}{
		ID:          p.ID,
		PatientName: p.PatientName,
		DateOfBirth: p.DateOfBirth,
		Insurance:   p.Insurance,
		CreatedAt:   p.CreatedAt,
		Medications: p.Medications,
	}
	if p.PickupDate != nil {
		data.PickupDate = germanDate(*p.PickupDate)
	}
	if p.PrintedAt != nil {
		data.PrintedAt = germanDate(*p.PrintedAt)
	}

	var b strings.Builder
	if err := prescriptionTemplate.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
