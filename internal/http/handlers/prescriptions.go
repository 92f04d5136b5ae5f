package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/service"
)

// PrescriptionsHandler handles private prescription endpoints.
type PrescriptionsHandler struct {
	prescriptions *service.PrescriptionService
}

// NewPrescriptionsHandler creates a new prescriptions handler.
func NewPrescriptionsHandler(prescriptions *service.PrescriptionService) *PrescriptionsHandler {
	return &PrescriptionsHandler{prescriptions: prescriptions}
}

// MedicationLineBody represents one requested medication.
type MedicationLineBody struct {
	Name     string  `json:"name" minLength:"1" doc:"Medication or strain name"`
	Genetics string  `json:"genetics,omitempty" doc:"Genetics: sativa, indica or hybrid"`
	THC      float64 `json:"thc,omitempty" minimum:"0" doc:"THC content in percent"`
	CBD      float64 `json:"cbd,omitempty" minimum:"0" doc:"CBD content in percent"`
	Quantity float64 `json:"quantity" doc:"Quantity in grams"`
	Dosage   string  `json:"dosage,omitempty" doc:"Dosage instructions"`
}

// PrescriptionOutput represents a prescription in API responses.
type PrescriptionOutput struct {
	ID          int64                `json:"id" doc:"Prescription ID"`
	UserID      int64                `json:"user_id" doc:"Submitting user ID"`
	PatientName string               `json:"patient_name" doc:"Patient name"`
	DateOfBirth string               `json:"date_of_birth" doc:"Patient date of birth"`
	Insurance   string               `json:"insurance,omitempty" doc:"Health insurance"`
	Medications []MedicationLineBody `json:"medications" doc:"Requested medications"`
	Status      string               `json:"status" doc:"Workflow status"`
	PickupDate  string               `json:"pickup_date,omitempty" doc:"Earliest pick-up date"`
	CreatedAt   string               `json:"created_at" doc:"Submission timestamp"`
	PrintedAt   string               `json:"printed_at,omitempty" doc:"Print timestamp"`
}

func prescriptionToOutput(p *models.Prescription) PrescriptionOutput {
	out := PrescriptionOutput{
		ID:          p.ID,
		UserID:      p.UserID,
		PatientName: p.PatientName,
		DateOfBirth: p.DateOfBirth,
		Insurance:   p.Insurance,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	out.Medications = []MedicationLineBody{}
	for _, line := range p.Medications {
		out.Medications = append(out.Medications, MedicationLineBody{
			Name:     line.Name,
			Genetics: line.Genetics,
			THC:      line.THC,
			CBD:      line.CBD,
			Quantity: line.Quantity,
			Dosage:   line.Dosage,
		})
	}
	if p.PickupDate != nil {
		out.PickupDate = p.PickupDate.Format("2006-01-02")
	}
	if p.PrintedAt != nil {
		out.PrintedAt = p.PrintedAt.Format(time.RFC3339)
	}
	return out
}

// SubmitPrescriptionInput represents a prescription intake.
type SubmitPrescriptionInput struct {
	Body struct {
		PatientName string               `json:"patient_name" minLength:"1" doc:"Patient name"`
		DateOfBirth string               `json:"date_of_birth" minLength:"1" doc:"Patient date of birth"`
		Insurance   string               `json:"insurance,omitempty" doc:"Health insurance"`
		Medications []MedicationLineBody `json:"medications" minItems:"1" doc:"Requested medications"`
	}
}

// SubmitPrescriptionOutput represents the stored prescription.
type SubmitPrescriptionOutput struct {
	Body PrescriptionOutput
}

// SubmitPrescription records a new prescription for the authenticated user.
func (h *PrescriptionsHandler) SubmitPrescription(ctx context.Context, input *SubmitPrescriptionInput) (*SubmitPrescriptionOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	in := service.PrescriptionInput{
		PatientName: input.Body.PatientName,
		DateOfBirth: input.Body.DateOfBirth,
		Insurance:   input.Body.Insurance,
	}
	for _, line := range input.Body.Medications {
		in.Medications = append(in.Medications, models.MedicationLine{
			Name:     line.Name,
			Genetics: line.Genetics,
			THC:      line.THC,
			CBD:      line.CBD,
			Quantity: line.Quantity,
			Dosage:   line.Dosage,
		})
	}

	p, err := h.prescriptions.Submit(ctx, claims.UserID, in)
	if errors.Is(err, service.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity("invalid prescription")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to submit prescription")
	}
	return &SubmitPrescriptionOutput{Body: prescriptionToOutput(p)}, nil
}

// ListPrescriptionsOutput represents a prescription listing.
type ListPrescriptionsOutput struct {
	Body struct {
		Prescriptions []PrescriptionOutput `json:"prescriptions" doc:"Prescriptions, newest first"`
	}
}

// ListMyPrescriptions returns the authenticated user's prescriptions.
func (h *PrescriptionsHandler) ListMyPrescriptions(ctx context.Context, input *struct{}) (*ListPrescriptionsOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	list, err := h.prescriptions.ListMine(ctx, claims.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list prescriptions")
	}
	return listOutput(list), nil
}

// ListAllPrescriptions returns every prescription for the back office.
func (h *PrescriptionsHandler) ListAllPrescriptions(ctx context.Context, input *struct{}) (*ListPrescriptionsOutput, error) {
	list, err := h.prescriptions.ListAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list prescriptions")
	}
	return listOutput(list), nil
}

func listOutput(list []*models.Prescription) *ListPrescriptionsOutput {
	output := &ListPrescriptionsOutput{}
	output.Body.Prescriptions = []PrescriptionOutput{}
	for _, p := range list {
		output.Body.Prescriptions = append(output.Body.Prescriptions, prescriptionToOutput(p))
	}
	return output
}

// GetPrescriptionInput represents a get prescription request.
type GetPrescriptionInput struct {
	ID int64 `path:"id" doc:"Prescription ID"`
}

// GetPrescriptionOutput represents a single prescription.
type GetPrescriptionOutput struct {
	Body PrescriptionOutput
}

// GetPrescription retrieves one prescription. Customers only see their own.
func (h *PrescriptionsHandler) GetPrescription(ctx context.Context, input *GetPrescriptionInput) (*GetPrescriptionOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	p, err := h.prescriptions.Get(ctx, input.ID, claims)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("prescription not found")
	}
	if errors.Is(err, service.ErrForbidden) {
		return nil, huma.Error403Forbidden("access denied")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get prescription")
	}
	return &GetPrescriptionOutput{Body: prescriptionToOutput(p)}, nil
}

// PrintPrescriptionInput represents a print request.
type PrintPrescriptionInput struct {
	ID int64 `path:"id" doc:"Prescription ID"`
}

// PrintPrescriptionOutput carries the rendered document and the updated state.
type PrintPrescriptionOutput struct {
	Body struct {
		Prescription PrescriptionOutput `json:"prescription" doc:"Updated prescription"`
		Document     string             `json:"document" doc:"Rendered printable document"`
	}
}

// PrintPrescription renders the printable document and schedules the pick-up.
func (h *PrescriptionsHandler) PrintPrescription(ctx context.Context, input *PrintPrescriptionInput) (*PrintPrescriptionOutput, error) {
	p, doc, err := h.prescriptions.Print(ctx, input.ID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("prescription not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to print prescription")
	}

	output := &PrintPrescriptionOutput{}
	output.Body.Prescription = prescriptionToOutput(p)
	output.Body.Document = doc
	return output, nil
}

// Register wires the prescription routes.
func (h *PrescriptionsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "submit-prescription",
		Method:      http.MethodPost,
		Path:        "/api/v1/prescriptions",
		Summary:     "Submit a prescription",
		Tags:        []string{"prescriptions"},
		Security:    authed,
	}, h.SubmitPrescription)

	huma.Register(api, huma.Operation{
		OperationID: "list-my-prescriptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/prescriptions",
		Summary:     "List own prescriptions",
		Tags:        []string{"prescriptions"},
		Security:    authed,
	}, h.ListMyPrescriptions)

	huma.Register(api, huma.Operation{
		OperationID: "get-prescription",
		Method:      http.MethodGet,
		Path:        "/api/v1/prescriptions/{id}",
		Summary:     "Get a prescription",
		Tags:        []string{"prescriptions"},
		Security:    authed,
	}, h.GetPrescription)

	huma.Register(api, huma.Operation{
		OperationID: "admin-list-prescriptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/prescriptions",
		Summary:     "List all prescriptions",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.ListAllPrescriptions)

	huma.Register(api, huma.Operation{
		OperationID: "print-prescription",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/prescriptions/{id}/print",
		Summary:     "Print a prescription",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.PrintPrescription)
}
