package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/mhartig/dispensary-api/internal/config"
	"github.com/mhartig/dispensary-api/internal/database/schema"
	"github.com/mhartig/dispensary-api/internal/http/mw"
	"github.com/mhartig/dispensary-api/internal/repository"
	"github.com/mhartig/dispensary-api/internal/service"
)

// setupAPI builds a humatest API with all application routes registered and
// the auth middleware active.
func setupAPI(t *testing.T) (humatest.TestAPI, *service.Services) {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	logger := slog.New(slog.DiscardHandler)
	if err := schema.ReconcileAll(context.Background(), db, schema.SQLite{}, schema.Tables(), logger); err != nil {
		t.Fatalf("failed to reconcile schema: %v", err)
	}

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		JWTExpiry:     time.Hour,
		EncryptionKey: make([]byte, 32),
	}
	svcs, err := service.NewServices(cfg, repository.NewRepositories(db), logger)
	if err != nil {
		t.Fatalf("failed to create services: %v", err)
	}

	_, api := humatest.New(t)
	api.UseMiddleware(mw.HumaAuth(api, svcs.Auth))

	NewProductsHandler(svcs.Product).Register(api)
	NewUsersHandler(svcs.User, svcs.Auth).Register(api)
	NewMessagesHandler(svcs.Message).Register(api)
	NewPrescriptionsHandler(svcs.Prescription).Register(api)

	return api, svcs
}

func adminToken(t *testing.T, svcs *service.Services) string {
	t.Helper()
	ctx := context.Background()

	if err := svcs.User.EnsureAdmin(ctx, "admin@example.com", "admin password"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	token, _, err := svcs.Auth.Login(ctx, "admin@example.com", "admin password")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	return token
}

func customerToken(t *testing.T, svcs *service.Services, email string) string {
	t.Helper()
	ctx := context.Background()

	user, err := svcs.User.Register(ctx, email, "Customer", "long enough pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svcs.User.Approve(ctx, user.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	token, _, err := svcs.Auth.Login(ctx, email, "long enough pw")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	return token
}

func TestRegisterAndLoginFlow(t *testing.T) {
	api, _ := setupAPI(t)

	resp := api.Post("/api/v1/auth/register", map[string]any{
		"email":    "alice@example.com",
		"name":     "Alice",
		"password": "long enough pw",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("register status = %d: %s", resp.Code, resp.Body.String())
	}

	var registered struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if registered.Status != "pending" {
		t.Errorf("expected pending status, got %s", registered.Status)
	}

	// Pending accounts cannot log in yet.
	resp = api.Post("/api/v1/auth/login", map[string]any{
		"email":    "alice@example.com",
		"password": "long enough pw",
	})
	if resp.Code != http.StatusForbidden {
		t.Errorf("pending login status = %d, want %d", resp.Code, http.StatusForbidden)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	api, _ := setupAPI(t)

	body := map[string]any{"email": "a@example.com", "name": "A", "password": "long enough pw"}
	if resp := api.Post("/api/v1/auth/register", body); resp.Code != http.StatusOK {
		t.Fatalf("register status = %d", resp.Code)
	}
	if resp := api.Post("/api/v1/auth/register", body); resp.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", resp.Code, http.StatusConflict)
	}
}

func TestApprovalFlow(t *testing.T) {
	api, svcs := setupAPI(t)
	admin := adminToken(t, svcs)

	resp := api.Post("/api/v1/auth/register", map[string]any{
		"email":    "bob@example.com",
		"name":     "Bob",
		"password": "long enough pw",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("register status = %d", resp.Code)
	}
	var registered struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &registered); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	resp = api.Get("/api/v1/admin/users/pending", "Authorization: Bearer "+admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("pending list status = %d: %s", resp.Code, resp.Body.String())
	}

	resp = api.Post("/api/v1/admin/users/"+itoa(registered.ID)+"/approve", "Authorization: Bearer "+admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("approve status = %d: %s", resp.Code, resp.Body.String())
	}

	// Approved user can now log in and sees the welcome message.
	resp = api.Post("/api/v1/auth/login", map[string]any{
		"email":    "bob@example.com",
		"password": "long enough pw",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", resp.Code, resp.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("failed to parse login: %v", err)
	}

	resp = api.Get("/api/v1/messages", "Authorization: Bearer "+login.Token)
	if resp.Code != http.StatusOK {
		t.Fatalf("inbox status = %d: %s", resp.Code, resp.Body.String())
	}
	var inbox struct {
		Messages []struct {
			Subject string `json:"subject"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &inbox); err != nil {
		t.Fatalf("failed to parse inbox: %v", err)
	}
	if len(inbox.Messages) != 1 {
		t.Fatalf("expected 1 welcome message, got %d", len(inbox.Messages))
	}
}

func TestProductCRUDAndVisibility(t *testing.T) {
	api, svcs := setupAPI(t)
	admin := adminToken(t, svcs)

	resp := api.Post("/api/v1/admin/products", "Authorization: Bearer "+admin, map[string]any{
		"title":      "Amnesia Haze",
		"price":      9.5,
		"thc":        22.0,
		"genetics":   "sativa",
		"is_visible": true,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse product: %v", err)
	}

	// Visible in the public storefront without auth.
	resp = api.Get("/api/v1/products/" + itoa(created.ID))
	if resp.Code != http.StatusOK {
		t.Errorf("public get status = %d", resp.Code)
	}

	// Hide it; the public route then 404s.
	resp = api.Put("/api/v1/admin/products/"+itoa(created.ID), "Authorization: Bearer "+admin, map[string]any{
		"title":      "Amnesia Haze",
		"price":      9.5,
		"is_visible": false,
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", resp.Code, resp.Body.String())
	}
	resp = api.Get("/api/v1/products/" + itoa(created.ID))
	if resp.Code != http.StatusNotFound {
		t.Errorf("hidden public get status = %d, want %d", resp.Code, http.StatusNotFound)
	}

	// Admin routes are closed to customers.
	customer := customerToken(t, svcs, "c@example.com")
	resp = api.Post("/api/v1/admin/products", "Authorization: Bearer "+customer, map[string]any{
		"title": "X", "price": 1,
	})
	if resp.Code != http.StatusForbidden {
		t.Errorf("customer create status = %d, want %d", resp.Code, http.StatusForbidden)
	}

	resp = api.Delete("/api/v1/admin/products/"+itoa(created.ID), "Authorization: Bearer "+admin)
	if resp.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want %d", resp.Code, http.StatusNoContent)
	}
}

func TestPrescriptionFlow(t *testing.T) {
	api, svcs := setupAPI(t)
	admin := adminToken(t, svcs)
	customer := customerToken(t, svcs, "patient@example.com")

	resp := api.Post("/api/v1/prescriptions", "Authorization: Bearer "+customer, map[string]any{
		"patient_name":  "Max Mustermann",
		"date_of_birth": "01.01.1990",
		"insurance":     "TK",
		"medications": []map[string]any{
			{"name": "Bedrocan", "thc": 22.0, "cbd": 1.0, "quantity": 10.0},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("submit status = %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to parse prescription: %v", err)
	}
	if created.Status != "submitted" {
		t.Errorf("expected submitted status, got %s", created.Status)
	}

	// Another customer cannot read it.
	other := customerToken(t, svcs, "other@example.com")
	resp = api.Get("/api/v1/prescriptions/"+itoa(created.ID), "Authorization: Bearer "+other)
	if resp.Code != http.StatusForbidden {
		t.Errorf("foreign get status = %d, want %d", resp.Code, http.StatusForbidden)
	}

	// Admin prints it; the response carries the rendered document.
	resp = api.Post("/api/v1/admin/prescriptions/"+itoa(created.ID)+"/print", "Authorization: Bearer "+admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("print status = %d: %s", resp.Code, resp.Body.String())
	}
	var printed struct {
		Prescription struct {
			Status     string `json:"status"`
			PickupDate string `json:"pickup_date"`
		} `json:"prescription"`
		Document string `json:"document"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &printed); err != nil {
		t.Fatalf("failed to parse print response: %v", err)
	}
	if printed.Prescription.Status != "printed" {
		t.Errorf("expected printed status, got %s", printed.Prescription.Status)
	}
	if printed.Prescription.PickupDate == "" {
		t.Error("expected pickup date to be set")
	}
	if printed.Document == "" {
		t.Error("expected rendered document")
	}
}

func TestNewsletterEndpoints(t *testing.T) {
	api, svcs := setupAPI(t)
	admin := adminToken(t, svcs)

	resp := api.Post("/api/v1/admin/newsletter", "Authorization: Bearer "+admin, map[string]any{
		"subject": "Specials",
		"body":    "New strains in stock",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("queue status = %d: %s", resp.Code, resp.Body.String())
	}
	var queued struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &queued); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if queued.Status != "pending" {
		t.Errorf("expected pending status, got %s", queued.Status)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
