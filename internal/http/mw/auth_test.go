package mw

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/mhartig/dispensary-api/internal/config"
	"github.com/mhartig/dispensary-api/internal/database/schema"
	"github.com/mhartig/dispensary-api/internal/repository"
	"github.com/mhartig/dispensary-api/internal/service"
)

func TestGetUserClaims(t *testing.T) {
	t.Run("claims present", func(t *testing.T) {
		expected := &service.TokenClaims{UserID: 42, Email: "test@example.com"}
		ctx := context.WithValue(context.Background(), UserClaimsKey, expected)

		got := GetUserClaims(ctx)
		if got == nil {
			t.Fatal("expected claims to be present")
		}
		if got.UserID != 42 {
			t.Errorf("UserID = %d, want 42", got.UserID)
		}
	})

	t.Run("no claims", func(t *testing.T) {
		if got := GetUserClaims(context.Background()); got != nil {
			t.Error("expected nil claims for empty context")
		}
	})

	t.Run("wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), UserClaimsKey, "not claims")
		if got := GetUserClaims(ctx); got != nil {
			t.Error("expected nil claims for wrong type")
		}
	})
}

// setupAuthAPI builds a humatest API with the auth middleware and three
// probe operations: public, authenticated and admin-only.
func setupAuthAPI(t *testing.T) (humatest.TestAPI, *service.Services) {
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
	api.UseMiddleware(HumaAuth(api, svcs.Auth))

	type probeOutput struct {
		Body struct {
			UserID int64 `json:"user_id"`
		}
	}
	probe := func(ctx context.Context, input *struct{}) (*probeOutput, error) {
		out := &probeOutput{}
		if claims := GetUserClaims(ctx); claims != nil {
			out.Body.UserID = claims.UserID
		}
		return out, nil
	}

	huma.Register(api, huma.Operation{
		OperationID: "public-probe",
		Method:      http.MethodGet,
		Path:        "/public",
	}, probe)

	huma.Register(api, huma.Operation{
		OperationID: "authed-probe",
		Method:      http.MethodGet,
		Path:        "/authed",
		Security:    []map[string][]string{{SecurityScheme: {}}},
	}, probe)

	huma.Register(api, huma.Operation{
		OperationID: "admin-probe",
		Method:      http.MethodGet,
		Path:        "/admin",
		Security:    []map[string][]string{{SecurityScheme: {}}},
		Metadata:    map[string]any{MetaKeyRequireAdmin: true},
	}, probe)

	return api, svcs
}

func loginAs(t *testing.T, svcs *service.Services, email, password string, approve bool) string {
	t.Helper()
	ctx := context.Background()

	user, err := svcs.User.Register(ctx, email, "Test", password)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if approve {
		if _, err := svcs.User.Approve(ctx, user.ID); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
	}

	token, _, err := svcs.Auth.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return token
}

func TestHumaAuthPublicRoute(t *testing.T) {
	api, _ := setupAuthAPI(t)

	resp := api.Get("/public")
	if resp.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.Code, http.StatusOK)
	}
}

func TestHumaAuthMissingHeader(t *testing.T) {
	api, _ := setupAuthAPI(t)

	resp := api.Get("/authed")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.Code, http.StatusUnauthorized)
	}
}

func TestHumaAuthInvalidToken(t *testing.T) {
	api, _ := setupAuthAPI(t)

	resp := api.Get("/authed", "Authorization: Bearer not-a-token")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.Code, http.StatusUnauthorized)
	}
}

func TestHumaAuthValidToken(t *testing.T) {
	api, svcs := setupAuthAPI(t)
	token := loginAs(t, svcs, "alice@example.com", "long enough pw", true)

	resp := api.Get("/authed", "Authorization: Bearer "+token)
	if resp.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", resp.Code, http.StatusOK, resp.Body.String())
	}
}

func TestHumaAuthAdminGate(t *testing.T) {
	api, svcs := setupAuthAPI(t)

	customerToken := loginAs(t, svcs, "alice@example.com", "long enough pw", true)
	resp := api.Get("/admin", "Authorization: Bearer "+customerToken)
	if resp.Code != http.StatusForbidden {
		t.Errorf("customer on admin route: status = %d, want %d", resp.Code, http.StatusForbidden)
	}

	if err := svcs.User.EnsureAdmin(context.Background(), "admin@example.com", "admin password"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	adminToken, _, err := svcs.Auth.Login(context.Background(), "admin@example.com", "admin password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	resp = api.Get("/admin", "Authorization: Bearer "+adminToken)
	if resp.Code != http.StatusOK {
		t.Errorf("admin on admin route: status = %d, want %d", resp.Code, http.StatusOK)
	}
}
