package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mhartig/dispensary-api/internal/models"
)

func TestRegisterValidation(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		userName string
		password string
		wantErr  error
	}{
		{"missing email", "", "Alice", "long enough pw", ErrInvalidInput},
		{"not an email", "alice", "Alice", "long enough pw", ErrInvalidInput},
		{"missing name", "alice@example.com", "", "long enough pw", ErrInvalidInput},
		{"short password", "alice@example.com", "Alice", "short", ErrPasswordTooWeak},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svcs.User.Register(ctx, tt.email, tt.userName, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	if _, err := svcs.User.Register(ctx, "alice@example.com", "Alice", "long enough pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	// Same address in different case is still taken.
	if _, err := svcs.User.Register(ctx, "Alice@Example.COM", "Alice 2", "long enough pw"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestApproveSendsWelcomeMessage(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	user, err := svcs.User.Register(ctx, "alice@example.com", "Alice", "long enough pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	approved, err := svcs.User.Approve(ctx, user.ID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != models.UserApproved {
		t.Errorf("expected status approved, got %s", approved.Status)
	}
	if approved.ApprovedAt == nil {
		t.Error("expected approved_at to be set")
	}

	inbox, err := svcs.Message.Inbox(ctx, user.ID)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 welcome message, got %d", len(inbox))
	}
	if inbox[0].Subject != "Konto freigeschaltet" {
		t.Errorf("unexpected welcome subject: %s", inbox[0].Subject)
	}
}

func TestApproveTwice(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	user, err := svcs.User.Register(ctx, "alice@example.com", "Alice", "long enough pw")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svcs.User.Approve(ctx, user.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if _, err := svcs.User.Approve(ctx, user.ID); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("expected ErrAlreadyDecided, got %v", err)
	}
}

func TestApproveUnknownUser(t *testing.T) {
	svcs := newTestServices(t)

	if _, err := svcs.User.Approve(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	a, _ := svcs.User.Register(ctx, "a@example.com", "A", "long enough pw")
	if _, err := svcs.User.Register(ctx, "b@example.com", "B", "long enough pw"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := svcs.User.Approve(ctx, a.ID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	pending, err := svcs.User.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending user, got %d", len(pending))
	}
	if pending[0].Email != "b@example.com" {
		t.Errorf("unexpected pending user: %s", pending[0].Email)
	}
}

func TestEnsureAdminIdempotent(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	if err := svcs.User.EnsureAdmin(ctx, "admin@example.com", "admin password"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	// A second call must not create another admin even with different creds.
	if err := svcs.User.EnsureAdmin(ctx, "other@example.com", "other password"); err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}

	if _, err := svcs.User.GetByID(ctx, 1); err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if _, _, err := svcs.Auth.Login(ctx, "other@example.com", "other password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected second admin to not exist, got %v", err)
	}
}

func TestEnsureAdminWithoutCredentials(t *testing.T) {
	svcs := newTestServices(t)

	if err := svcs.User.EnsureAdmin(context.Background(), "", ""); err != nil {
		t.Fatalf("EnsureAdmin without credentials must be a no-op, got %v", err)
	}
}
