package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mhartig/dispensary-api/internal/models"
)

func TestSendDirect(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	if err := svcs.Message.SendDirect(ctx, 1, "Hello", "Welcome aboard"); err != nil {
		t.Fatalf("SendDirect failed: %v", err)
	}

	inbox, err := svcs.Message.Inbox(ctx, 1)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if len(inbox) != 1 {
		t.Fatalf("expected 1 message, got %d", len(inbox))
	}
	msg := inbox[0]
	if msg.Kind != models.MessageDirect {
		t.Errorf("expected kind direct, got %s", msg.Kind)
	}
	if msg.Status != models.MessageSent {
		t.Errorf("expected status sent, got %s", msg.Status)
	}
	if msg.SentAt == nil {
		t.Error("expected sent_at to be set")
	}
}

func TestSendDirectValidation(t *testing.T) {
	svcs := newTestServices(t)

	if err := svcs.Message.SendDirect(context.Background(), 1, "", "body"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if err := svcs.Message.SendDirect(context.Background(), 1, "subject", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestQueueNewsletter(t *testing.T) {
	svcs := newTestServices(t)

	msg, err := svcs.Message.QueueNewsletter(context.Background(), "Specials", "New strains in stock")
	if err != nil {
		t.Fatalf("QueueNewsletter failed: %v", err)
	}
	if msg.Kind != models.MessageNewsletter {
		t.Errorf("expected kind newsletter, got %s", msg.Kind)
	}
	if msg.Status != models.MessagePending {
		t.Errorf("expected status pending, got %s", msg.Status)
	}
	if msg.UserID != nil {
		t.Error("broadcast must not target a user")
	}
}

func TestMarkReadOwnership(t *testing.T) {
	svcs := newTestServices(t)
	ctx := context.Background()

	if err := svcs.Message.SendDirect(ctx, 1, "Hello", "body"); err != nil {
		t.Fatalf("SendDirect failed: %v", err)
	}
	inbox, err := svcs.Message.Inbox(ctx, 1)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	msgID := inbox[0].ID

	// Another user cannot mark it read.
	if err := svcs.Message.MarkRead(ctx, 2, msgID); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	if err := svcs.Message.MarkRead(ctx, 1, msgID); err != nil {
		t.Fatalf("MarkRead failed: %v", err)
	}

	inbox, err = svcs.Message.Inbox(ctx, 1)
	if err != nil {
		t.Fatalf("Inbox failed: %v", err)
	}
	if !inbox[0].IsRead {
		t.Error("expected message to be read")
	}
}

func TestMarkReadUnknownMessage(t *testing.T) {
	svcs := newTestServices(t)

	if err := svcs.Message.MarkRead(context.Background(), 1, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
