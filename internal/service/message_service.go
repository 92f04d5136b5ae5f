package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/repository"
)

// MessageService handles the customer inbox and newsletter broadcasts.
type MessageService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewMessageService creates a new message service.
func NewMessageService(repos *repository.Repositories, logger *slog.Logger) *MessageService {
	return &MessageService{
		repos:  repos,
		logger: logger,
	}
}

// SendDirect delivers a message straight into one user's inbox.
func (s *MessageService) SendDirect(ctx context.Context, userID int64, subject, body string) error {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return ErrInvalidInput
	}

	now := time.Now()
	msg := &models.Message{
		UserID:  &userID,
		Subject: subject,
		Body:    body,
		Kind:    models.MessageDirect,
		Status:  models.MessageSent,
		SentAt:  &now,
	}
	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// QueueNewsletter enqueues a broadcast. The newsletter worker picks it up and
// fans it out to every approved user's inbox.
func (s *MessageService) QueueNewsletter(ctx context.Context, subject, body string) (*models.Message, error) {
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return nil, ErrInvalidInput
	}

	msg := &models.Message{
		Subject: subject,
		Body:    body,
		Kind:    models.MessageNewsletter,
		Status:  models.MessagePending,
	}
	if err := s.repos.Message.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to queue newsletter: %w", err)
	}

	s.logger.Info("newsletter queued", "message_id", msg.ID, "subject", msg.Subject)
	return msg, nil
}

// Inbox returns a user's messages, newest first.
func (s *MessageService) Inbox(ctx context.Context, userID int64) ([]*models.Message, error) {
	return s.repos.Message.ListByUserID(ctx, userID)
}

// MarkRead marks an inbox message as read. Users can only touch their own
// messages.
func (s *MessageService) MarkRead(ctx context.Context, userID, messageID int64) error {
	msg, err := s.repos.Message.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("failed to get message: %w", err)
	}
	if msg == nil {
		return ErrNotFound
	}
	if msg.UserID == nil || *msg.UserID != userID {
		return ErrForbidden
	}

	return s.repos.Message.MarkRead(ctx, messageID)
}
