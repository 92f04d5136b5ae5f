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

// MessagesHandler handles the customer inbox and newsletter endpoints.
type MessagesHandler struct {
	messages *service.MessageService
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(messages *service.MessageService) *MessagesHandler {
	return &MessagesHandler{messages: messages}
}

// MessageOutput represents an inbox message in API responses.
type MessageOutput struct {
	ID        int64  `json:"id" doc:"Message ID"`
	Subject   string `json:"subject" doc:"Subject line"`
	Body      string `json:"body" doc:"Message body"`
	Kind      string `json:"kind" doc:"Kind: direct or newsletter"`
	IsRead    bool   `json:"is_read" doc:"Whether the message was read"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp"`
}

func messageToOutput(m *models.Message) MessageOutput {
	return MessageOutput{
		ID:        m.ID,
		Subject:   m.Subject,
		Body:      m.Body,
		Kind:      string(m.Kind),
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
}

// InboxOutput represents the inbox response.
type InboxOutput struct {
	Body struct {
		Messages []MessageOutput `json:"messages" doc:"Inbox messages, newest first"`
	}
}

// Inbox returns the authenticated user's messages.
func (h *MessagesHandler) Inbox(ctx context.Context, input *struct{}) (*InboxOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	messages, err := h.messages.Inbox(ctx, claims.UserID)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list messages")
	}

	output := &InboxOutput{}
	output.Body.Messages = []MessageOutput{}
	for _, m := range messages {
		output.Body.Messages = append(output.Body.Messages, messageToOutput(m))
	}
	return output, nil
}

// MarkReadInput represents a mark-read request.
type MarkReadInput struct {
	ID int64 `path:"id" doc:"Message ID"`
}

// MarkRead marks one of the user's messages as read.
func (h *MessagesHandler) MarkRead(ctx context.Context, input *MarkReadInput) (*struct{}, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	err := h.messages.MarkRead(ctx, claims.UserID, input.ID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("message not found")
	}
	if errors.Is(err, service.ErrForbidden) {
		return nil, huma.Error403Forbidden("access denied")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to mark message read")
	}
	return &struct{}{}, nil
}

// SendMessageInput represents an admin direct message.
type SendMessageInput struct {
	Body struct {
		UserID  int64  `json:"user_id" doc:"Recipient user ID"`
		Subject string `json:"subject" minLength:"1" doc:"Subject line"`
		Message string `json:"body" minLength:"1" doc:"Message body"`
	}
}

// SendMessage delivers a direct message into one user's inbox.
func (h *MessagesHandler) SendMessage(ctx context.Context, input *SendMessageInput) (*struct{}, error) {
	err := h.messages.SendDirect(ctx, input.Body.UserID, input.Body.Subject, input.Body.Message)
	if errors.Is(err, service.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity("invalid message")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to send message")
	}
	return &struct{}{}, nil
}

// QueueNewsletterInput represents a newsletter broadcast request.
type QueueNewsletterInput struct {
	Body struct {
		Subject string `json:"subject" minLength:"1" doc:"Subject line"`
		Message string `json:"body" minLength:"1" doc:"Newsletter body"`
	}
}

// QueueNewsletterOutput represents the queued broadcast.
type QueueNewsletterOutput struct {
	Body struct {
		ID     int64  `json:"id" doc:"Broadcast message ID"`
		Status string `json:"status" doc:"Delivery status"`
	}
}

// QueueNewsletter enqueues a broadcast for the newsletter worker.
func (h *MessagesHandler) QueueNewsletter(ctx context.Context, input *QueueNewsletterInput) (*QueueNewsletterOutput, error) {
	msg, err := h.messages.QueueNewsletter(ctx, input.Body.Subject, input.Body.Message)
	if errors.Is(err, service.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity("invalid newsletter")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to queue newsletter")
	}

	output := &QueueNewsletterOutput{}
	output.Body.ID = msg.ID
	output.Body.Status = string(msg.Status)
	return output, nil
}

// Register wires the message routes.
func (h *MessagesHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "inbox",
		Method:      http.MethodGet,
		Path:        "/api/v1/messages",
		Summary:     "List inbox messages",
		Tags:        []string{"messages"},
		Security:    authed,
	}, h.Inbox)

	huma.Register(api, huma.Operation{
		OperationID:   "mark-message-read",
		Method:        http.MethodPost,
		Path:          "/api/v1/messages/{id}/read",
		Summary:       "Mark a message as read",
		Tags:          []string{"messages"},
		Security:      authed,
		DefaultStatus: http.StatusNoContent,
	}, h.MarkRead)

	huma.Register(api, huma.Operation{
		OperationID:   "send-message",
		Method:        http.MethodPost,
		Path:          "/api/v1/admin/messages",
		Summary:       "Send a direct message",
		Tags:          []string{"admin"},
		Security:      authed,
		Metadata:      adminOnly,
		DefaultStatus: http.StatusNoContent,
	}, h.SendMessage)

	huma.Register(api, huma.Operation{
		OperationID: "queue-newsletter",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/newsletter",
		Summary:     "Queue a newsletter broadcast",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.QueueNewsletter)
}
