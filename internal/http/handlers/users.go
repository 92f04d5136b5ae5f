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

// UsersHandler handles registration, login and the approval workflow.
type UsersHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users *service.UserService, auth *service.AuthService) *UsersHandler {
	return &UsersHandler{users: users, auth: auth}
}

// UserOutput represents a user in API responses.
type UserOutput struct {
	ID         int64  `json:"id" doc:"User ID"`
	Email      string `json:"email" doc:"Email address"`
	Name       string `json:"name" doc:"Display name"`
	Role       string `json:"role" doc:"Role: customer or admin"`
	Status     string `json:"status" doc:"Approval status"`
	CreatedAt  string `json:"created_at" doc:"Registration timestamp"`
	ApprovedAt string `json:"approved_at,omitempty" doc:"Approval timestamp"`
}

func userToOutput(u *models.User) UserOutput {
	out := UserOutput{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.ApprovedAt != nil {
		out.ApprovedAt = u.ApprovedAt.Format(time.RFC3339)
	}
	return out
}

// RegisterInput represents a registration request.
type RegisterInput struct {
	Body struct {
		Email    string `json:"email" format:"email" doc:"Email address"`
		Name     string `json:"name" minLength:"1" doc:"Display name"`
		Password string `json:"password" minLength:"8" doc:"Password"`
	}
}

// RegisterOutput represents a registration response.
type RegisterOutput struct {
	Body UserOutput
}

// RegisterUser creates a pending account awaiting admin approval.
func (h *UsersHandler) RegisterUser(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
	user, err := h.users.Register(ctx, input.Body.Email, input.Body.Name, input.Body.Password)
	if errors.Is(err, service.ErrEmailTaken) {
		return nil, huma.Error409Conflict("email already registered")
	}
	if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrPasswordTooWeak) {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to register")
	}
	return &RegisterOutput{Body: userToOutput(user)}, nil
}

// LoginInput represents a login request.
type LoginInput struct {
	Body struct {
		Email    string `json:"email" doc:"Email address"`
		Password string `json:"password" doc:"Password"`
	}
}

// LoginOutput represents a login response.
type LoginOutput struct {
	Body struct {
		Token string     `json:"token" doc:"Bearer session token"`
		User  UserOutput `json:"user" doc:"Logged in user"`
	}
}

// Login verifies credentials and returns a session token.
func (h *UsersHandler) Login(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
	token, user, err := h.auth.Login(ctx, input.Body.Email, input.Body.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return nil, huma.Error401Unauthorized("invalid email or password")
	case errors.Is(err, service.ErrAccountPending):
		return nil, huma.Error403Forbidden("account pending approval")
	case errors.Is(err, service.ErrAccountRejected):
		return nil, huma.Error403Forbidden("account rejected")
	case err != nil:
		return nil, huma.Error500InternalServerError("failed to log in")
	}

	output := &LoginOutput{}
	output.Body.Token = token
	output.Body.User = userToOutput(user)
	return output, nil
}

// MeOutput represents the current session's user.
type MeOutput struct {
	Body UserOutput
}

// Me returns the authenticated user's account.
func (h *UsersHandler) Me(ctx context.Context, input *struct{}) (*MeOutput, error) {
	claims := getUserClaims(ctx)
	if claims == nil {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	user, err := h.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("user not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get user")
	}
	return &MeOutput{Body: userToOutput(user)}, nil
}

// ListPendingOutput represents pending registrations.
type ListPendingOutput struct {
	Body struct {
		Users []UserOutput `json:"users" doc:"Pending registrations, oldest first"`
	}
}

// ListPending returns registrations awaiting a decision.
func (h *UsersHandler) ListPending(ctx context.Context, input *struct{}) (*ListPendingOutput, error) {
	users, err := h.users.ListPending(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list users")
	}

	output := &ListPendingOutput{}
	output.Body.Users = []UserOutput{}
	for _, u := range users {
		output.Body.Users = append(output.Body.Users, userToOutput(u))
	}
	return output, nil
}

// DecideUserInput represents an approval decision request.
type DecideUserInput struct {
	ID int64 `path:"id" doc:"User ID"`
}

// DecideUserOutput represents the decided user.
type DecideUserOutput struct {
	Body UserOutput
}

// ApproveUser approves a pending registration.
func (h *UsersHandler) ApproveUser(ctx context.Context, input *DecideUserInput) (*DecideUserOutput, error) {
	user, err := h.users.Approve(ctx, input.ID)
	return decisionResult(user, err)
}

// RejectUser rejects a pending registration.
func (h *UsersHandler) RejectUser(ctx context.Context, input *DecideUserInput) (*DecideUserOutput, error) {
	user, err := h.users.Reject(ctx, input.ID)
	return decisionResult(user, err)
}

func decisionResult(user *models.User, err error) (*DecideUserOutput, error) {
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("user not found")
	}
	if errors.Is(err, service.ErrAlreadyDecided) {
		return nil, huma.Error409Conflict("registration already decided")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to update user")
	}
	return &DecideUserOutput{Body: userToOutput(user)}, nil
}

// Register wires the user routes.
func (h *UsersHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/register",
		Summary:     "Register a new account",
		Tags:        []string{"auth"},
	}, h.RegisterUser)

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "Log in",
		Tags:        []string{"auth"},
	}, h.Login)

	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/api/v1/me",
		Summary:     "Get the current user",
		Tags:        []string{"auth"},
		Security:    authed,
	}, h.Me)

	huma.Register(api, huma.Operation{
		OperationID: "list-pending-users",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/users/pending",
		Summary:     "List pending registrations",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.ListPending)

	huma.Register(api, huma.Operation{
		OperationID: "approve-user",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/users/{id}/approve",
		Summary:     "Approve a registration",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.ApproveUser)

	huma.Register(api, huma.Operation{
		OperationID: "reject-user",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/users/{id}/reject",
		Summary:     "Reject a registration",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.RejectUser)
}
