package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/repository"
)

var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidInput    = errors.New("invalid input")
	ErrAlreadyDecided  = errors.New("registration already decided")
	ErrPasswordTooWeak = errors.New("password must be at least 8 characters")
)

// UserService handles registration and the admin approval workflow.
type UserService struct {
	repos    *repository.Repositories
	messages *MessageService
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(repos *repository.Repositories, messages *MessageService, logger *slog.Logger) *UserService {
	return &UserService{
		repos:    repos,
		messages: messages,
		logger:   logger,
	}
}

// Register creates a pending customer account. An admin has to approve it
// before the user can log in.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") || name == "" {
		return nil, ErrInvalidInput
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooWeak
	}

	existing, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		Status:       models.UserPending,
	}
	if err := s.repos.User.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// GetByID returns a user by ID or ErrNotFound.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// ListPending returns registrations waiting for an admin decision.
func (s *UserService) ListPending(ctx context.Context) ([]*models.User, error) {
	return s.repos.User.ListByStatus(ctx, models.UserPending)
}

// Approve moves a pending registration to approved and drops a welcome
// message into the new user's inbox.
func (s *UserService) Approve(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.decide(ctx, id, models.UserApproved)
	if err != nil {
		return nil, err
	}

	welcome := fmt.Sprintf("Hallo %s, dein Konto wurde freigeschaltet. Du kannst dich jetzt anmelden.", user.Name)
	if err := s.messages.SendDirect(ctx, user.ID, "Konto freigeschaltet", welcome); err != nil {
		// The approval itself succeeded; a missing welcome message is not
		// worth failing the request over.
		s.logger.Warn("failed to send welcome message", "user_id", user.ID, "error", err)
	}

	s.logger.Info("user approved", "user_id", user.ID)
	return user, nil
}

// Reject marks a pending registration as rejected.
func (s *UserService) Reject(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.decide(ctx, id, models.UserRejected)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user rejected", "user_id", user.ID)
	return user, nil
}

func (s *UserService) decide(ctx context.Context, id int64, status models.UserStatus) (*models.User, error) {
	user, err := s.repos.User.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	if user.Status != models.UserPending {
		return nil, ErrAlreadyDecided
	}

	var approvedAt *time.Time
	if status == models.UserApproved {
		now := time.Now()
		approvedAt = &now
	}
	if err := s.repos.User.UpdateStatus(ctx, id, status, approvedAt); err != nil {
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}

	user.Status = status
	user.ApprovedAt = approvedAt
	return user, nil
}

// EnsureAdmin creates the bootstrap admin account on first start. It does
// nothing when an admin already exists or no credentials are configured.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.repos.User.CountAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	now := time.Now()
	admin := &models.User{
		Email:        strings.ToLower(email),
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Status:       models.UserApproved,
		ApprovedAt:   &now,
	}
	if err := s.repos.User.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created", "email", admin.Email)
	return nil
}
