// Package service contains the business logic layer.
package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhartig/dispensary-api/internal/config"
	"github.com/mhartig/dispensary-api/internal/crypto"
	"github.com/mhartig/dispensary-api/internal/repository"
)

// Shared service errors mapped to HTTP responses by the handlers.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Services holds all service instances.
type Services struct {
	Auth         *AuthService
	User         *UserService
	Product      *ProductService
	Message      *MessageService
	Prescription *PrescriptionService
	Storage      *StorageService
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	authSvc := NewAuthService(cfg, repos, logger)
	messageSvc := NewMessageService(repos, logger)
	userSvc := NewUserService(repos, messageSvc, logger)
	productSvc := NewProductService(repos, storageSvc, logger)
	prescriptionSvc := NewPrescriptionService(repos, encryptor, logger)

	return &Services{
		Auth:         authSvc,
		User:         userSvc,
		Product:      productSvc,
		Message:      messageSvc,
		Prescription: prescriptionSvc,
		Storage:      storageSvc,
	}, nil
}
