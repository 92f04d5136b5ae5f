package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/repository"
)

var ErrStorageDisabled = errors.New("object storage not configured")

// ProductService handles the catalog.
type ProductService struct {
	repos   *repository.Repositories
	storage *StorageService
	logger  *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(repos *repository.Repositories, storage *StorageService, logger *slog.Logger) *ProductService {
	return &ProductService{
		repos:   repos,
		storage: storage,
		logger:  logger,
	}
}

// ProductInput carries the editable fields of a catalog entry.
type ProductInput struct {
	Title       string
	Description string
	Price       float64
	THC         float64
	CBD         float64
	Effects     string
	Genetics    string
	IsVisible   bool
}

func (in *ProductInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrInvalidInput
	}
	if in.Price < 0 || in.THC < 0 || in.CBD < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Create adds a new catalog entry.
func (s *ProductService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       in.Price,
		THC:         in.THC,
		CBD:         in.CBD,
		Effects:     in.Effects,
		Genetics:    in.Genetics,
		IsVisible:   in.IsVisible,
	}
	if err := s.repos.Product.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("product created", "product_id", product.ID, "title", product.Title)
	return product, nil
}

// GetByID returns a product or ErrNotFound.
func (s *ProductService) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.repos.Product.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, ErrNotFound
	}
	return product, nil
}

// GetVisible returns a product only when it is shown in the storefront.
func (s *ProductService) GetVisible(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsVisible {
		return nil, ErrNotFound
	}
	return product, nil
}

// Update replaces the editable fields of an existing product.
func (s *ProductService) Update(ctx context.Context, id int64, in ProductInput) (*models.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	product.Title = strings.TrimSpace(in.Title)
	product.Description = in.Description
	product.Price = in.Price
	product.THC = in.THC
	product.CBD = in.CBD
	product.Effects = in.Effects
	product.Genetics = in.Genetics
	product.IsVisible = in.IsVisible

	if err := s.repos.Product.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return product, nil
}

// Delete removes a product and its stored image, if any.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	product, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.ImageKey != "" && s.storage.IsEnabled() {
		if err := s.storage.DeleteObject(ctx, product.ImageKey); err != nil {
			s.logger.Warn("failed to delete product image", "product_id", id, "key", product.ImageKey, "error", err)
		}
	}

	if err := s.repos.Product.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// ListVisible returns the public storefront catalog.
func (s *ProductService) ListVisible(ctx context.Context) ([]*models.Product, error) {
	return s.repos.Product.ListVisible(ctx)
}

// ListAll returns every product, including hidden ones.
func (s *ProductService) ListAll(ctx context.Context) ([]*models.Product, error) {
	return s.repos.Product.ListAll(ctx)
}

// UploadImage stores a product image and records its object key. A previous
// image is deleted from the bucket.
func (s *ProductService) UploadImage(ctx context.Context, id int64, contentType string, body io.Reader) (string, error) {
	if !s.storage.IsEnabled() {
		return "", ErrStorageDisabled
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	key, err := s.storage.UploadProductImage(ctx, id, contentType, body)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if err := s.repos.Product.SetImageKey(ctx, id, key); err != nil {
		return "", fmt.Errorf("failed to record image key: %w", err)
	}

	if product.ImageKey != "" && product.ImageKey != key {
		if err := s.storage.DeleteObject(ctx, product.ImageKey); err != nil {
			s.logger.Warn("failed to delete old product image", "product_id", id, "key", product.ImageKey, "error", err)
		}
	}

	return key, nil
}

// Image streams a stored product image. The caller must close the reader.
func (s *ProductService) Image(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	if !s.storage.IsEnabled() {
		return nil, "", ErrStorageDisabled
	}

	product, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if product.ImageKey == "" {
		return nil, "", ErrNotFound
	}

	return s.storage.GetObject(ctx, product.ImageKey)
}
