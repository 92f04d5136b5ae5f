package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mhartig/dispensary-api/internal/models"
	"github.com/mhartig/dispensary-api/internal/service"
)

// ProductsHandler handles catalog endpoints.
type ProductsHandler struct {
	products *service.ProductService
}

// NewProductsHandler creates a new products handler.
func NewProductsHandler(products *service.ProductService) *ProductsHandler {
	return &ProductsHandler{products: products}
}

// ProductOutput represents a product in API responses.
type ProductOutput struct {
	ID          int64   `json:"id" doc:"Product ID"`
	Title       string  `json:"title" doc:"Strain name"`
	Description string  `json:"description,omitempty" doc:"Product description"`
	Price       float64 `json:"price" doc:"Price per gram in EUR"`
	HasImage    bool    `json:"has_image" doc:"Whether a product image is stored"`
	THC         float64 `json:"thc" doc:"THC content in percent"`
	CBD         float64 `json:"cbd" doc:"CBD content in percent"`
	Effects     string  `json:"effects,omitempty" doc:"Reported effects"`
	Genetics    string  `json:"genetics,omitempty" doc:"Genetics: sativa, indica or hybrid"`
	IsVisible   bool    `json:"is_visible" doc:"Shown in the public storefront"`
	CreatedAt   string  `json:"created_at" doc:"Creation timestamp"`
	UpdatedAt   string  `json:"updated_at" doc:"Last update timestamp"`
}

func productToOutput(p *models.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		HasImage:    p.ImageKey != "",
		THC:         p.THC,
		CBD:         p.CBD,
		Effects:     p.Effects,
		Genetics:    p.Genetics,
		IsVisible:   p.IsVisible,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

// ProductBody carries the editable product fields in requests.
type ProductBody struct {
	Title       string  `json:"title" minLength:"1" doc:"Strain name"`
	Description string  `json:"description,omitempty" doc:"Product description"`
	Price       float64 `json:"price" minimum:"0" doc:"Price per gram in EUR"`
	THC         float64 `json:"thc,omitempty" minimum:"0" doc:"THC content in percent"`
	CBD         float64 `json:"cbd,omitempty" minimum:"0" doc:"CBD content in percent"`
	Effects     string  `json:"effects,omitempty" doc:"Reported effects"`
	Genetics    string  `json:"genetics,omitempty" enum:"sativa,indica,hybrid," doc:"Genetics"`
	IsVisible   bool    `json:"is_visible,omitempty" doc:"Show in the public storefront"`
}

func (b *ProductBody) toInput() service.ProductInput {
	return service.ProductInput{
		Title:       b.Title,
		Description: b.Description,
		Price:       b.Price,
		THC:         b.THC,
		CBD:         b.CBD,
		Effects:     b.Effects,
		Genetics:    b.Genetics,
		IsVisible:   b.IsVisible,
	}
}

// ListProductsOutput represents the storefront catalog response.
type ListProductsOutput struct {
	Body struct {
		Products []ProductOutput `json:"products" doc:"Catalog entries"`
	}
}

// ListProducts returns the public storefront catalog.
func (h *ProductsHandler) ListProducts(ctx context.Context, input *struct{}) (*ListProductsOutput, error) {
	products, err := h.products.ListVisible(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list products")
	}

	output := &ListProductsOutput{}
	output.Body.Products = []ProductOutput{}
	for _, p := range products {
		output.Body.Products = append(output.Body.Products, productToOutput(p))
	}
	return output, nil
}

// ListAllProducts returns the full catalog including hidden entries.
func (h *ProductsHandler) ListAllProducts(ctx context.Context, input *struct{}) (*ListProductsOutput, error) {
	products, err := h.products.ListAll(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list products")
	}

	output := &ListProductsOutput{}
	output.Body.Products = []ProductOutput{}
	for _, p := range products {
		output.Body.Products = append(output.Body.Products, productToOutput(p))
	}
	return output, nil
}

// GetProductInput represents get product request.
type GetProductInput struct {
	ID int64 `path:"id" doc:"Product ID"`
}

// GetProductOutput represents get product response.
type GetProductOutput struct {
	Body ProductOutput
}

// GetProduct retrieves a single storefront product. Hidden products 404 here;
// the back office uses the admin listing instead.
func (h *ProductsHandler) GetProduct(ctx context.Context, input *GetProductInput) (*GetProductOutput, error) {
	p, err := h.products.GetVisible(ctx, input.ID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("product not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get product")
	}

	return &GetProductOutput{Body: productToOutput(p)}, nil
}

// CreateProductInput represents create product request.
type CreateProductInput struct {
	Body ProductBody
}

// CreateProductOutput represents create product response.
type CreateProductOutput struct {
	Body ProductOutput
}

// CreateProduct adds a new catalog entry.
func (h *ProductsHandler) CreateProduct(ctx context.Context, input *CreateProductInput) (*CreateProductOutput, error) {
	p, err := h.products.Create(ctx, input.Body.toInput())
	if errors.Is(err, service.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity("invalid product")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to create product")
	}
	return &CreateProductOutput{Body: productToOutput(p)}, nil
}

// UpdateProductInput represents update product request.
type UpdateProductInput struct {
	ID   int64 `path:"id" doc:"Product ID"`
	Body ProductBody
}

// UpdateProduct replaces the editable fields of a product.
func (h *ProductsHandler) UpdateProduct(ctx context.Context, input *UpdateProductInput) (*GetProductOutput, error) {
	p, err := h.products.Update(ctx, input.ID, input.Body.toInput())
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("product not found")
	}
	if errors.Is(err, service.ErrInvalidInput) {
		return nil, huma.Error422UnprocessableEntity("invalid product")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to update product")
	}
	return &GetProductOutput{Body: productToOutput(p)}, nil
}

// DeleteProductInput represents delete product request.
type DeleteProductInput struct {
	ID int64 `path:"id" doc:"Product ID"`
}

// DeleteProduct removes a catalog entry.
func (h *ProductsHandler) DeleteProduct(ctx context.Context, input *DeleteProductInput) (*struct{}, error) {
	err := h.products.Delete(ctx, input.ID)
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("product not found")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to delete product")
	}
	return &struct{}{}, nil
}

// UploadImageInput represents an image upload. The raw body is the image.
type UploadImageInput struct {
	ID          int64  `path:"id" doc:"Product ID"`
	ContentType string `header:"Content-Type" doc:"Image content type"`
	RawBody     []byte
}

// UploadImageOutput represents image upload response.
type UploadImageOutput struct {
	Body struct {
		Key string `json:"key" doc:"Stored object key"`
	}
}

// UploadImage stores a product image.
func (h *ProductsHandler) UploadImage(ctx context.Context, input *UploadImageInput) (*UploadImageOutput, error) {
	key, err := h.products.UploadImage(ctx, input.ID, input.ContentType, bytes.NewReader(input.RawBody))
	if errors.Is(err, service.ErrNotFound) {
		return nil, huma.Error404NotFound("product not found")
	}
	if errors.Is(err, service.ErrStorageDisabled) {
		return nil, huma.Error503ServiceUnavailable("image storage not configured")
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to upload image")
	}

	output := &UploadImageOutput{}
	output.Body.Key = key
	return output, nil
}

// GetImage streams a stored product image. Registered as a raw chi handler
// since the response is not JSON.
func (h *ProductsHandler) GetImage(w http.ResponseWriter, r *http.Request, id int64) {
	body, contentType, err := h.products.Image(r.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, service.ErrStorageDisabled) {
		http.Error(w, "image storage not configured", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		http.Error(w, "failed to get image", http.StatusInternalServerError)
		return
	}
	defer body.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, body)
}

// Register wires the product routes.
func (h *ProductsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List storefront products",
		Tags:        []string{"products"},
	}, h.ListProducts)

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a storefront product",
		Tags:        []string{"products"},
	}, h.GetProduct)

	huma.Register(api, huma.Operation{
		OperationID: "admin-list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/products",
		Summary:     "List all products",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.ListAllProducts)

	huma.Register(api, huma.Operation{
		OperationID: "create-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/products",
		Summary:     "Create a product",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.CreateProduct)

	huma.Register(api, huma.Operation{
		OperationID: "update-product",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/products/{id}",
		Summary:     "Update a product",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.UpdateProduct)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-product",
		Method:        http.MethodDelete,
		Path:          "/api/v1/admin/products/{id}",
		Summary:       "Delete a product",
		Tags:          []string{"admin"},
		Security:      authed,
		Metadata:      adminOnly,
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteProduct)

	huma.Register(api, huma.Operation{
		OperationID: "upload-product-image",
		Method:      http.MethodPut,
		Path:        "/api/v1/admin/products/{id}/image",
		Summary:     "Upload a product image",
		Tags:        []string{"admin"},
		Security:    authed,
		Metadata:    adminOnly,
	}, h.UploadImage)
}
