package repository

import (
	"context"
	"testing"

	"github.com/mhartig/dispensary-api/internal/models"
)

func TestProductCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	product := &models.Product{
		Title:       "Amnesia Haze",
		Description: "Sativa-dominant classic",
		Price:       9.50,
		THC:         22.0,
		CBD:         0.5,
		Effects:     "uplifting",
		Genetics:    "sativa",
		IsVisible:   true,
	}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if product.ID == 0 {
		t.Fatal("expected generated ID")
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected product, got nil")
	}
	if got.Title != "Amnesia Haze" {
		t.Errorf("expected title Amnesia Haze, got %s", got.Title)
	}
	if got.THC != 22.0 {
		t.Errorf("expected THC 22.0, got %v", got.THC)
	}
	if !got.IsVisible {
		t.Error("expected product to be visible")
	}
}

func TestProductGetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)

	got, err := repo.GetByID(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing product")
	}
}

func TestProductUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Title: "Gelato", Price: 11.0, IsVisible: false}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	product.Price = 12.5
	product.IsVisible = true
	if err := repo.Update(ctx, product); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Price != 12.5 {
		t.Errorf("expected price 12.5, got %v", got.Price)
	}
	if !got.IsVisible {
		t.Error("expected product to be visible after update")
	}
}

func TestProductDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Title: "Pink Kush", Price: 10.0}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got != nil {
		t.Error("expected product to be gone")
	}
}

func TestProductListVisible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	visible := &models.Product{Title: "Bakerstreet", Price: 9.0, IsVisible: true}
	hidden := &models.Product{Title: "Out of stock strain", Price: 8.0, IsVisible: false}
	for _, p := range []*models.Product{visible, hidden} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	shown, err := repo.ListVisible(ctx)
	if err != nil {
		t.Fatalf("ListVisible failed: %v", err)
	}
	if len(shown) != 1 {
		t.Fatalf("expected 1 visible product, got %d", len(shown))
	}
	if shown[0].Title != "Bakerstreet" {
		t.Errorf("expected Bakerstreet, got %s", shown[0].Title)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 products, got %d", len(all))
	}
}

func TestProductSetImageKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteProductRepository(db)
	ctx := context.Background()

	product := &models.Product{Title: "Wedding Cake", Price: 13.0}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.SetImageKey(ctx, product.ID, "products/01ABC.jpg"); err != nil {
		t.Fatalf("SetImageKey failed: %v", err)
	}

	got, err := repo.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.ImageKey != "products/01ABC.jpg" {
		t.Errorf("expected image key to be set, got %q", got.ImageKey)
	}
}
