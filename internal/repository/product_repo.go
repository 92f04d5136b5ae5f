package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mhartig/dispensary-api/internal/models"
)

// SQLiteProductRepository implements ProductRepository for SQLite/libsql.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLite product repository.
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db}
}

const productColumns = `id, title, description, price, image_key, thc, cbd, effects, genetics, is_visible, created_at, updated_at`

// Create inserts a new product and fills in its generated ID.
func (r *SQLiteProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	isVisible := 0
	if product.IsVisible {
		isVisible = 1
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO products (title, description, price, image_key, thc, cbd, effects, genetics, is_visible, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		product.Title,
		product.Description,
		product.Price,
		product.ImageKey,
		product.THC,
		product.CBD,
		product.Effects,
		product.Genetics,
		isVisible,
		now.Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	product.ID, err = res.LastInsertId()
	return err
}

// GetByID retrieves a product by ID. Returns nil when not found.
func (r *SQLiteProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ?
	`, id)
	return r.scanProduct(row)
}

// Update rewrites all editable fields of an existing product.
func (r *SQLiteProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()

	isVisible := 0
	if product.IsVisible {
		isVisible = 1
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE products SET
			title = ?,
			description = ?,
			price = ?,
			thc = ?,
			cbd = ?,
			effects = ?,
			genetics = ?,
			is_visible = ?,
			updated_at = ?
		WHERE id = ?
	`,
		product.Title,
		product.Description,
		product.Price,
		product.THC,
		product.CBD,
		product.Effects,
		product.Genetics,
		isVisible,
		product.UpdatedAt.Format(time.RFC3339),
		product.ID,
	)
	return err
}

// Delete removes a product by ID.
func (r *SQLiteProductRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}

// ListVisible returns storefront products ordered by title.
func (r *SQLiteProductRepository) ListVisible(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products WHERE is_visible = 1 ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// ListAll returns every product ordered by title.
func (r *SQLiteProductRepository) ListAll(ctx context.Context) ([]*models.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+` FROM products ORDER BY title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// SetImageKey updates the stored object key after an image upload.
func (r *SQLiteProductRepository) SetImageKey(ctx context.Context, id int64, key string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products SET image_key = ?, updated_at = ? WHERE id = ?
	`, key, time.Now().Format(time.RFC3339), id)
	return err
}

func (r *SQLiteProductRepository) scanProduct(row *sql.Row) (*models.Product, error) {
	var p models.Product
	var isVisible int
	var createdAt, updatedAt string

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Description,
		&p.Price,
		&p.ImageKey,
		&p.THC,
		&p.CBD,
		&p.Effects,
		&p.Genetics,
		&isVisible,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.IsVisible = isVisible == 1
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &p, nil
}

func (r *SQLiteProductRepository) scanProducts(rows *sql.Rows) ([]*models.Product, error) {
	var products []*models.Product

	for rows.Next() {
		var p models.Product
		var isVisible int
		var createdAt, updatedAt string

		err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Description,
			&p.Price,
			&p.ImageKey,
			&p.THC,
			&p.CBD,
			&p.Effects,
			&p.Genetics,
			&isVisible,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, err
		}

		p.IsVisible = isVisible == 1
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		products = append(products, &p)
	}

	return products, rows.Err()
}
