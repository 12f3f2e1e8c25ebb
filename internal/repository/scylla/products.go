package scylla

import (
	"context"
	"fmt"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

// nombre de tentatives LWT avant d'abandonner une mise à jour de stock
const maxStockRetries = 5

type ProductRepository struct {
	session *gocql.Session
}

const productColumns = `product_id, name, slug, description, price, original_price, stock,
	category_id, brand_id, images, is_featured, is_active,
	rating_average, review_count, sold_count, created_at, updated_at`

func productDest(p *models.Product) []any {
	return []any{&p.ID, &p.Name, &p.Slug, &p.Description, &p.Price, &p.OriginalPrice, &p.Stock,
		&p.CategoryID, &p.BrandID, &p.Images, &p.IsFeatured, &p.IsActive,
		&p.RatingAverage, &p.ReviewCount, &p.SoldCount, &p.CreatedAt, &p.UpdatedAt}
}

// List parcourt la table ; le filtrage se fait côté service
func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	iter := r.session.Query(`SELECT ` + productColumns + ` FROM products`).WithContext(ctx).PageSize(500).Iter()
	var out []models.Product
	for {
		var p models.Product
		if !iter.Scan(productDest(&p)...) {
			break
		}
		out = append(out, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	return out, nil
}

func (r *ProductRepository) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	var p models.Product
	err := r.session.Query(`SELECT `+productColumns+` FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(productDest(&p)...)
	if err != nil {
		return nil, wrapNotFound(err, "produit", id)
	}
	return &p, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	return r.session.Query(`INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.Stock,
		p.CategoryID, p.BrandID, p.Images, p.IsFeatured, p.IsActive,
		p.RatingAverage, p.ReviewCount, p.SoldCount, p.CreatedAt, p.UpdatedAt).WithContext(ctx).Exec()
}

// Update réécrit les champs éditables ; stock, notes et ventes ont leurs propres chemins
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	if _, err := r.Get(ctx, p.ID); err != nil {
		return err
	}
	return r.session.Query(`UPDATE products SET name = ?, slug = ?, description = ?, price = ?, original_price = ?,
		category_id = ?, brand_id = ?, images = ?, is_featured = ?, is_active = ?, updated_at = ?
		WHERE product_id = ?`,
		p.Name, p.Slug, p.Description, p.Price, p.OriginalPrice, p.CategoryID, p.BrandID,
		p.Images, p.IsFeatured, p.IsActive, p.UpdatedAt, p.ID).WithContext(ctx).Exec()
}

func (r *ProductRepository) Delete(ctx context.Context, id gocql.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.session.Query(`DELETE FROM products WHERE product_id = ?`, id).WithContext(ctx).Exec()
}

// AdjustStock : compare-and-set sur la colonne stock (LWT), rejoué si un autre écrivain passe avant
func (r *ProductRepository) AdjustStock(ctx context.Context, id gocql.UUID, delta int) (int, error) {
	var (
		name    string
		current int
	)
	if err := r.session.Query(`SELECT name, stock FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(&name, &current); err != nil {
		return 0, wrapNotFound(err, "produit", id)
	}

	for attempt := 0; attempt < maxStockRetries; attempt++ {
		next := current + delta
		if next < 0 {
			return current, fmt.Errorf("%w: %s (reste %d)", errs.ErrOutOfStock, name, current)
		}

		var observed int
		applied, err := r.session.Query(`UPDATE products SET stock = ? WHERE product_id = ? IF stock = ?`,
			next, id, current).WithContext(ctx).SerialConsistency(gocql.Serial).ScanCAS(&observed)
		if err != nil {
			return 0, fmt.Errorf("mise à jour stock %s: %w", id, err)
		}
		if applied {
			return next, nil
		}
		current = observed
	}
	return current, fmt.Errorf("%w: stock de %s modifié en concurrence", errs.ErrConflict, name)
}

func (r *ProductRepository) UpdateRating(ctx context.Context, id gocql.UUID, average float64, count int) error {
	return r.session.Query(`UPDATE products SET rating_average = ?, review_count = ? WHERE product_id = ?`,
		average, count, id).WithContext(ctx).Exec()
}

// AddSold n'a pas besoin d'être exact à l'unité près : lecture puis écriture
func (r *ProductRepository) AddSold(ctx context.Context, id gocql.UUID, quantity int) error {
	var sold int
	if err := r.session.Query(`SELECT sold_count FROM products WHERE product_id = ?`, id).
		WithContext(ctx).Scan(&sold); err != nil {
		return wrapNotFound(err, "produit", id)
	}
	return r.session.Query(`UPDATE products SET sold_count = ? WHERE product_id = ?`, sold+quantity, id).
		WithContext(ctx).Exec()
}
