package scylla

import (
	"context"
	"fmt"

	"smartshop_back_end/internal/models"

	"github.com/gocql/gocql"
)

type CategoryRepository struct {
	session *gocql.Session
}

const categoryColumns = `category_id, name, slug, description, image_url, parent_id, created_at`

func scanCategory(scan func(...any) bool) (models.Category, bool) {
	var c models.Category
	ok := scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.ParentID, &c.CreatedAt)
	return c, ok
}

func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	iter := r.session.Query(`SELECT ` + categoryColumns + ` FROM categories`).WithContext(ctx).Iter()
	var out []models.Category
	for {
		c, ok := scanCategory(iter.Scan)
		if !ok {
			break
		}
		out = append(out, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	return out, nil
}

func (r *CategoryRepository) Get(ctx context.Context, id gocql.UUID) (*models.Category, error) {
	var c models.Category
	err := r.session.Query(`SELECT `+categoryColumns+` FROM categories WHERE category_id = ?`, id).WithContext(ctx).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.ParentID, &c.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "catégorie", id)
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	return r.session.Query(`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.ParentID, c.CreatedAt).WithContext(ctx).Exec()
}

func (r *CategoryRepository) Update(ctx context.Context, c *models.Category) error {
	if _, err := r.Get(ctx, c.ID); err != nil {
		return err
	}
	return r.Create(ctx, c)
}

func (r *CategoryRepository) Delete(ctx context.Context, id gocql.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.session.Query(`DELETE FROM categories WHERE category_id = ?`, id).WithContext(ctx).Exec()
}

type BrandRepository struct {
	session *gocql.Session
}

const brandColumns = `brand_id, name, slug, description, logo_url, created_at`

func (r *BrandRepository) List(ctx context.Context) ([]models.Brand, error) {
	iter := r.session.Query(`SELECT ` + brandColumns + ` FROM brands`).WithContext(ctx).Iter()
	var (
		out []models.Brand
		b   models.Brand
	)
	for iter.Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt) {
		out = append(out, b)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture marques: %w", err)
	}
	return out, nil
}

func (r *BrandRepository) Get(ctx context.Context, id gocql.UUID) (*models.Brand, error) {
	var b models.Brand
	err := r.session.Query(`SELECT `+brandColumns+` FROM brands WHERE brand_id = ?`, id).WithContext(ctx).
		Scan(&b.ID, &b.Name, &b.Slug, &b.Description, &b.LogoURL, &b.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "marque", id)
	}
	return &b, nil
}

func (r *BrandRepository) Create(ctx context.Context, b *models.Brand) error {
	return r.session.Query(`INSERT INTO brands (`+brandColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Slug, b.Description, b.LogoURL, b.CreatedAt).WithContext(ctx).Exec()
}

func (r *BrandRepository) Update(ctx context.Context, b *models.Brand) error {
	if _, err := r.Get(ctx, b.ID); err != nil {
		return err
	}
	return r.Create(ctx, b)
}

func (r *BrandRepository) Delete(ctx context.Context, id gocql.UUID) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return r.session.Query(`DELETE FROM brands WHERE brand_id = ?`, id).WithContext(ctx).Exec()
}
