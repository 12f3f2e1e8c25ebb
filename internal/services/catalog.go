package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"smartshop_back_end/internal/auth"
	"smartshop_back_end/internal/cache"
	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/search"
	"smartshop_back_end/internal/utils"

	"github.com/gocql/gocql"
	"github.com/rs/zerolog/log"
)

const (
	categoriesCacheKey = "catalog:categories"
	brandsCacheKey     = "catalog:brands"
)

// Tris acceptés par products(sort:)
const (
	SortNewest      = "newest"
	SortPriceAsc    = "price_asc"
	SortPriceDesc   = "price_desc"
	SortNameAsc     = "name_asc"
	SortRating      = "rating"
	SortBestSelling = "best_selling"
)

type CatalogService struct {
	deps Deps
}

// --- Lecture produits ---

func (s *CatalogService) ListProducts(ctx context.Context, f models.ProductFilter, sortBy string, limit, offset int) (*models.ProductPage, error) {
	if !auth.FromContext(ctx).IsStaff() {
		f.IncludeInactive = false
	}
	all, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]models.Product, 0, len(all))
	for _, p := range all {
		if matchProduct(p, f) {
			matched = append(matched, p)
		}
	}
	if err := sortProducts(matched, sortBy); err != nil {
		return nil, err
	}
	return &models.ProductPage{Items: paginate(matched, limit, offset), Total: len(matched)}, nil
}

func matchProduct(p models.Product, f models.ProductFilter) bool {
	switch {
	case !p.IsActive && !f.IncludeInactive:
		return false
	case f.CategoryID != nil && p.CategoryID != *f.CategoryID:
		return false
	case f.BrandID != nil && p.BrandID != *f.BrandID:
		return false
	case f.MinPrice != nil && p.Price < *f.MinPrice:
		return false
	case f.MaxPrice != nil && p.Price > *f.MaxPrice:
		return false
	case f.IsFeatured != nil && p.IsFeatured != *f.IsFeatured:
		return false
	case f.InStock != nil && p.InStock() != *f.InStock:
		return false
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		q = utils.Fold(q)
		return strings.Contains(utils.Fold(p.Name), q) || strings.Contains(utils.Fold(p.Description), q)
	}
	return true
}

// sortProducts trie en place ; l'id départage pour une pagination stable
func sortProducts(items []models.Product, sortBy string) error {
	var less func(a, b models.Product) (bool, bool)
	switch sortBy {
	case "", SortNewest:
		less = func(a, b models.Product) (bool, bool) { return a.CreatedAt.After(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt) }
	case SortPriceAsc:
		less = func(a, b models.Product) (bool, bool) { return a.Price < b.Price, a.Price == b.Price }
	case SortPriceDesc:
		less = func(a, b models.Product) (bool, bool) { return a.Price > b.Price, a.Price == b.Price }
	case SortNameAsc:
		less = func(a, b models.Product) (bool, bool) {
			na, nb := utils.Fold(a.Name), utils.Fold(b.Name)
			return na < nb, na == nb
		}
	case SortRating:
		less = func(a, b models.Product) (bool, bool) {
			return a.RatingAverage > b.RatingAverage, a.RatingAverage == b.RatingAverage
		}
	case SortBestSelling:
		less = func(a, b models.Product) (bool, bool) { return a.SoldCount > b.SoldCount, a.SoldCount == b.SoldCount }
	default:
		return invalid("tri inconnu %q", sortBy)
	}

	sort.SliceStable(items, func(i, j int) bool {
		lt, eq := less(items[i], items[j])
		if eq {
			return items[i].ID.String() < items[j].ID.String()
		}
		return lt
	})
	return nil
}

// Product masque les produits inactifs aux clients
func (s *CatalogService) Product(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	p, err := s.deps.Store.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive && !auth.FromContext(ctx).IsStaff() {
		return nil, fmt.Errorf("%w: produit %s", errs.ErrNotFound, id)
	}
	return p, nil
}

func (s *CatalogService) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	all, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Slug == slug && (all[i].IsActive || auth.FromContext(ctx).IsStaff()) {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: produit %s", errs.ErrNotFound, slug)
}

func (s *CatalogService) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	featured := true
	page, err := s.ListProducts(ctx, models.ProductFilter{IsFeatured: &featured}, SortNewest, limit, 0)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// RelatedProducts : même catégorie d'abord, puis même marque
func (s *CatalogService) RelatedProducts(ctx context.Context, productID gocql.UUID, limit int) ([]models.Product, error) {
	limit, _ = Page(limit, 0)
	ref, err := s.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	all, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := sortProducts(all, SortBestSelling); err != nil {
		return nil, err
	}

	var sameCategory, sameBrand []models.Product
	for _, p := range all {
		if p.ID == ref.ID || !p.IsActive {
			continue
		}
		switch {
		case p.CategoryID == ref.CategoryID:
			sameCategory = append(sameCategory, p)
		case !models.IsZeroID(ref.BrandID) && p.BrandID == ref.BrandID:
			sameBrand = append(sameBrand, p)
		}
	}
	related := append(sameCategory, sameBrand...)
	if len(related) > limit {
		related = related[:limit]
	}
	return related, nil
}

// --- Recherche ---

// SearchProducts interroge Elasticsearch, ou le filtre catalogue si le moteur est indisponible
func (s *CatalogService) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}
	limit, _ = Page(limit, 0)

	ids, err := s.deps.Search.Search(ctx, query, limit)
	if err != nil {
		if !errors.Is(err, errs.ErrUnavailable) {
			return nil, err
		}
		page, err := s.ListProducts(ctx, models.ProductFilter{Search: query}, SortBestSelling, limit, 0)
		if err != nil {
			return nil, err
		}
		return page.Items, nil
	}

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		p, err := s.deps.Store.Products.Get(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.IsActive {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *CatalogService) SearchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}
	products, err := s.SearchProducts(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names, nil
}

// --- Catégories et marques (cache Redis) ---

func (s *CatalogService) Categories(ctx context.Context) ([]models.Category, error) {
	var cached []models.Category
	if s.deps.Cache.Get(ctx, categoriesCacheKey, &cached) {
		return cached, nil
	}
	list, err := s.deps.Store.Categories.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return utils.Fold(list[i].Name) < utils.Fold(list[j].Name) })
	s.deps.Cache.Set(ctx, categoriesCacheKey, list, cache.CatalogTTL)
	return list, nil
}

func (s *CatalogService) Category(ctx context.Context, id gocql.UUID) (*models.Category, error) {
	return s.deps.Store.Categories.Get(ctx, id)
}

func (s *CatalogService) Brands(ctx context.Context) ([]models.Brand, error) {
	var cached []models.Brand
	if s.deps.Cache.Get(ctx, brandsCacheKey, &cached) {
		return cached, nil
	}
	list, err := s.deps.Store.Brands.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return utils.Fold(list[i].Name) < utils.Fold(list[j].Name) })
	s.deps.Cache.Set(ctx, brandsCacheKey, list, cache.CatalogTTL)
	return list, nil
}

func (s *CatalogService) Brand(ctx context.Context, id gocql.UUID) (*models.Brand, error) {
	return s.deps.Store.Brands.Get(ctx, id)
}

// --- Administration produits ---

// ProductInput : un champ nil n'est pas modifié
type ProductInput struct {
	Name          *string
	Slug          *string
	Description   *string
	Price         *int64
	OriginalPrice *int64
	Stock         *int
	CategoryID    *gocql.UUID
	BrandID       *gocql.UUID
	Images        []string
	IsFeatured    *bool
	IsActive      *bool
}

func (in ProductInput) apply(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = *in.CategoryID
	}
	if in.BrandID != nil {
		p.BrandID = *in.BrandID
	}
	if in.Images != nil {
		p.Images = append([]string(nil), in.Images...)
	}
	if in.IsFeatured != nil {
		p.IsFeatured = *in.IsFeatured
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (s *CatalogService) validateProduct(ctx context.Context, p *models.Product) error {
	switch {
	case p.Name == "":
		return invalid("le nom du produit est requis")
	case p.Price < 0:
		return invalid("le prix doit être positif")
	case p.Stock < 0:
		return invalid("le stock doit être positif")
	case p.OriginalPrice != 0 && p.OriginalPrice < p.Price:
		return invalid("le prix d'origine doit être supérieur ou égal au prix")
	case len(p.Images) > 10:
		return invalid("10 images maximum")
	}
	if models.IsZeroID(p.CategoryID) {
		return invalid("la catégorie est requise")
	}
	if _, err := s.deps.Store.Categories.Get(ctx, p.CategoryID); err != nil {
		return refError(err, "catégorie")
	}
	if !models.IsZeroID(p.BrandID) {
		if _, err := s.deps.Store.Brands.Get(ctx, p.BrandID); err != nil {
			return refError(err, "marque")
		}
	}
	return nil
}

// refError : une référence inexistante est une erreur de saisie, pas un 404
func refError(err error, kind string) error {
	if errors.Is(err, errs.ErrNotFound) {
		return invalid("%s inexistante", kind)
	}
	return err
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	p := &models.Product{ID: models.NewID(), IsActive: true, Images: []string{}, CreatedAt: now, UpdatedAt: now}
	in.apply(p)
	if err := s.validateProduct(ctx, p); err != nil {
		return nil, err
	}
	if p.Slug, err = s.productSlug(ctx, p.ID, in.Slug, p.Name); err != nil {
		return nil, err
	}

	if err := s.deps.Store.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	utils.LogAction(ctx, v.Actor(), "create", "product", p.ID.String(), map[string]any{"name": p.Name})
	s.reindex(ctx, p)
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id gocql.UUID, in ProductInput) (*models.Product, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.deps.Store.Products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stockRead := p.Stock
	in.apply(p)
	if err := s.validateProduct(ctx, p); err != nil {
		return nil, err
	}
	// le slug reste stable au renommage ; un slug vide le régénère depuis le nom
	if in.Slug != nil {
		if p.Slug, err = s.productSlug(ctx, p.ID, in.Slug, p.Name); err != nil {
			return nil, err
		}
	}
	p.UpdatedAt = s.deps.Now()

	if err := s.deps.Store.Products.Update(ctx, p); err != nil {
		return nil, err
	}
	// le stock saisi est appliqué en delta : les réservations faites depuis la lecture sont conservées
	if delta := p.Stock - stockRead; in.Stock != nil && delta != 0 {
		if p.Stock, err = s.deps.Store.Products.AdjustStock(ctx, p.ID, delta); err != nil {
			return nil, err
		}
	}
	utils.LogAction(ctx, v.Actor(), "update", "product", p.ID.String(), nil)
	s.reindex(ctx, p)
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id gocql.UUID) (bool, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return false, err
	}
	if err := s.deps.Store.Products.Delete(ctx, id); err != nil {
		return false, err
	}
	utils.LogAction(ctx, v.Actor(), "delete", "product", id.String(), nil)
	if err := s.deps.Search.Delete(ctx, id); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("product_id", id.String()).Msg("⚠️ Suppression index")
	}
	return true, nil
}

// reindex pousse le produit dans Elasticsearch ; un échec n'annule pas l'écriture
func (s *CatalogService) reindex(ctx context.Context, p *models.Product) {
	var categoryName, brandName string
	if c, err := s.deps.Store.Categories.Get(ctx, p.CategoryID); err == nil {
		categoryName = c.Name
	}
	if b, err := s.deps.Store.Brands.Get(ctx, p.BrandID); err == nil {
		brandName = b.Name
	}
	if err := s.deps.Search.Index(ctx, search.NewDocument(*p, categoryName, brandName)); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("product_id", p.ID.String()).Msg("⚠️ Indexation produit")
	}
}

// uniqueSlug : un slug explicite en double est refusé, un slug généré reçoit un suffixe
func uniqueSlug(explicit *string, name string, taken func(string) bool) (string, error) {
	if explicit != nil && strings.TrimSpace(*explicit) != "" {
		slug := utils.Slugify(*explicit)
		if slug == "" {
			return "", invalid("slug invalide")
		}
		if taken(slug) {
			return "", fmt.Errorf("%w: slug %q déjà utilisé", errs.ErrConflict, slug)
		}
		return slug, nil
	}

	base := utils.Slugify(name)
	if base == "" {
		base = "item"
	}
	slug := base
	for n := 2; taken(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug, nil
}

func (s *CatalogService) productSlug(ctx context.Context, id gocql.UUID, explicit *string, name string) (string, error) {
	all, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(all))
	for _, p := range all {
		if p.ID != id {
			used[p.Slug] = true
		}
	}
	return uniqueSlug(explicit, name, func(slug string) bool { return used[slug] })
}

// --- Administration catégories ---

type CategoryInput struct {
	Name        *string
	Slug        *string
	Description *string
	ImageURL    *string
	ParentID    *gocql.UUID
}

func (s *CatalogService) saveCategory(ctx context.Context, c *models.Category, in CategoryInput) error {
	if in.Name != nil {
		c.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.ImageURL != nil {
		c.ImageURL = *in.ImageURL
	}
	if in.ParentID != nil {
		if *in.ParentID == c.ID {
			return invalid("une catégorie ne peut pas être son propre parent")
		}
		if _, err := s.deps.Store.Categories.Get(ctx, *in.ParentID); err != nil {
			return refError(err, "catégorie parente")
		}
		parent := *in.ParentID
		c.ParentID = &parent
	}
	if c.Name == "" {
		return invalid("le nom de la catégorie est requis")
	}

	if in.Slug != nil || c.Slug == "" {
		all, err := s.deps.Store.Categories.List(ctx)
		if err != nil {
			return err
		}
		used := make(map[string]bool, len(all))
		for _, other := range all {
			if other.ID != c.ID {
				used[other.Slug] = true
			}
		}
		slug, err := uniqueSlug(in.Slug, c.Name, func(slug string) bool { return used[slug] })
		if err != nil {
			return err
		}
		c.Slug = slug
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	c := &models.Category{ID: models.NewID(), CreatedAt: s.deps.Now()}
	if err := s.saveCategory(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Categories.Create(ctx, c); err != nil {
		return nil, err
	}
	s.deps.Cache.Delete(ctx, categoriesCacheKey)
	utils.LogAction(ctx, v.Actor(), "create", "category", c.ID.String(), map[string]any{"name": c.Name})
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id gocql.UUID, in CategoryInput) (*models.Category, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.deps.Store.Categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.saveCategory(ctx, c, in); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Categories.Update(ctx, c); err != nil {
		return nil, err
	}
	s.deps.Cache.Delete(ctx, categoriesCacheKey)
	utils.LogAction(ctx, v.Actor(), "update", "category", c.ID.String(), nil)
	return c, nil
}

// DeleteCategory refuse une catégorie qui contient encore des produits ou des sous-catégories
func (s *CatalogService) DeleteCategory(ctx context.Context, id gocql.UUID) (bool, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return false, err
	}
	products, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if p.CategoryID == id {
			return false, fmt.Errorf("%w: la catégorie contient encore des produits", errs.ErrConflict)
		}
	}
	categories, err := s.deps.Store.Categories.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range categories {
		if c.ParentID != nil && *c.ParentID == id {
			return false, fmt.Errorf("%w: la catégorie contient des sous-catégories", errs.ErrConflict)
		}
	}

	if err := s.deps.Store.Categories.Delete(ctx, id); err != nil {
		return false, err
	}
	s.deps.Cache.Delete(ctx, categoriesCacheKey)
	utils.LogAction(ctx, v.Actor(), "delete", "category", id.String(), nil)
	return true, nil
}

// --- Administration marques ---

type BrandInput struct {
	Name        *string
	Slug        *string
	Description *string
	LogoURL     *string
}

func (s *CatalogService) saveBrand(ctx context.Context, b *models.Brand, in BrandInput) error {
	if in.Name != nil {
		b.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.LogoURL != nil {
		b.LogoURL = *in.LogoURL
	}
	if b.Name == "" {
		return invalid("le nom de la marque est requis")
	}

	if in.Slug != nil || b.Slug == "" {
		all, err := s.deps.Store.Brands.List(ctx)
		if err != nil {
			return err
		}
		used := make(map[string]bool, len(all))
		for _, other := range all {
			if other.ID != b.ID {
				used[other.Slug] = true
			}
		}
		slug, err := uniqueSlug(in.Slug, b.Name, func(slug string) bool { return used[slug] })
		if err != nil {
			return err
		}
		b.Slug = slug
	}
	return nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, in BrandInput) (*models.Brand, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	b := &models.Brand{ID: models.NewID(), CreatedAt: s.deps.Now()}
	if err := s.saveBrand(ctx, b, in); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Brands.Create(ctx, b); err != nil {
		return nil, err
	}
	s.deps.Cache.Delete(ctx, brandsCacheKey)
	utils.LogAction(ctx, v.Actor(), "create", "brand", b.ID.String(), map[string]any{"name": b.Name})
	return b, nil
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id gocql.UUID, in BrandInput) (*models.Brand, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.deps.Store.Brands.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.saveBrand(ctx, b, in); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Brands.Update(ctx, b); err != nil {
		return nil, err
	}
	s.deps.Cache.Delete(ctx, brandsCacheKey)
	utils.LogAction(ctx, v.Actor(), "update", "brand", b.ID.String(), nil)
	return b, nil
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id gocql.UUID) (bool, error) {
	v, err := auth.RequireStaff(ctx)
	if err != nil {
		return false, err
	}
	products, err := s.deps.Store.Products.List(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if p.BrandID == id {
			return false, fmt.Errorf("%w: la marque a encore des produits", errs.ErrConflict)
		}
	}
	if err := s.deps.Store.Brands.Delete(ctx, id); err != nil {
		return false, err
	}
	s.deps.Cache.Delete(ctx, brandsCacheKey)
	utils.LogAction(ctx, v.Actor(), "delete", "brand", id.String(), nil)
	return true, nil
}
