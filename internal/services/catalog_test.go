package services

import (
	"context"
	"testing"

	"smartshop_back_end/internal/errs"
	"smartshop_back_end/internal/models"
	"smartshop_back_end/internal/repository"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestListProductsFilterAndSort(t *testing.T) {
	f := newFixture(t)
	phone := f.product("Điện thoại Galaxy", 8_000_000, 5)
	f.product("Tai nghe Buds", 2_000_000, 0)
	watch := f.product("Đồng hồ Watch", 5_000_000, 3)
	watch.IsActive = false
	require.NoError(t, f.store.Products.Update(context.Background(), watch))

	ctx := f.user(models.RoleCustomer)

	page, err := f.svc.Catalog.ListProducts(ctx, models.ProductFilter{IncludeInactive: true}, SortPriceAsc, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total, "les produits inactifs restent cachés aux clients")
	assert.Equal(t, []string{"Tai nghe Buds", "Điện thoại Galaxy"}, names(page.Items))

	page, err = f.svc.Catalog.ListProducts(f.user(models.RoleManager), models.ProductFilter{IncludeInactive: true}, SortPriceDesc, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Điện thoại Galaxy", "Đồng hồ Watch", "Tai nghe Buds"}, names(page.Items))

	page, err = f.svc.Catalog.ListProducts(ctx, models.ProductFilter{Search: "dien THOAI"}, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, phone.ID, page.Items[0].ID)

	page, err = f.svc.Catalog.ListProducts(ctx, models.ProductFilter{InStock: ptr(true), MinPrice: ptr(int64(1_000_000))}, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Điện thoại Galaxy"}, names(page.Items))

	page, err = f.svc.Catalog.ListProducts(ctx, models.ProductFilter{}, SortNewest, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []string{"Điện thoại Galaxy"}, names(page.Items))

	_, err = f.svc.Catalog.ListProducts(ctx, models.ProductFilter{}, "cheapest", 0, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestInactiveProductIsHiddenFromCustomers(t *testing.T) {
	f := newFixture(t)
	p := f.product("Máy tính bảng", 9_000_000, 1)
	p.IsActive = false
	require.NoError(t, f.store.Products.Update(context.Background(), p))

	_, err := f.svc.Catalog.Product(context.Background(), p.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	got, err := f.svc.Catalog.Product(f.user(models.RoleAdmin), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestCreateProductSlugAndValidation(t *testing.T) {
	f := newFixture(t)
	admin := f.user(models.RoleAdmin)
	in := ProductInput{
		Name:       ptr("Điện thoại Galaxy S24"),
		Price:      ptr(int64(20_000_000)),
		Stock:      ptr(10),
		CategoryID: &f.category.ID,
		BrandID:    &f.brand.ID,
	}

	first, err := f.svc.Catalog.CreateProduct(admin, in)
	require.NoError(t, err)
	assert.Equal(t, "dien-thoai-galaxy-s24", first.Slug)
	assert.True(t, first.IsActive)

	second, err := f.svc.Catalog.CreateProduct(admin, in)
	require.NoError(t, err)
	assert.Equal(t, "dien-thoai-galaxy-s24-2", second.Slug)

	dup := in
	dup.Slug = ptr("dien-thoai-galaxy-s24")
	_, err = f.svc.Catalog.CreateProduct(admin, dup)
	assert.ErrorIs(t, err, errs.ErrConflict)

	bad := in
	bad.OriginalPrice = ptr(int64(1_000))
	_, err = f.svc.Catalog.CreateProduct(admin, bad)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	orphan := in
	orphan.CategoryID = ptr(models.NewID())
	_, err = f.svc.Catalog.CreateProduct(admin, orphan)
	assert.ErrorIs(t, err, errs.ErrInvalidInput)

	_, err = f.svc.Catalog.CreateProduct(f.user(models.RoleCustomer), in)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.svc.Catalog.CreateProduct(context.Background(), in)
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestUpdateProductOnlyTouchesGivenFields(t *testing.T) {
	f := newFixture(t)
	p := f.product("Loa Bluetooth", 1_500_000, 4)

	updated, err := f.svc.Catalog.UpdateProduct(f.user(models.RoleManager), p.ID, ProductInput{Price: ptr(int64(1_200_000))})
	require.NoError(t, err)
	assert.Equal(t, int64(1_200_000), updated.Price)
	assert.Equal(t, p.Name, updated.Name)
	assert.Equal(t, p.Slug, updated.Slug)
	assert.Equal(t, 4, updated.Stock)

	_, err = f.svc.Catalog.UpdateProduct(f.user(models.RoleManager), p.ID, ProductInput{Stock: ptr(-1)})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

// reservedAfterRead simule une commande passée entre la lecture admin et l'écriture
type reservedAfterRead struct {
	repository.ProductRepository
	afterGet func()
}

func (r *reservedAfterRead) Get(ctx context.Context, id gocql.UUID) (*models.Product, error) {
	p, err := r.ProductRepository.Get(ctx, id)
	if r.afterGet != nil {
		hook := r.afterGet
		r.afterGet = nil
		hook()
	}
	return p, err
}

func TestUpdateProductStockKeepsConcurrentReservation(t *testing.T) {
	f := newFixture(t)
	manager := f.user(models.RoleManager)
	p := f.product("Webcam", 900_000, 4)

	products := f.store.Products
	f.store.Products = &reservedAfterRead{
		ProductRepository: products,
		afterGet: func() {
			_, err := products.AdjustStock(context.Background(), p.ID, -1)
			require.NoError(t, err)
		},
	}

	updated, err := f.svc.Catalog.UpdateProduct(manager, p.ID, ProductInput{Stock: ptr(10), Price: ptr(int64(850_000))})
	require.NoError(t, err)
	assert.Equal(t, 9, updated.Stock, "+6 appliqué au stock courant")
	assert.Equal(t, 9, f.stock(*p))

	_, err = f.svc.Catalog.UpdateProduct(manager, p.ID, ProductInput{Name: ptr("Webcam 4K")})
	require.NoError(t, err)
	assert.Equal(t, 9, f.stock(*p), "sans stock saisi, le stock ne bouge pas")
}

func TestDeleteCategoryAndBrandInUse(t *testing.T) {
	f := newFixture(t)
	admin := f.user(models.RoleAdmin)
	p := f.product("Sạc dự phòng", 500_000, 2)

	_, err := f.svc.Catalog.DeleteCategory(admin, f.category.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)
	_, err = f.svc.Catalog.DeleteBrand(admin, f.brand.ID)
	assert.ErrorIs(t, err, errs.ErrConflict)

	ok, err := f.svc.Catalog.DeleteProduct(admin, p.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Catalog.DeleteCategory(admin, f.category.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCategoryCacheIsInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	list, err := f.svc.Catalog.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.store.Categories.Create(ctx, &models.Category{ID: models.NewID(), Name: "Phụ kiện", Slug: "phu-kien"}))
	list, err = f.svc.Catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1, "la liste vient du cache")

	created, err := f.svc.Catalog.CreateCategory(f.user(models.RoleAdmin), CategoryInput{Name: ptr("Laptop & Máy tính")})
	require.NoError(t, err)
	assert.Equal(t, "laptop-may-tinh", created.Slug)

	list, err = f.svc.Catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestCategoryCannotBeItsOwnParent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Catalog.UpdateCategory(f.user(models.RoleAdmin), f.category.ID, CategoryInput{ParentID: &f.category.ID})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestSearchFallsBackToCatalogFilter(t *testing.T) {
	f := newFixture(t)
	f.product("Điện thoại Galaxy", 8_000_000, 5)
	f.product("Ốp lưng Galaxy", 150_000, 50)
	f.product("Tai nghe", 900_000, 5)

	found, err := f.svc.Catalog.SearchProducts(context.Background(), "galaxy", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Điện thoại Galaxy", "Ốp lưng Galaxy"}, names(found))

	suggestions, err := f.svc.Catalog.SearchSuggestions(context.Background(), "tai", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tai nghe"}, suggestions)

	empty, err := f.svc.Catalog.SearchProducts(context.Background(), "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRelatedProductsPreferSameCategory(t *testing.T) {
	f := newFixture(t)
	ref := f.product("Galaxy S24", 20_000_000, 5)
	sameCategory := f.product("Galaxy A55", 9_000_000, 5)

	other := models.Category{ID: models.NewID(), Name: "Phụ kiện", Slug: "phu-kien"}
	require.NoError(t, f.store.Categories.Create(context.Background(), &other))
	accessory := f.product("Galaxy Buds", 3_000_000, 5)
	accessory.CategoryID = other.ID
	require.NoError(t, f.store.Products.Update(context.Background(), accessory))

	related, err := f.svc.Catalog.RelatedProducts(context.Background(), ref.ID, 10)
	require.NoError(t, err)
	require.Len(t, related, 2)
	assert.Equal(t, sameCategory.ID, related[0].ID)
	assert.Equal(t, accessory.ID, related[1].ID)
}

func TestRelatedProductsIgnoreMissingBrand(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := models.Category{ID: models.NewID(), Name: "Gia dụng", Slug: "gia-dung"}
	require.NoError(t, f.store.Categories.Create(ctx, &other))

	ref := f.product("Ốp lưng", 150_000, 5)
	ref.BrandID = gocql.UUID{}
	require.NoError(t, f.store.Products.Update(ctx, ref))

	unrelated := f.product("Chổi", 50_000, 5)
	unrelated.BrandID = gocql.UUID{}
	unrelated.CategoryID = other.ID
	require.NoError(t, f.store.Products.Update(ctx, unrelated))

	related, err := f.svc.Catalog.RelatedProducts(ctx, ref.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, related, "deux produits sans marque ne sont pas liés")
}
