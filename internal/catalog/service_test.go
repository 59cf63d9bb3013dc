package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/primefit/storefront/pkg/db/models"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/imageurl"
	pfredis "github.com/primefit/storefront/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts Options) (Service, *Repository) {
	t.Helper()
	repo := NewRepository(openTestDB(t))
	svc, err := NewService(repo, opts)
	require.NoError(t, err)
	return svc, repo
}

func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool     { return &v }

func TestNewServiceRequiresRepository(t *testing.T) {
	if _, err := NewService(nil, Options{}); err == nil {
		t.Fatalf("expected error without repository")
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input ProductInput
	}{
		{name: "blank name", input: ProductInput{Name: "  ", Price: "10"}},
		{name: "zero price", input: ProductInput{Name: "Whey", Price: "0"}},
		{name: "negative price", input: ProductInput{Name: "Whey", Price: -5}},
		{name: "garbage price", input: ProductInput{Name: "Whey", Price: "caro"}},
		{name: "missing price", input: ProductInput{Name: "Whey"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateProductDefaults(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, ProductInput{
		Name:        "  Whey Protein  ",
		Price:       "149,90",
		Description: strPtr("   "),
		Images:      []string{"", "https://cdn/whey.webp.webp"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Whey Protein", created.Name)
	assert.True(t, created.Price.Equal(decimal.RequireFromString("149.9")))
	assert.Equal(t, DefaultCategory, created.Category)
	assert.True(t, created.IsActive)
	assert.Nil(t, created.Description)
	assert.Equal(t, []string{DefaultFlavor}, created.Flavors)
	assert.Equal(t, "https://cdn/whey.webp", created.Image)

	loaded, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn/whey.webp.webp"}, loaded.Images)
	assert.True(t, loaded.Price.Equal(created.Price))
}

func TestListProductsFiltersInactiveAndOrdersNewestFirst(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	older := mustInsertProduct(t, repo, "Creatina", true, base)
	newer := mustInsertProduct(t, repo, "Whey", true, base.Add(time.Hour))
	mustInsertProduct(t, repo, "Antigo", false, base.Add(2*time.Hour))

	public, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, newer.ID, public[0].ID)
	assert.Equal(t, older.ID, public[1].ID)

	all, err := svc.ListProducts(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Antigo", all[0].Name)
}

func TestUpdateProduct(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, ProductInput{Name: "Whey", Price: 100, Flavors: []string{"Chocolate"}})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, created.ID, ProductInput{
		Name:     "Whey Isolado",
		Price:    "199,90",
		Category: "Proteínas",
		Active:   boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Whey Isolado", updated.Name)
	assert.Equal(t, "Proteínas", updated.Category)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{DefaultFlavor}, updated.Flavors)

	_, err = svc.UpdateProduct(ctx, uuid.New(), ProductInput{Name: "X", Price: 1})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, ProductInput{Name: "Whey", Price: 100})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProduct(ctx, created.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCategoriesEnsureBaseAndProtectDeletion(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	list, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Outro", list[0].Name)
	assert.Equal(t, "Promoções", list[1].Name)

	// a second listing must not duplicate the base rows
	list, err = svc.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	for _, c := range list {
		err := svc.DeleteCategory(ctx, c.ID)
		if !pkgerrors.IsCode(err, pkgerrors.CodeProtected) {
			t.Fatalf("expected protected error for %s, got %v", c.Slug, err)
		}
	}

	created, err := svc.CreateCategory(ctx, CategoryInput{Name: " Pré-Treino "})
	require.NoError(t, err)
	assert.Equal(t, "pre-treino", created.Slug)
	assert.Equal(t, "Pré-Treino", created.Name)

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "pre treino"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict on duplicate slug, got %v", err)
	}

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "!!!"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty slug, got %v", err)
	}

	require.NoError(t, svc.DeleteCategory(ctx, created.ID))
	err = svc.DeleteCategory(ctx, created.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResolveCartProduct(t *testing.T) {
	svc, repo := newTestService(t, Options{})
	ctx := context.Background()

	active := mustInsertProduct(t, repo, "Whey", true, time.Now())
	inactive := mustInsertProduct(t, repo, "Antigo", false, time.Now())

	p, ok, err := svc.ResolveCartProduct(ctx, active.ID.String())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, active.ID.String(), p.ID)
	assert.Equal(t, "Whey", p.Name)
	assert.Equal(t, imageurl.Placeholder, p.ImageRef)

	for _, id := range []string{inactive.ID.String(), uuid.NewString(), "not-a-uuid", ""} {
		_, ok, err := svc.ResolveCartProduct(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok, "id %q should not resolve", id)
	}
}

func TestProductReadsAreCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	cache := pfredis.NewFromClient(raw)

	svc, repo := newTestService(t, Options{Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	mustInsertProduct(t, repo, "Whey", true, time.Now())
	first, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(cache.CacheKey("catalog", "products", "active")))

	// a row written behind the service's back stays hidden until invalidation
	mustInsertProduct(t, repo, "Creatina", true, time.Now())
	cached, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = svc.CreateProduct(ctx, ProductInput{Name: "Glutamina", Price: 50})
	require.NoError(t, err)
	fresh, err := svc.ListProducts(ctx, false)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}

func TestCacheOutageFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = raw.Close() })

	svc, repo := newTestService(t, Options{Cache: pfredis.NewFromClient(raw), CacheTTL: time.Minute})
	mustInsertProduct(t, repo, "Whey", true, time.Now())
	mr.Close()

	list, err := svc.ListProducts(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func mustInsertProduct(t *testing.T, repo *Repository, name string, active bool, createdAt time.Time) *models.Product {
	t.Helper()
	row := &models.Product{
		Name:      name,
		Price:     decimal.RequireFromString("99.90"),
		Category:  DefaultCategory,
		IsActive:  active,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	created, err := repo.CreateProduct(context.Background(), row)
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	return created
}
