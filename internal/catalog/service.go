package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/cart"
	"github.com/primefit/storefront/pkg/db"
	"github.com/primefit/storefront/pkg/db/models"
	dbtypes "github.com/primefit/storefront/pkg/db/types"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/redis"
)

// Service exposes catalog reads for shoppers and CRUD for the admin panel.
type Service interface {
	ListProducts(ctx context.Context, includeInactive bool) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	// ResolveCartProduct looks up an active product for the cart. Unknown,
	// malformed or inactive IDs report ok=false without an error.
	ResolveCartProduct(ctx context.Context, productID string) (cart.Product, bool, error)
}

// Options carries the optional collaborators of the service.
type Options struct {
	Cache    redis.Cache
	CacheTTL time.Duration
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo  *Repository
	cache *readCache
	now   func() time.Time
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo *Repository, opts Options) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:  repo,
		cache: newReadCache(opts.Cache, opts.CacheTTL, opts.Logger),
		now:   now,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, includeInactive bool) ([]ProductDTO, error) {
	if includeInactive {
		return s.loadProducts(ctx, false)
	}
	return cachedLoad(ctx, s.cache, s.cache.key("products", "active"), func(ctx context.Context) ([]ProductDTO, error) {
		return s.loadProducts(ctx, true)
	})
}

func (s *service) loadProducts(ctx context.Context, activeOnly bool) ([]ProductDTO, error) {
	rows, err := s.repo.ListProducts(ctx, activeOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	return cachedLoad(ctx, s.cache, s.cache.key("product", id.String()), func(ctx context.Context) (*ProductDTO, error) {
		row, err := s.repo.FindProduct(ctx, id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find product")
		}
		return NewProductDTO(row), nil
	})
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	row, err := productFromInput(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateProduct(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	s.cache.invalidate(ctx, s.cache.key("products", "active"))
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	row, err := productFromInput(input)
	if err != nil {
		return nil, err
	}
	row.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, id, row); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	s.invalidateProduct(ctx, id)

	updated, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	s.invalidateProduct(ctx, id)
	return nil
}

func (s *service) invalidateProduct(ctx context.Context, id uuid.UUID) {
	s.cache.invalidate(ctx, s.cache.key("products", "active"), s.cache.key("product", id.String()))
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	return cachedLoad(ctx, s.cache, s.cache.key("categories", "active"), func(ctx context.Context) ([]CategoryDTO, error) {
		if err := s.ensureBaseCategories(ctx); err != nil {
			return nil, err
		}
		rows, err := s.repo.ListCategories(ctx, true)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list categories")
		}
		out := make([]CategoryDTO, 0, len(rows))
		for i := range rows {
			out = append(out, *NewCategoryDTO(&rows[i]))
		}
		return out, nil
	})
}

func (s *service) ensureBaseCategories(ctx context.Context) error {
	slugs, err := s.repo.CategorySlugs(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list category slugs")
	}
	existing := make(map[string]struct{}, len(slugs))
	for _, slug := range slugs {
		existing[slug] = struct{}{}
	}

	var missing []*models.Category
	for _, base := range BaseCategories {
		if _, ok := existing[base.Slug]; !ok {
			missing = append(missing, &models.Category{Name: base.Name, Slug: base.Slug, IsActive: true})
		}
	}
	if err := s.repo.CreateCategories(ctx, missing...); err != nil && !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: ensure base categories")
	}
	return nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	slug := Slugify(name)
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid name").
			WithDetails(map[string]any{"name": name})
	}

	row := &models.Category{Name: name, Slug: slug, IsActive: true}
	if err := s.repo.CreateCategories(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	s.cache.invalidate(ctx, s.cache.key("categories", "active"))
	return NewCategoryDTO(row), nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: find category")
	}
	if IsProtectedSlug(row.Slug) {
		return pkgerrors.New(pkgerrors.CodeProtected, "this category cannot be removed").
			WithDetails(map[string]any{"slug": row.Slug})
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
	}
	s.cache.invalidate(ctx, s.cache.key("categories", "active"))
	return nil
}

func (s *service) ResolveCartProduct(ctx context.Context, productID string) (cart.Product, bool, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return cart.Product{}, false, nil
	}
	dto, err := s.GetProduct(ctx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return cart.Product{}, false, nil
		}
		return cart.Product{}, false, err
	}
	if dto == nil || !dto.IsActive {
		return cart.Product{}, false, nil
	}
	return dto.CartProduct(), true, nil
}

func productFromInput(input ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	price := cart.ParsePrice(input.Price).Round(2)
	if !price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid price").
			WithDetails(map[string]any{"price": input.Price})
	}
	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = DefaultCategory
	}
	active := true
	if input.Active != nil {
		active = *input.Active
	}

	return &models.Product{
		Name:        name,
		Price:       price,
		Category:    category,
		Highlight:   trimmedPtr(input.Highlight),
		Description: trimmedPtr(input.Description),
		IsActive:    active,
		ImageURL:    trimmedPtr(input.ImageURL),
		Images:      dbtypes.StringList(input.Images).Compact(),
		Flavors:     dbtypes.StringList(input.Flavors).Compact(),
	}, nil
}
