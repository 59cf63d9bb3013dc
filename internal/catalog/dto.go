package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/cart"
	"github.com/primefit/storefront/pkg/db/models"
	"github.com/primefit/storefront/pkg/imageurl"
	"github.com/shopspring/decimal"
)

const (
	DefaultCategory = "Outro"
	DefaultFlavor   = "Padrão"
)

// ProductInput is the admin payload for create and update. Price accepts a
// number or a string with a decimal comma.
type ProductInput struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Price       any      `json:"price" validate:"required"`
	Category    string   `json:"category" validate:"max=100"`
	Highlight   *string  `json:"highlight,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Active      *bool    `json:"active,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty" validate:"omitempty,max=2048"`
	Images      []string `json:"images,omitempty" validate:"omitempty,max=20,dive,max=2048"`
	Flavors     []string `json:"flavors,omitempty" validate:"omitempty,max=30,dive,max=100"`
}

// ProductDTO is the API view of a product.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Highlight   *string         `json:"highlight,omitempty"`
	Description *string         `json:"description,omitempty"`
	IsActive    bool            `json:"active"`
	ImageURL    *string         `json:"image_url,omitempty"`
	Image       string          `json:"image"`
	Images      []string        `json:"images"`
	Flavors     []string        `json:"flavors"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewProductDTO maps a row, resolving the display image and default flavor.
func NewProductDTO(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	images := []string(p.Images.Compact())
	flavors := []string(p.Flavors.Compact())
	if len(flavors) == 0 {
		flavors = []string{DefaultFlavor}
	}
	imageURL := ""
	if p.ImageURL != nil {
		imageURL = *p.ImageURL
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Highlight:   p.Highlight,
		Description: p.Description,
		IsActive:    p.IsActive,
		ImageURL:    p.ImageURL,
		Image:       imageurl.Pick(imageURL, images),
		Images:      images,
		Flavors:     flavors,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CartProduct converts the listing into what the cart snapshots on add.
func (p ProductDTO) CartProduct() cart.Product {
	return cart.Product{
		ID:       p.ID.String(),
		Name:     p.Name,
		Price:    p.Price,
		ImageRef: p.Image,
	}
}

// CategoryDTO is the API view of a category.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsActive  bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCategoryDTO(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

// CategoryInput is the admin payload for a new category.
type CategoryInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
