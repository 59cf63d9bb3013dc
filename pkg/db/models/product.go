package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	dbtypes "github.com/primefit/storefront/pkg/db/types"
)

// Product is a catalog listing.
type Product struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name        string             `gorm:"column:name;not null"`
	Price       decimal.Decimal    `gorm:"column:price;type:numeric(10,2);not null"`
	Category    string             `gorm:"column:category;not null"`
	Highlight   *string            `gorm:"column:highlight"`
	Description *string            `gorm:"column:description"`
	IsActive    bool               `gorm:"column:is_active;not null"`
	ImageURL    *string            `gorm:"column:image_url"`
	Images      dbtypes.StringList `gorm:"column:images;type:jsonb;not null;default:'[]'"`
	Flavors     dbtypes.StringList `gorm:"column:flavors;type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// BeforeCreate assigns an ID when the caller did not.
func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
