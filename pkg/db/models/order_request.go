package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/primefit/storefront/pkg/db/types"
)

// OrderRequest is a checkout hand-off recorded from the checkout event stream.
// The ID is the event ID, so redelivered events collapse onto one row.
type OrderRequest struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	SessionID   string               `gorm:"column:session_id;not null"`
	Items       dbtypes.JSONDocument `gorm:"column:items;type:jsonb;not null"`
	TotalCount  int                  `gorm:"column:total_count;not null"`
	TotalValue  decimal.Decimal      `gorm:"column:total_value;type:numeric(12,2);not null"`
	Message     string               `gorm:"column:message;not null"`
	WhatsAppURL string               `gorm:"column:whatsapp_url;not null"`
	RequestedAt time.Time            `gorm:"column:requested_at;not null"`
	CreatedAt   time.Time            `gorm:"column:created_at"`
}

func (OrderRequest) TableName() string { return "order_requests" }
