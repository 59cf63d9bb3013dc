package orderrequests

import (
	"time"

	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/cart"
	"github.com/primefit/storefront/pkg/db/models"
	"github.com/shopspring/decimal"
)

// OrderRequestDTO is the admin view of a recorded checkout hand-off.
type OrderRequestDTO struct {
	ID          uuid.UUID       `json:"id"`
	SessionID   string          `json:"session_id"`
	Items       []cart.LineItem `json:"items"`
	TotalCount  int             `json:"total_count"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
	RequestedAt time.Time       `json:"requested_at"`
	ReceivedAt  time.Time       `json:"received_at"`
}

// NewOrderRequestDTO maps a row. Items that fail to decode render as an empty list.
func NewOrderRequestDTO(row *models.OrderRequest) OrderRequestDTO {
	items := []cart.LineItem{}
	if err := row.Items.Decode(&items); err != nil || items == nil {
		items = []cart.LineItem{}
	}
	return OrderRequestDTO{
		ID:          row.ID,
		SessionID:   row.SessionID,
		Items:       items,
		TotalCount:  row.TotalCount,
		TotalValue:  row.TotalValue,
		Message:     row.Message,
		WhatsAppURL: row.WhatsAppURL,
		RequestedAt: row.RequestedAt,
		ReceivedAt:  row.CreatedAt,
	}
}
