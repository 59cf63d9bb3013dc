package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/cart"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/logger"
	"github.com/primefit/storefront/pkg/pubsub"
	"github.com/shopspring/decimal"
)

const (
	EventCheckoutRequested = "checkout.requested"
	eventVersion           = "1"
)

// Summary is what the storefront needs to hand the order off.
type Summary struct {
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
	TotalCount  int             `json:"total_count"`
	TotalValue  decimal.Decimal `json:"total_value"`
	EventID     *uuid.UUID      `json:"event_id,omitempty"`
}

// RequestedEvent is the Pub/Sub payload for a checkout hand-off.
type RequestedEvent struct {
	EventID     uuid.UUID       `json:"event_id"`
	EventType   string          `json:"event_type"`
	OccurredAt  time.Time       `json:"occurred_at"`
	SessionID   string          `json:"session_id"`
	Items       []cart.LineItem `json:"items"`
	TotalCount  int             `json:"total_count"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
}

// Service composes checkout summaries and announces order requests.
type Service interface {
	Summarize(snap cart.Snapshot) Summary
	Request(ctx context.Context, sessionID string, snap cart.Snapshot) (Summary, error)
}

type service struct {
	phone     string
	publisher pubsub.Publisher
	logg      *logger.Logger
	now       func() time.Time
}

// Options wires the optional collaborators.
type Options struct {
	Publisher pubsub.Publisher
	Logger    *logger.Logger
	Now       func() time.Time
}

// NewService builds a checkout service for the given WhatsApp number. A nil
// publisher disables event publishing.
func NewService(phone string, opts Options) (Service, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("whatsapp phone required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		phone:     phone,
		publisher: opts.Publisher,
		logg:      opts.Logger,
		now:       now,
	}, nil
}

func (s *service) Summarize(snap cart.Snapshot) Summary {
	msg := ComposeMessage(snap)
	return Summary{
		Message:     msg,
		WhatsAppURL: WhatsAppURL(s.phone, msg),
		TotalCount:  snap.TotalCount,
		TotalValue:  snap.TotalValue,
	}
}

func (s *service) Request(ctx context.Context, sessionID string, snap cart.Snapshot) (Summary, error) {
	summary := s.Summarize(snap)
	if len(snap.Items) == 0 {
		return summary, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if s.publisher == nil {
		return summary, nil
	}

	event := RequestedEvent{
		EventID:     uuid.New(),
		EventType:   EventCheckoutRequested,
		OccurredAt:  s.now().UTC(),
		SessionID:   sessionID,
		Items:       snap.Items,
		TotalCount:  snap.TotalCount,
		TotalValue:  snap.TotalValue,
		Message:     summary.Message,
		WhatsAppURL: summary.WhatsAppURL,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal checkout event")
	}

	attrs := map[string]string{
		"event_type":    EventCheckoutRequested,
		"event_id":      event.EventID.String(),
		"event_version": eventVersion,
	}
	msgID, err := s.publisher.Publish(ctx, payload, attrs)
	if err != nil {
		return summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish checkout event")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"event_id":    event.EventID.String(),
			"message_id":  msgID,
			"total_count": snap.TotalCount,
		}), "checkout request published")
	}
	summary.EventID = &event.EventID
	return summary, nil
}
