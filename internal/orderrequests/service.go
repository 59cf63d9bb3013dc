package orderrequests

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/primefit/storefront/internal/checkout"
	"github.com/primefit/storefront/pkg/db/models"
	dbtypes "github.com/primefit/storefront/pkg/db/types"
	pkgerrors "github.com/primefit/storefront/pkg/errors"
	"github.com/primefit/storefront/pkg/pagination"
	"gorm.io/gorm"
)

// Service records checkout events and serves them to the admin panel.
type Service interface {
	// Record stores the event. It reports false when the event was already stored.
	Record(ctx context.Context, event checkout.RequestedEvent) (bool, error)
	List(ctx context.Context, params pagination.Params) (pagination.Page[OrderRequestDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*OrderRequestDTO, error)
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds the order request service. A nil now uses time.Now.
func NewService(repo *Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order request repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) Record(ctx context.Context, event checkout.RequestedEvent) (bool, error) {
	if err := validateEvent(event); err != nil {
		return false, err
	}
	items, err := dbtypes.NewJSONDocument(event.Items)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order items")
	}
	row := &models.OrderRequest{
		ID:          event.EventID,
		SessionID:   event.SessionID,
		Items:       items,
		TotalCount:  event.TotalCount,
		TotalValue:  event.TotalValue,
		Message:     event.Message,
		WhatsAppURL: event.WhatsAppURL,
		RequestedAt: event.OccurredAt.UTC(),
		CreatedAt:   s.now().UTC(),
	}
	inserted, err := s.repo.Insert(ctx, row)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order request")
	}
	return inserted, nil
}

func validateEvent(event checkout.RequestedEvent) error {
	switch {
	case event.EventID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "event_id is required")
	case event.EventType != checkout.EventCheckoutRequested:
		return pkgerrors.New(pkgerrors.CodeValidation, "unexpected event type").
			WithDetails(map[string]any{"event_type": event.EventType})
	case len(event.Items) == 0 || event.TotalCount <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order request has no items")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (pagination.Page[OrderRequestDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[OrderRequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return pagination.Page[OrderRequestDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list order requests")
	}
	dtos := make([]OrderRequestDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, NewOrderRequestDTO(&rows[i]))
	}
	return pagination.Trim(dtos, params.Limit, func(d OrderRequestDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: d.ReceivedAt, ID: d.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*OrderRequestDTO, error) {
	row, err := s.repo.Find(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order request not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order request")
	}
	dto := NewOrderRequestDTO(row)
	return &dto, nil
}
