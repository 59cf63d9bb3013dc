package orderrequests

import (
	"context"

	"github.com/google/uuid"
	"github.com/primefit/storefront/pkg/db/models"
	"github.com/primefit/storefront/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists order requests.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores the row unless one with the same ID exists. It reports
// whether a row was written.
func (r *Repository) Insert(ctx context.Context, row *models.OrderRequest) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// List returns up to limit rows newest first, strictly after cursor.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.OrderRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.OrderRequest{})
	if cursor != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.OrderRequest
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Find loads one order request.
func (r *Repository) Find(ctx context.Context, id uuid.UUID) (*models.OrderRequest, error) {
	var row models.OrderRequest
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
