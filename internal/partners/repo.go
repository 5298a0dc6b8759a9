package partners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
)

// Repository persists delivery partners.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Partner, error)
	RecordDelivery(ctx context.Context, partnerID uuid.UUID, payout int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	var partner models.Partner
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&partner).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}

// RecordDelivery bumps the running totals in a single statement.
func (r *repository) RecordDelivery(ctx context.Context, partnerID uuid.UUID, payout int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", partnerID).
		Updates(map[string]any{
			"total_deliveries": gorm.Expr("total_deliveries + 1"),
			"total_earnings":   gorm.Expr("total_earnings + ?", payout),
		})
	return res.RowsAffected, res.Error
}
