package fees

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
)

// Repository persists the singleton order charge settings row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Get(ctx context.Context) (*models.OrderChargeSettings, error)
	Upsert(ctx context.Context, row *models.OrderChargeSettings) error
	CreateIfMissing(ctx context.Context, row *models.OrderChargeSettings) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Get(ctx context.Context) (*models.OrderChargeSettings, error) {
	var row models.OrderChargeSettings
	if err := r.db.WithContext(ctx).
		Where("id = ?", models.OrderChargeSettingsID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) Upsert(ctx context.Context, row *models.OrderChargeSettings) error {
	row.ID = models.OrderChargeSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"cancellation_percentage",
				"customer_unavailable",
				"incorrect_address",
				"refusal_to_accept",
				"min_failure_fee",
				"max_failure_fee",
				"updated_by",
				"updated_at",
			}),
		}).
		Create(row).Error
}

func (r *repository) CreateIfMissing(ctx context.Context, row *models.OrderChargeSettings) error {
	row.ID = models.OrderChargeSettingsID
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error
}
