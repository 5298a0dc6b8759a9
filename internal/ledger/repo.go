package ledger

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// Repository manages persistence for wallet transactions. Rows are never
// updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.WalletTransaction) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, source enums.WalletEntrySource) (bool, error)
	SumForOrder(ctx context.Context, orderID uuid.UUID, sources []enums.WalletEntrySource) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Scopes(pagination.Keyset(params)).
		Find(&entries).Error
	return entries, err
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID, source enums.WalletEntrySource) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("order_id = ? AND source = ?", orderID, source).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SumForOrder(ctx context.Context, orderID uuid.UUID, sources []enums.WalletEntrySource) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("order_id = ? AND source IN ?", orderID, sources).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT)").
		Scan(&total).Error
	return total, err
}

// cursorOf keys the customer history page.
func cursorOf(entry models.WalletTransaction) pagination.Cursor {
	return pagination.Cursor{CreatedAt: entry.CreatedAt, ID: entry.ID}
}
