package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// NextOrderNumber reads MAX+1. The unique index on order_number rejects a
// racing insert and the caller retries.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	row := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), 0) + 1").
		Row()
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *repository) CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customerID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateGuarded applies updates only while the row still has the status and
// version that were read, bumping the version. Zero rows means another writer
// got there first.
func (r *repository) UpdateGuarded(ctx context.Context, order *models.Order, updates map[string]any) (int64, error) {
	updates["version"] = order.Version + 1
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ? AND version = ?", order.ID, order.Status, order.Version).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) AppendHistory(ctx context.Context, event *models.OrderStatusEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error) {
	var events []models.OrderStatusEvent
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})

	if filters.CustomerID != nil {
		query = query.Where("customer_id = ?", *filters.CustomerID)
	}
	if filters.PartnerID != nil {
		if filters.PartnerQueue {
			query = query.Where("(partner_id = ? OR (partner_id IS NULL AND status IN ?))",
				*filters.PartnerID,
				[]enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusProcessCompleted})
		} else {
			query = query.Where("partner_id = ?", *filters.PartnerID)
		}
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ReturnState != nil {
		query = query.Where("return_state = ?", *filters.ReturnState)
	}

	var orders []models.Order
	err := query.Scopes(pagination.Keyset(params)).Find(&orders).Error
	return orders, err
}

// ListChargedUnsettledBefore returns settleable orders still awaiting a refund
// whose terminal event happened before cutoff.
func (r *repository) ListChargedUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("refund_processed = ?", false).
		Where("status IN ?", []enums.OrderStatus{
			enums.OrderStatusCancelled,
			enums.OrderStatusDeliveryFailed,
			enums.OrderStatusSuspended,
		}).
		Where("updated_at < ?", cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListRefundedSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("refund_processed = ? AND refunded_at >= ?", true, since).
		Order("refunded_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// Delete removes the order and its history, guarded by version.
func (r *repository) Delete(ctx context.Context, order *models.Order) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Delete(&models.Order{})
	if res.Error != nil || res.RowsAffected == 0 {
		return res.RowsAffected, res.Error
	}
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Delete(&models.OrderStatusEvent{}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
