package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// Balances are the customer ledger columns the wallet service writes.
type Balances struct {
	WalletBalance int64
	Points        int64
	DueAmount     int64
}

// RefundMark is written to the order when settlement completes. A non-empty
// SuspendReason also closes the order as suspended.
type RefundMark struct {
	Amount        int64
	Reason        string
	At            time.Time
	SuspendReason string
	ActorRole     enums.ActorRole
	ActorID       *uuid.UUID
}

// Repository defines persistence for customer balances and the refund flag on
// orders. Writes are guarded by the row version.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateBalances(ctx context.Context, customer *models.Customer, next Balances) (int64, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	MarkRefunded(ctx context.Context, order *models.Order, mark RefundMark) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *repository) UpdateBalances(ctx context.Context, customer *models.Customer, next Balances) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ? AND version = ?", customer.ID, customer.Version).
		Updates(map[string]any{
			"wallet_balance": next.WalletBalance,
			"points":         next.Points,
			"due_amount":     next.DueAmount,
			"version":        customer.Version + 1,
			"updated_at":     time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkRefunded flips refund_processed exactly once per order. Closing the
// order appends the matching status history row in the same statement set.
func (r *repository) MarkRefunded(ctx context.Context, order *models.Order, mark RefundMark) (int64, error) {
	updates := map[string]any{
		"refund_processed": true,
		"refund_amount":    mark.Amount,
		"refund_reason":    mark.Reason,
		"refunded_at":      mark.At,
		"version":          order.Version + 1,
		"updated_at":       mark.At,
	}
	if mark.SuspendReason != "" {
		updates["status"] = enums.OrderStatusSuspended
		updates["return_state"] = enums.ReturnStateSuspended
		updates["suspension_reason"] = mark.SuspendReason
		updates["suspended_at"] = mark.At
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ? AND refund_processed = ?", order.ID, order.Version, false).
		Updates(updates)
	if res.Error != nil || res.RowsAffected == 0 || mark.SuspendReason == "" {
		return res.RowsAffected, res.Error
	}

	note := mark.SuspendReason
	if err := r.db.WithContext(ctx).Create(&models.OrderStatusEvent{
		ID:          uuid.New(),
		OrderID:     order.ID,
		FromStatus:  order.Status,
		ToStatus:    enums.OrderStatusSuspended,
		ReturnState: enums.ReturnStateSuspended,
		Action:      enums.OrderActionSuspend,
		ActorRole:   mark.ActorRole,
		ActorID:     mark.ActorID,
		Note:        &note,
		CreatedAt:   mark.At,
	}).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}
