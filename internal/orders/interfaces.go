package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their status history.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	NextOrderNumber(ctx context.Context) (int64, error)
	CustomerExists(ctx context.Context, customerID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateGuarded(ctx context.Context, order *models.Order, updates map[string]any) (int64, error)
	AppendHistory(ctx context.Context, event *models.OrderStatusEvent) error
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusEvent, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params) ([]models.Order, error)
	ListChargedUnsettledBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	ListRefundedSince(ctx context.Context, since time.Time, limit int) ([]models.Order, error)
	Delete(ctx context.Context, order *models.Order) (int64, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// FeeSource supplies the current order charge settings.
type FeeSource interface {
	Current(ctx context.Context) (fees.Settings, error)
}

// WalletCharger collects an assessed fee inside the transition's transaction.
type WalletCharger interface {
	AssessCharge(ctx context.Context, tx *gorm.DB, input wallet.ChargeInput) (*wallet.ChargeResult, error)
}

// PartnerDirectory reports whether a partner may take orders. A nil error
// means the partner is verified and active.
type PartnerDirectory interface {
	EnsureAssignable(ctx context.Context, partnerID uuid.UUID) error
}

type transitionObserver interface {
	ObserveTransition(action, role, outcome string)
}

// ListFilters narrows order listings. PartnerQueue widens a partner listing to
// unclaimed pickups and deliveries.
type ListFilters struct {
	CustomerID   *uuid.UUID
	PartnerID    *uuid.UUID
	PartnerQueue bool
	Status       *enums.OrderStatus
	ReturnState  *enums.ReturnState
}
