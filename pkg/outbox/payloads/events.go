package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

type OrderCreatedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber int64     `json:"order_number"`
	CustomerID  uuid.UUID `json:"customer_id"`
	TotalAmount int64     `json:"total_amount"`
}

// OrderStatusChangedEvent is emitted for every applied transition.
type OrderStatusChangedEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	CustomerID uuid.UUID         `json:"customer_id"`
	PartnerID  *uuid.UUID        `json:"partner_id,omitempty"`
	Action     enums.OrderAction `json:"action"`
	FromStatus enums.OrderStatus `json:"from_status"`
	ToStatus   enums.OrderStatus `json:"to_status"`
	Version    int64             `json:"version"`
	ChangedAt  time.Time         `json:"changed_at"`
}

type OrderCancelledEvent struct {
	OrderID         uuid.UUID       `json:"order_id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	CancelledBy     enums.ActorRole `json:"cancelled_by"`
	Reason          string          `json:"reason,omitempty"`
	CancellationFee int64           `json:"cancellation_fee"`
}

type OrderDeliveredEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	PartnerID   uuid.UUID `json:"partner_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

type DeliveryFailedEvent struct {
	OrderID        uuid.UUID  `json:"order_id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	PartnerID      *uuid.UUID `json:"partner_id,omitempty"`
	Reasons        []string   `json:"reasons"`
	Note           string     `json:"note,omitempty"`
	FailureFee     int64      `json:"failure_fee"`
	AttemptNumber  int        `json:"attempt_number"`
	AttemptsRemain int        `json:"attempts_remaining"`
}

type ReturnRequestedEvent struct {
	OrderID   uuid.UUID  `json:"order_id"`
	PartnerID *uuid.UUID `json:"partner_id,omitempty"`
}

type ReturnResolvedEvent struct {
	OrderID  uuid.UUID         `json:"order_id"`
	State    enums.ReturnState `json:"state"`
	HubCode  string            `json:"hub_code,omitempty"`
	Resolved time.Time         `json:"resolved_at"`
}

type RedeliveryScheduledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
	AttemptNumber int       `json:"attempt_number"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type OrderSuspendedEvent struct {
	OrderID    uuid.UUID `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	Reason     string    `json:"reason"`
}

type OrderDeletedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber int64             `json:"order_number"`
	Status      enums.OrderStatus `json:"status"`
}

// ChargeAssessedEvent reports how a fee was collected.
type ChargeAssessedEvent struct {
	OrderID       uuid.UUID        `json:"order_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	Kind          enums.ChargeKind `json:"kind"`
	Amount        int64            `json:"amount"`
	FromWallet    int64            `json:"from_wallet"`
	AddedToDue    int64            `json:"added_to_due"`
	WalletBalance int64            `json:"wallet_balance"`
	DueAmount     int64            `json:"due_amount"`
}

type RefundSettledEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	CustomerID    uuid.UUID         `json:"customer_id"`
	RefundAmount  int64             `json:"refund_amount"`
	DueCleared    int64             `json:"due_cleared"`
	WalletBalance int64             `json:"wallet_balance"`
	DueAmount     int64             `json:"due_amount"`
	OrderStatus   enums.OrderStatus `json:"order_status"`
	SettledAt     time.Time         `json:"settled_at"`
}

type WalletAdjustedEvent struct {
	TransactionID uuid.UUID                   `json:"transaction_id"`
	CustomerID    uuid.UUID                   `json:"customer_id"`
	Type          enums.WalletTransactionType `json:"type"`
	Action        enums.WalletAction          `json:"action"`
	Source        enums.WalletEntrySource     `json:"source"`
	Amount        int64                       `json:"amount"`
	PreviousValue int64                       `json:"previous_value"`
	NewValue      int64                       `json:"new_value"`
}
