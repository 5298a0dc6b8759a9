package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// Actor is the authenticated caller issuing an order command.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

func (a Actor) wallet() wallet.Actor {
	return wallet.Actor{ID: a.ID, Role: a.Role}
}

func (a Actor) idPtr() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

// TransitionPayload carries the optional, action-specific command data.
type TransitionPayload struct {
	Reasons    []enums.DeliveryFailureReason
	Note       string
	Reason     string
	HubCode    string
	NewAddress *string
	NewSlot    *string
}

// TransitionInput asks the state machine to apply one action. A non-nil
// ExpectedVersion must match the stored row.
type TransitionInput struct {
	OrderID         uuid.UUID
	Actor           Actor
	Action          enums.OrderAction
	Payload         TransitionPayload
	ExpectedVersion *int64
}

// BookInput creates a new pending order for a customer.
type BookInput struct {
	CustomerID      uuid.UUID
	TotalAmount     int64
	PickupAddress   string
	PickupSlot      string
	DeliveryAddress string
	DeliverySlot    string
}

// ScheduleRedeliveryInput optionally moves the redelivery to a new address or slot.
type ScheduleRedeliveryInput struct {
	OrderID    uuid.UUID
	Actor      Actor
	NewAddress *string
	NewSlot    *string
}

// SuspendInput ends a failed redelivery. Reason is required.
type SuspendInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Reason  string
}

// ReturnInput identifies a return-to-hub command. HubCode records which hub
// received the parcel on approval.
type ReturnInput struct {
	OrderID uuid.UUID
	Actor   Actor
	Note    string
	HubCode string
}

// OrderView is the API representation of an order.
type OrderView struct {
	ID                     uuid.UUID            `json:"id"`
	OrderNumber            int64                `json:"order_number"`
	Code                   string               `json:"code"`
	CustomerID             uuid.UUID            `json:"customer_id"`
	PartnerID              *uuid.UUID           `json:"partner_id,omitempty"`
	HubCode                *string              `json:"hub_code,omitempty"`
	Status                 enums.OrderStatus    `json:"status"`
	ReturnState            enums.ReturnState    `json:"return_state"`
	Version                int64                `json:"version"`
	TotalAmount            int64                `json:"total_amount"`
	PickupAddress          string               `json:"pickup_address"`
	PickupSlot             string               `json:"pickup_slot"`
	DeliveryAddress        string               `json:"delivery_address"`
	DeliverySlot           string               `json:"delivery_slot"`
	ChargeKind             enums.ChargeKind     `json:"charge_kind"`
	CancellationFee        int64                `json:"cancellation_fee"`
	CancellationReason     *string              `json:"cancellation_reason,omitempty"`
	CancelledBy            *enums.ActorRole     `json:"cancelled_by,omitempty"`
	DeliveryFailureFee     int64                `json:"delivery_failure_fee"`
	DeliveryFailureReasons []string             `json:"delivery_failure_reasons"`
	DeliveryFailureNote    *string              `json:"delivery_failure_note,omitempty"`
	FailedDeliveryAttempts int                  `json:"failed_delivery_attempts"`
	SuspensionReason       *string              `json:"suspension_reason,omitempty"`
	Refund                 RefundView           `json:"refund"`
	Milestones             map[string]time.Time `json:"milestones"`
	Charge                 *wallet.ChargeResult `json:"charge,omitempty"`
	AllowedActions         []enums.OrderAction  `json:"allowed_actions,omitempty"`
	CreatedAt              time.Time            `json:"created_at"`
	UpdatedAt              time.Time            `json:"updated_at"`
}

// RefundView summarizes the settlement state of an order.
type RefundView struct {
	Processed  bool       `json:"processed"`
	Amount     int64      `json:"amount"`
	Reason     *string    `json:"reason,omitempty"`
	RefundedAt *time.Time `json:"refunded_at,omitempty"`
}

// OrderList is one page of orders, newest first.
type OrderList = pagination.Page[OrderView]

// HistoryEntry is one applied transition.
type HistoryEntry struct {
	ID          uuid.UUID         `json:"id"`
	Action      enums.OrderAction `json:"action"`
	FromStatus  enums.OrderStatus `json:"from_status"`
	ToStatus    enums.OrderStatus `json:"to_status"`
	ReturnState enums.ReturnState `json:"return_state"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
	ActorID     *uuid.UUID        `json:"actor_id,omitempty"`
	Note        *string           `json:"note,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// CancellationQuote previews what cancelling would cost the customer now.
type CancellationQuote struct {
	OrderID         uuid.UUID       `json:"order_id"`
	Cancellable     bool            `json:"cancellable"`
	PartnerAssigned bool            `json:"partner_assigned"`
	Percentage      decimal.Decimal `json:"percentage"`
	Fee             int64           `json:"fee"`
}
