package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// Actor identifies who moved money. System actors carry no id.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// SettleRefundInput requests the one-time refund of an order. RefundAmount
// defaults to the order total.
type SettleRefundInput struct {
	OrderID      uuid.UUID
	RefundAmount *int64
	Reason       string
	Actor        Actor
}

// SettlementResult reports the money moved by a settlement.
type SettlementResult struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderCode      string            `json:"order_code"`
	CustomerID     uuid.UUID         `json:"customer_id"`
	Settlement     Settlement        `json:"settlement"`
	WalletBefore   int64             `json:"wallet_before"`
	WalletAfter    int64             `json:"wallet_after"`
	RefundedAt     time.Time         `json:"refunded_at"`
	OrderStatus    enums.OrderStatus `json:"order_status"`
	TransactionIDs []uuid.UUID       `json:"transaction_ids"`
}

// ChargeInput asks the wallet to collect a fee assessed on an order. Attempt
// distinguishes repeated delivery failures on the same order.
type ChargeInput struct {
	Order   *models.Order
	Kind    enums.ChargeKind
	Amount  int64
	Attempt int
	Actor   Actor
}

// ChargeResult splits the fee between the wallet and the due amount.
type ChargeResult struct {
	Kind          enums.ChargeKind `json:"kind"`
	Amount        int64            `json:"amount"`
	FromWallet    int64            `json:"from_wallet"`
	AddedToDue    int64            `json:"added_to_due"`
	WalletBalance int64            `json:"wallet_balance"`
	DueAmount     int64            `json:"due_amount"`
}

// AdjustInput is an audited admin change to a wallet or points balance.
type AdjustInput struct {
	CustomerID     uuid.UUID
	Type           enums.WalletTransactionType
	Action         enums.WalletAction
	Amount         int64
	Reason         string
	Actor          Actor
	IdempotencyKey string
}

// ClearDuesInput clears all or part of a customer's due amount.
type ClearDuesInput struct {
	CustomerID     uuid.UUID
	Amount         *int64
	Reason         string
	Actor          Actor
	IdempotencyKey string
}

// Summary is the customer-facing wallet view.
type Summary struct {
	CustomerID    uuid.UUID `json:"customer_id"`
	WalletBalance int64     `json:"wallet_balance"`
	Points        int64     `json:"points"`
	DueAmount     int64     `json:"due_amount"`
}

// AdjustResult pairs the journal entry with the balances after the change.
type AdjustResult struct {
	Transaction *models.WalletTransaction `json:"transaction"`
	Wallet      Summary                   `json:"wallet"`
}

func summaryOf(customer *models.Customer) Summary {
	return Summary{
		CustomerID:    customer.ID,
		WalletBalance: customer.WalletBalance,
		Points:        customer.Points,
		DueAmount:     customer.DueAmount,
	}
}
