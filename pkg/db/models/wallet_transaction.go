package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// WalletTransaction is an immutable customer ledger entry.
type WalletTransaction struct {
	ID             uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID     uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID        *uuid.UUID                  `gorm:"column:order_id;type:uuid;index"`
	Type           enums.WalletTransactionType `gorm:"column:type;type:wallet_transaction_type_enum;not null"`
	Action         enums.WalletAction          `gorm:"column:action;type:wallet_action_enum;not null"`
	Source         enums.WalletEntrySource     `gorm:"column:source;type:wallet_entry_source_enum;not null"`
	Amount         int64                       `gorm:"column:amount;not null"`
	Reason         string                      `gorm:"column:reason;not null"`
	PreviousValue  int64                       `gorm:"column:previous_value;not null"`
	NewValue       int64                       `gorm:"column:new_value;not null"`
	ActorRole      enums.ActorRole             `gorm:"column:actor_role;type:actor_role_enum;not null"`
	ActorID        *uuid.UUID                  `gorm:"column:actor_id;type:uuid"`
	IdempotencyKey string                      `gorm:"column:idempotency_key;not null;uniqueIndex"`
	CreatedAt      time.Time                   `gorm:"column:created_at;autoCreateTime"`
}

func (WalletTransaction) TableName() string { return "wallet_transactions" }
