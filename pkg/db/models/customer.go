package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer carries the ledger-relevant customer balances in whole rupees.
type Customer struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	Phone         string    `gorm:"column:phone;not null;uniqueIndex"`
	WalletBalance int64     `gorm:"column:wallet_balance;not null;default:0"`
	Points        int64     `gorm:"column:points;not null;default:0"`
	DueAmount     int64     `gorm:"column:due_amount;not null;default:0"`
	Version       int64     `gorm:"column:version;not null;default:1"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "customers" }
