package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderChargeSettingsID pins the singleton settings row.
const OrderChargeSettingsID = 1

// OrderChargeSettings holds the admin-editable fee configuration.
type OrderChargeSettings struct {
	ID                     int             `gorm:"column:id;primaryKey"`
	CancellationPercentage decimal.Decimal `gorm:"column:cancellation_percentage;type:numeric(5,2);not null"`
	CustomerUnavailable    int64           `gorm:"column:customer_unavailable;not null"`
	IncorrectAddress       int64           `gorm:"column:incorrect_address;not null"`
	RefusalToAccept        int64           `gorm:"column:refusal_to_accept;not null"`
	MinFailureFee          int64           `gorm:"column:min_failure_fee;not null"`
	MaxFailureFee          int64           `gorm:"column:max_failure_fee;not null"`
	UpdatedBy              *uuid.UUID      `gorm:"column:updated_by;type:uuid"`
	CreatedAt              time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderChargeSettings) TableName() string { return "order_charge_settings" }
