package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// Partner is a delivery agent. Totals are maintained by the stats consumer.
type Partner struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Phone           string          `gorm:"column:phone;not null;uniqueIndex"`
	KYCStatus       enums.KYCStatus `gorm:"column:kyc_status;type:kyc_status_enum;not null;default:'pending'"`
	Active          bool            `gorm:"column:active;not null;default:true"`
	TotalDeliveries int64           `gorm:"column:total_deliveries;not null;default:0"`
	TotalEarnings   int64           `gorm:"column:total_earnings;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Partner) TableName() string { return "partners" }

// Assignable reports whether the partner may take new orders.
func (p Partner) Assignable() bool {
	return p.Active && p.KYCStatus == enums.KYCStatusVerified
}
