package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/laundryhub/laundry-backend/pkg/db/types"
	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// Order is the laundry order aggregate. Money columns are whole rupees.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64             `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID  uuid.UUID         `gorm:"column:customer_id;type:uuid;not null;index"`
	PartnerID   *uuid.UUID        `gorm:"column:partner_id;type:uuid;index"`
	HubCode     *string           `gorm:"column:hub_code"`
	Status      enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'pending'"`
	Version     int64             `gorm:"column:version;not null;default:1"`

	TotalAmount     int64  `gorm:"column:total_amount;not null"`
	PickupAddress   string `gorm:"column:pickup_address;not null"`
	PickupSlot      string `gorm:"column:pickup_slot;not null"`
	DeliveryAddress string `gorm:"column:delivery_address;not null"`
	DeliverySlot    string `gorm:"column:delivery_slot;not null"`

	ChargeKind             enums.ChargeKind   `gorm:"column:charge_kind;type:charge_kind_enum;not null;default:'none'"`
	CancellationFee        int64              `gorm:"column:cancellation_fee;not null;default:0"`
	CancellationReason     *string            `gorm:"column:cancellation_reason"`
	CancelledBy            *enums.ActorRole   `gorm:"column:cancelled_by;type:actor_role_enum"`
	DeliveryFailureFee     int64              `gorm:"column:delivery_failure_fee;not null;default:0"`
	DeliveryFailureReasons dbtypes.StringList `gorm:"column:delivery_failure_reasons;type:jsonb;not null;default:'[]'"`
	DeliveryFailureNote    *string            `gorm:"column:delivery_failure_note"`
	ChargeAssessedAt       *time.Time         `gorm:"column:charge_assessed_at"`

	RefundProcessed bool       `gorm:"column:refund_processed;not null;default:false"`
	RefundAmount    int64      `gorm:"column:refund_amount;not null;default:0"`
	RefundReason    *string    `gorm:"column:refund_reason"`
	RefundedAt      *time.Time `gorm:"column:refunded_at"`

	ReturnState            enums.ReturnState `gorm:"column:return_state;type:return_state_enum;not null;default:'none'"`
	FailedDeliveryAttempts int               `gorm:"column:failed_delivery_attempts;not null;default:0"`
	ReturnRequestedAt      *time.Time        `gorm:"column:return_requested_at"`
	ReturnResolvedAt       *time.Time        `gorm:"column:return_resolved_at"`
	RedeliveryScheduledAt  *time.Time        `gorm:"column:redelivery_scheduled_at"`
	SuspensionReason       *string           `gorm:"column:suspension_reason"`

	ReachedLocationAt  *time.Time `gorm:"column:reached_location_at"`
	PickedUpAt         *time.Time `gorm:"column:picked_up_at"`
	DeliveredToHubAt   *time.Time `gorm:"column:delivered_to_hub_at"`
	HubApprovedAt      *time.Time `gorm:"column:hub_approved_at"`
	ProcessingAt       *time.Time `gorm:"column:processing_at"`
	IroningAt          *time.Time `gorm:"column:ironing_at"`
	ProcessCompletedAt *time.Time `gorm:"column:process_completed_at"`
	OutForDeliveryAt   *time.Time `gorm:"column:out_for_delivery_at"`
	OutForRedeliveryAt *time.Time `gorm:"column:out_for_redelivery_at"`
	DeliveredAt        *time.Time `gorm:"column:delivered_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	DeliveryFailedAt   *time.Time `gorm:"column:delivery_failed_at"`
	SuspendedAt        *time.Time `gorm:"column:suspended_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// Code renders the human-facing order reference.
func (o Order) Code() string {
	return fmt.Sprintf("ORD-%d", o.OrderNumber)
}
