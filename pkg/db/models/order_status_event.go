package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// OrderStatusEvent is one row of an order's append-only status history.
type OrderStatusEvent struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index"`
	FromStatus  enums.OrderStatus `gorm:"column:from_status;type:order_status_enum;not null"`
	ToStatus    enums.OrderStatus `gorm:"column:to_status;type:order_status_enum;not null"`
	ReturnState enums.ReturnState `gorm:"column:return_state;type:return_state_enum;not null"`
	Action      enums.OrderAction `gorm:"column:action;not null"`
	ActorRole   enums.ActorRole   `gorm:"column:actor_role;type:actor_role_enum;not null"`
	ActorID     *uuid.UUID        `gorm:"column:actor_id;type:uuid"`
	Note        *string           `gorm:"column:note"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (OrderStatusEvent) TableName() string { return "order_status_events" }
