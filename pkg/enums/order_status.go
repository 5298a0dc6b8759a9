package enums

import "fmt"

// OrderStatus mirrors the order_status column.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusReachedLocation  OrderStatus = "reached_location"
	OrderStatusPickedUp         OrderStatus = "picked_up"
	OrderStatusDeliveredToHub   OrderStatus = "delivered_to_hub"
	OrderStatusReady            OrderStatus = "ready"
	OrderStatusProcessing       OrderStatus = "processing"
	OrderStatusIroning          OrderStatus = "ironing"
	OrderStatusProcessCompleted OrderStatus = "process_completed"
	OrderStatusOutForDelivery   OrderStatus = "out_for_delivery"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusDeliveryFailed   OrderStatus = "delivery_failed"
	OrderStatusSuspended        OrderStatus = "suspended"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusReachedLocation,
	OrderStatusPickedUp,
	OrderStatusDeliveredToHub,
	OrderStatusReady,
	OrderStatusProcessing,
	OrderStatusIroning,
	OrderStatusProcessCompleted,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusDeliveryFailed,
	OrderStatusSuspended,
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusCancelled, OrderStatusSuspended:
		return true
	default:
		return false
	}
}

func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatuses returns every known status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}
