package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateOrder             OutboxAggregateType = "order"
	AggregateCustomer          OutboxAggregateType = "customer"
	AggregateWalletTransaction OutboxAggregateType = "wallet_transaction"
	AggregatePartner           OutboxAggregateType = "partner"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateOrder,
	AggregateCustomer,
	AggregateWalletTransaction,
	AggregatePartner,
}

func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventOrderCreated        OutboxEventType = "order_created"
	EventOrderStatusChanged  OutboxEventType = "order_status_changed"
	EventOrderCancelled      OutboxEventType = "order_cancelled"
	EventOrderDelivered      OutboxEventType = "order_delivered"
	EventDeliveryFailed      OutboxEventType = "delivery_failed"
	EventReturnRequested     OutboxEventType = "return_requested"
	EventReturnResolved      OutboxEventType = "return_resolved"
	EventRedeliveryScheduled OutboxEventType = "redelivery_scheduled"
	EventOrderSuspended      OutboxEventType = "order_suspended"
	EventOrderDeleted        OutboxEventType = "order_deleted"
	EventChargeAssessed      OutboxEventType = "charge_assessed"
	EventRefundSettled       OutboxEventType = "refund_settled"
	EventWalletAdjusted      OutboxEventType = "wallet_adjusted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventOrderCancelled,
	EventOrderDelivered,
	EventDeliveryFailed,
	EventReturnRequested,
	EventReturnResolved,
	EventRedeliveryScheduled,
	EventOrderSuspended,
	EventOrderDeleted,
	EventChargeAssessed,
	EventRefundSettled,
	EventWalletAdjusted,
}

func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason records why a row left the outbox without publishing.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonUndecodable  OutboxDLQErrorReason = "undecodable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable, OutboxDLQReasonUndecodable:
		return true
	}
	return false
}
