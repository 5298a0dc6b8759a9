package enums

import "fmt"

// OrderAction names an actor command against an order.
type OrderAction string

const (
	OrderActionAcceptPickup       OrderAction = "accept_pickup"
	OrderActionReachLocation      OrderAction = "reach_location"
	OrderActionPickUp             OrderAction = "pick_up"
	OrderActionDropAtHub          OrderAction = "drop_at_hub"
	OrderActionApproveHub         OrderAction = "approve_hub"
	OrderActionStartProcessing    OrderAction = "start_processing"
	OrderActionStartIroning       OrderAction = "start_ironing"
	OrderActionCompleteProcessing OrderAction = "complete_processing"
	OrderActionStartDelivery      OrderAction = "start_delivery"
	OrderActionReleaseDelivery    OrderAction = "release_delivery"
	OrderActionDeliver            OrderAction = "deliver"
	OrderActionFailDelivery       OrderAction = "fail_delivery"
	OrderActionCancel             OrderAction = "cancel"
	OrderActionAdminCancel        OrderAction = "admin_cancel"
	OrderActionRequestReturn      OrderAction = "request_return"
	OrderActionApproveReturn      OrderAction = "approve_return"
	OrderActionDeclineReturn      OrderAction = "decline_return"
	OrderActionScheduleRedelivery OrderAction = "schedule_redelivery"
	OrderActionSuspend            OrderAction = "suspend"
)

var validOrderActions = []OrderAction{
	OrderActionAcceptPickup,
	OrderActionReachLocation,
	OrderActionPickUp,
	OrderActionDropAtHub,
	OrderActionApproveHub,
	OrderActionStartProcessing,
	OrderActionStartIroning,
	OrderActionCompleteProcessing,
	OrderActionStartDelivery,
	OrderActionReleaseDelivery,
	OrderActionDeliver,
	OrderActionFailDelivery,
	OrderActionCancel,
	OrderActionAdminCancel,
	OrderActionRequestReturn,
	OrderActionApproveReturn,
	OrderActionDeclineReturn,
	OrderActionScheduleRedelivery,
	OrderActionSuspend,
}

func (a OrderAction) String() string {
	return string(a)
}

func (a OrderAction) IsValid() bool {
	for _, candidate := range validOrderActions {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseOrderAction(value string) (OrderAction, error) {
	for _, candidate := range validOrderActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order action %q", value)
}
