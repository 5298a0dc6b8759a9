package orders

import (
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
)

// rule is one row of the transition table. An empty to keeps the status.
type rule struct {
	role      enums.ActorRole
	from      []enums.OrderStatus
	to        enums.OrderStatus
	ownerOnly bool
}

var nonTerminal = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusReachedLocation,
	enums.OrderStatusPickedUp,
	enums.OrderStatusDeliveredToHub,
	enums.OrderStatusReady,
	enums.OrderStatusProcessing,
	enums.OrderStatusIroning,
	enums.OrderStatusProcessCompleted,
	enums.OrderStatusOutForDelivery,
	enums.OrderStatusDeliveryFailed,
}

// transitions is shared by the customer, partner and admin surfaces.
var transitions = map[enums.OrderAction]rule{
	enums.OrderActionAcceptPickup: {
		role: enums.ActorRolePartner,
		from: []enums.OrderStatus{enums.OrderStatusPending},
	},
	enums.OrderActionReachLocation: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusPending},
		to:        enums.OrderStatusReachedLocation,
		ownerOnly: true,
	},
	enums.OrderActionPickUp: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusReachedLocation},
		to:        enums.OrderStatusPickedUp,
		ownerOnly: true,
	},
	enums.OrderActionDropAtHub: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusPickedUp},
		to:        enums.OrderStatusDeliveredToHub,
		ownerOnly: true,
	},
	enums.OrderActionApproveHub: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusDeliveredToHub},
		to:   enums.OrderStatusReady,
	},
	enums.OrderActionStartProcessing: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusReady},
		to:   enums.OrderStatusProcessing,
	},
	enums.OrderActionStartIroning: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusProcessing},
		to:   enums.OrderStatusIroning,
	},
	enums.OrderActionCompleteProcessing: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusIroning},
		to:   enums.OrderStatusProcessCompleted,
	},
	enums.OrderActionStartDelivery: {
		role: enums.ActorRolePartner,
		from: []enums.OrderStatus{enums.OrderStatusProcessCompleted},
		to:   enums.OrderStatusOutForDelivery,
	},
	enums.OrderActionReleaseDelivery: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusOutForDelivery},
		to:        enums.OrderStatusProcessCompleted,
		ownerOnly: true,
	},
	enums.OrderActionDeliver: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusOutForDelivery},
		to:        enums.OrderStatusDelivered,
		ownerOnly: true,
	},
	enums.OrderActionFailDelivery: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusOutForDelivery},
		to:        enums.OrderStatusDeliveryFailed,
		ownerOnly: true,
	},
	enums.OrderActionCancel: {
		role: enums.ActorRoleCustomer,
		from: []enums.OrderStatus{enums.OrderStatusPending, enums.OrderStatusReachedLocation},
		to:   enums.OrderStatusCancelled,
	},
	enums.OrderActionAdminCancel: {
		role: enums.ActorRoleAdmin,
		from: nonTerminal,
		to:   enums.OrderStatusCancelled,
	},
	enums.OrderActionRequestReturn: {
		role:      enums.ActorRolePartner,
		from:      []enums.OrderStatus{enums.OrderStatusDeliveryFailed},
		ownerOnly: true,
	},
	enums.OrderActionApproveReturn: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusDeliveryFailed},
		to:   enums.OrderStatusDeliveredToHub,
	},
	enums.OrderActionDeclineReturn: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusDeliveryFailed},
	},
	enums.OrderActionScheduleRedelivery: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusDeliveredToHub},
		to:   enums.OrderStatusProcessCompleted,
	},
	enums.OrderActionSuspend: {
		role: enums.ActorRoleAdmin,
		from: []enums.OrderStatus{enums.OrderStatusDeliveryFailed, enums.OrderStatusDeliveredToHub},
		to:   enums.OrderStatusSuspended,
	},
}

func (r rule) target(current enums.OrderStatus) enums.OrderStatus {
	if r.to == "" {
		return current
	}
	return r.to
}

func (r rule) allowsFrom(status enums.OrderStatus) bool {
	for _, candidate := range r.from {
		if candidate == status {
			return true
		}
	}
	return false
}

// checkTransition validates action against the stored order without writing.
// Table misses are InvalidTransition; ownership failures are reported
// separately so partners can tell a lost claim from a bad command. A refunded
// order accepts no further actions.
func checkTransition(order *models.Order, action enums.OrderAction, actor Actor, maxAttempts int) (rule, error) {
	r, ok := transitions[action]
	if !ok || r.role != actor.Role || !r.allowsFrom(order.Status) {
		return rule{}, invalidTransition(order, action)
	}
	if order.RefundProcessed {
		return rule{}, pkgerrors.Newf(pkgerrors.CodeAlreadySettled, "%s was already refunded", order.Code())
	}

	switch {
	case r.ownerOnly && !heldBy(order, actor):
		return rule{}, ownershipMismatch(order)
	case action == enums.OrderActionAcceptPickup && order.PartnerID != nil && !heldBy(order, actor):
		return rule{}, ownershipMismatch(order)
	case action == enums.OrderActionCancel && order.CustomerID != actor.ID:
		return rule{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	switch action {
	case enums.OrderActionApproveHub:
		if order.ReturnState == enums.ReturnStateApproved {
			return rule{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s has an approved return awaiting redelivery or suspension", order.Code())
		}
	case enums.OrderActionRequestReturn:
		if order.ReturnState != enums.ReturnStateNone && order.ReturnState != enums.ReturnStateDeclined {
			return rule{}, returnStateConflict(order, action)
		}
	case enums.OrderActionApproveReturn, enums.OrderActionDeclineReturn:
		if order.ReturnState != enums.ReturnStateRequested {
			return rule{}, returnStateConflict(order, action)
		}
	case enums.OrderActionScheduleRedelivery:
		if order.ReturnState != enums.ReturnStateApproved {
			return rule{}, returnStateConflict(order, action)
		}
		if order.FailedDeliveryAttempts >= maxAttempts {
			return rule{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s reached the maximum of %d delivery attempts", order.Code(), maxAttempts)
		}
	case enums.OrderActionSuspend:
		if order.FailedDeliveryAttempts < maxAttempts {
			return rule{}, pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s can only be suspended after a failed redelivery", order.Code())
		}
	}
	return r, nil
}

// allowedActions lists what actor may do next, for client hints.
func allowedActions(order *models.Order, actor Actor, maxAttempts int) []enums.OrderAction {
	var out []enums.OrderAction
	for _, action := range orderedActions {
		if action == enums.OrderActionAcceptPickup && heldBy(order, actor) {
			continue
		}
		if _, err := checkTransition(order, action, actor, maxAttempts); err == nil {
			out = append(out, action)
		}
	}
	return out
}

var orderedActions = []enums.OrderAction{
	enums.OrderActionAcceptPickup,
	enums.OrderActionReachLocation,
	enums.OrderActionPickUp,
	enums.OrderActionDropAtHub,
	enums.OrderActionApproveHub,
	enums.OrderActionStartProcessing,
	enums.OrderActionStartIroning,
	enums.OrderActionCompleteProcessing,
	enums.OrderActionStartDelivery,
	enums.OrderActionReleaseDelivery,
	enums.OrderActionDeliver,
	enums.OrderActionFailDelivery,
	enums.OrderActionCancel,
	enums.OrderActionAdminCancel,
	enums.OrderActionRequestReturn,
	enums.OrderActionApproveReturn,
	enums.OrderActionDeclineReturn,
	enums.OrderActionScheduleRedelivery,
	enums.OrderActionSuspend,
}

func heldBy(order *models.Order, actor Actor) bool {
	return order.PartnerID != nil && *order.PartnerID == actor.ID
}

func invalidTransition(order *models.Order, action enums.OrderAction) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s %s while it is %s", action, order.Code(), order.Status).
		WithDetails(map[string]any{"status": order.Status, "action": action})
}

func returnStateConflict(order *models.Order, action enums.OrderAction) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot %s %s while its return is %s", action, order.Code(), order.ReturnState).
		WithDetails(map[string]any{"return_state": order.ReturnState, "action": action})
}

func ownershipMismatch(order *models.Order) error {
	return pkgerrors.Newf(pkgerrors.CodeOwnershipMismatch, "%s is assigned to another partner", order.Code())
}
