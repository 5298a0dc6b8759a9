package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
	"github.com/laundryhub/laundry-backend/pkg/outbox/payloads"
)

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         outbox.NewActorRef(order.CustomerID, enums.ActorRoleCustomer),
		OccurredAt:    order.CreatedAt,
		Data: payloads.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			CustomerID:  order.CustomerID,
			TotalAmount: order.TotalAmount,
		},
	})
}

// emitTransition queues the generic status change plus the action-specific
// event consumers subscribe to.
func (s *service) emitTransition(ctx context.Context, tx *gorm.DB, input TransitionInput, from enums.OrderStatus, order *models.Order, change *transitionPlan) error {
	actor := outbox.NewActorRef(input.Actor.ID, input.Actor.Role)
	events := []outbox.DomainEvent{{
		EventType: enums.EventOrderStatusChanged,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			PartnerID:  order.PartnerID,
			Action:     input.Action,
			FromStatus: from,
			ToStatus:   order.Status,
			Version:    order.Version,
			ChangedAt:  change.at,
		},
	}}

	if specific, ok := s.actionEvent(input, order, change); ok {
		events = append(events, specific)
	}

	for _, event := range events {
		event.AggregateType = enums.AggregateOrder
		event.AggregateID = order.ID
		event.Actor = actor
		event.OccurredAt = change.at
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) actionEvent(input TransitionInput, order *models.Order, change *transitionPlan) (outbox.DomainEvent, bool) {
	switch input.Action {
	case enums.OrderActionCancel, enums.OrderActionAdminCancel:
		reason := ""
		if order.CancellationReason != nil {
			reason = *order.CancellationReason
		}
		return outbox.DomainEvent{
			EventType: enums.EventOrderCancelled,
			Data: payloads.OrderCancelledEvent{
				OrderID:         order.ID,
				CustomerID:      order.CustomerID,
				CancelledBy:     input.Actor.Role,
				Reason:          reason,
				CancellationFee: change.chargeAmount,
			},
		}, true
	case enums.OrderActionDeliver:
		return outbox.DomainEvent{
			EventType: enums.EventOrderDelivered,
			Data: payloads.OrderDeliveredEvent{
				OrderID:     order.ID,
				CustomerID:  order.CustomerID,
				PartnerID:   input.Actor.ID,
				DeliveredAt: change.at,
			},
		}, true
	case enums.OrderActionFailDelivery:
		note := ""
		if change.note != nil {
			note = *change.note
		}
		return outbox.DomainEvent{
			EventType: enums.EventDeliveryFailed,
			Data: payloads.DeliveryFailedEvent{
				OrderID:        order.ID,
				CustomerID:     order.CustomerID,
				PartnerID:      order.PartnerID,
				Reasons:        []string(order.DeliveryFailureReasons),
				Note:           note,
				FailureFee:     change.chargeAmount,
				AttemptNumber:  order.FailedDeliveryAttempts,
				AttemptsRemain: max(0, s.maxAttempts-order.FailedDeliveryAttempts),
			},
		}, true
	case enums.OrderActionRequestReturn:
		return outbox.DomainEvent{
			EventType: enums.EventReturnRequested,
			Data:      payloads.ReturnRequestedEvent{OrderID: order.ID, PartnerID: order.PartnerID},
		}, true
	case enums.OrderActionApproveReturn, enums.OrderActionDeclineReturn:
		hub := ""
		if order.HubCode != nil {
			hub = *order.HubCode
		}
		return outbox.DomainEvent{
			EventType: enums.EventReturnResolved,
			Data: payloads.ReturnResolvedEvent{
				OrderID:  order.ID,
				State:    order.ReturnState,
				HubCode:  hub,
				Resolved: change.at,
			},
		}, true
	case enums.OrderActionScheduleRedelivery:
		return outbox.DomainEvent{
			EventType: enums.EventRedeliveryScheduled,
			Data: payloads.RedeliveryScheduledEvent{
				OrderID:       order.ID,
				CustomerID:    order.CustomerID,
				AttemptNumber: order.FailedDeliveryAttempts + 1,
				ScheduledAt:   change.at,
			},
		}, true
	case enums.OrderActionSuspend:
		reason := ""
		if order.SuspensionReason != nil {
			reason = *order.SuspensionReason
		}
		return outbox.DomainEvent{
			EventType: enums.EventOrderSuspended,
			Data: payloads.OrderSuspendedEvent{
				OrderID:    order.ID,
				CustomerID: order.CustomerID,
				Reason:     reason,
			},
		}, true
	default:
		return outbox.DomainEvent{}, false
	}
}

func (s *service) emitDeleted(ctx context.Context, tx *gorm.DB, order *models.Order, actor Actor) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderDeleted,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         outbox.NewActorRef(actor.ID, actor.Role),
		Data: payloads.OrderDeletedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Status:      order.Status,
		},
	})
}
