package orders

import (
	"context"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

// The return-to-hub overlay only exists on delivery_failed orders. Each
// command below is a thin entry point onto the shared transition table.

func (s *service) RequestReturnToHub(ctx context.Context, input ReturnInput) (*OrderView, error) {
	return s.Transition(ctx, TransitionInput{
		OrderID: input.OrderID,
		Actor:   input.Actor,
		Action:  enums.OrderActionRequestReturn,
		Payload: TransitionPayload{Note: input.Note},
	})
}

func (s *service) ApproveReturn(ctx context.Context, input ReturnInput) (*OrderView, error) {
	return s.Transition(ctx, TransitionInput{
		OrderID: input.OrderID,
		Actor:   input.Actor,
		Action:  enums.OrderActionApproveReturn,
		Payload: TransitionPayload{Note: input.Note, HubCode: input.HubCode},
	})
}

func (s *service) DeclineReturn(ctx context.Context, input ReturnInput) (*OrderView, error) {
	return s.Transition(ctx, TransitionInput{
		OrderID: input.OrderID,
		Actor:   input.Actor,
		Action:  enums.OrderActionDeclineReturn,
		Payload: TransitionPayload{Note: input.Note},
	})
}

// ScheduleRedelivery sends an approved return back out, optionally to a new
// address or slot. Only allowed while delivery attempts remain.
func (s *service) ScheduleRedelivery(ctx context.Context, input ScheduleRedeliveryInput) (*OrderView, error) {
	return s.Transition(ctx, TransitionInput{
		OrderID: input.OrderID,
		Actor:   input.Actor,
		Action:  enums.OrderActionScheduleRedelivery,
		Payload: TransitionPayload{NewAddress: input.NewAddress, NewSlot: input.NewSlot},
	})
}

// Suspend closes an order whose redelivery also failed.
func (s *service) Suspend(ctx context.Context, input SuspendInput) (*OrderView, error) {
	return s.Transition(ctx, TransitionInput{
		OrderID: input.OrderID,
		Actor:   input.Actor,
		Action:  enums.OrderActionSuspend,
		Payload: TransitionPayload{Reason: input.Reason},
	})
}
