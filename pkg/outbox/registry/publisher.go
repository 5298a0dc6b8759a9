package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
	"github.com/laundryhub/laundry-backend/pkg/outbox/payloads"
)

// EventDescriptor says where an event type is published and what its data
// decodes into.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is an outbox row that passed validation and is ready to publish.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// NonRetryableError marks a failure that no amount of retrying will fix. The
// publisher dead-letters the row immediately.
type NonRetryableError struct {
	Err error
}

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error {
	return e.Err
}

func terminal(format string, args ...any) error {
	return NonRetryableError{Err: fmt.Errorf(format, args...)}
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

func route[T any](eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, topic string) EventDescriptor {
	return EventDescriptor{
		EventType:      eventType,
		AggregateType:  aggregate,
		Topic:          topic,
		PayloadFactory: func() any { return new(T) },
	}
}

// NewEventRegistry wires every event type the services emit. Order lifecycle
// events share the orders topic; anything that moves money goes to the wallet
// topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" || cfg.WalletTopic == "" {
		return nil, errors.New("registry: orders and wallet topics are required")
	}
	orders, wallet := cfg.OrdersTopic, cfg.WalletTopic
	order, customer := enums.AggregateOrder, enums.AggregateCustomer

	routes := []EventDescriptor{
		route[payloads.OrderCreatedEvent](enums.EventOrderCreated, order, orders),
		route[payloads.OrderStatusChangedEvent](enums.EventOrderStatusChanged, order, orders),
		route[payloads.OrderCancelledEvent](enums.EventOrderCancelled, order, orders),
		route[payloads.OrderDeliveredEvent](enums.EventOrderDelivered, order, orders),
		route[payloads.DeliveryFailedEvent](enums.EventDeliveryFailed, order, orders),
		route[payloads.ReturnRequestedEvent](enums.EventReturnRequested, order, orders),
		route[payloads.ReturnResolvedEvent](enums.EventReturnResolved, order, orders),
		route[payloads.RedeliveryScheduledEvent](enums.EventRedeliveryScheduled, order, orders),
		route[payloads.OrderSuspendedEvent](enums.EventOrderSuspended, order, orders),
		route[payloads.OrderDeletedEvent](enums.EventOrderDeleted, order, orders),

		route[payloads.ChargeAssessedEvent](enums.EventChargeAssessed, order, wallet),
		route[payloads.RefundSettledEvent](enums.EventRefundSettled, order, wallet),
		route[payloads.WalletAdjustedEvent](enums.EventWalletAdjusted, customer, wallet),
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(routes))}
	for _, desc := range routes {
		if _, dup := reg.entries[desc.EventType]; dup {
			return nil, fmt.Errorf("registry: %s registered twice", desc.EventType)
		}
		reg.entries[desc.EventType] = desc
	}
	return reg, nil
}

func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve checks the row against its descriptor and decodes the typed
// payload. Every failure is non-retryable: a row that does not decode now
// never will.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, terminal("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, terminal("aggregate mismatch: %s expects %s, row has %s", event.EventType, desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, terminal("%s row without aggregate_id", event.EventType)
	}

	envelope, _, err := outbox.ParseEnvelope(event.Payload)
	if err != nil {
		return nil, NonRetryableError{Err: err}
	}
	payload := desc.PayloadFactory()
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, terminal("decode %s payload: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
