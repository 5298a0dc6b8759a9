package registry

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
)

// ErrNotRegistered is returned for event types a consumer does not handle.
var ErrNotRegistered = errors.New("event type not registered")

// Decoder turns envelope data into a typed payload.
type Decoder func(data json.RawMessage) (any, error)

type decoderKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry lets a Pub/Sub consumer decode the messages written by the
// outbox publisher. Register everything before the consumer starts; the
// registry is read-only afterwards.
type DecoderRegistry struct {
	decoders map[decoderKey]Decoder
	types    map[enums.OutboxEventType]struct{}
}

func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{
		decoders: make(map[decoderKey]Decoder),
		types:    make(map[enums.OutboxEventType]struct{}),
	}
}

func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder Decoder) {
	r.decoders[decoderKey{eventType: eventType, version: version}] = decoder
	r.types[eventType] = struct{}{}
}

// Message is a decoded Pub/Sub delivery.
type Message struct {
	EventType enums.OutboxEventType
	EventID   uuid.UUID
	Envelope  outbox.PayloadEnvelope
	Payload   any
}

// DecodeMessage reads the event_type attribute, unwraps the envelope and runs
// the decoder registered for the envelope version. Unhandled event types
// return ErrNotRegistered.
func (r *DecoderRegistry) DecodeMessage(attrs map[string]string, data []byte) (*Message, error) {
	eventType := enums.OutboxEventType(attrs["event_type"])
	if _, ok := r.types[eventType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, eventType)
	}

	envelope, eventID, err := outbox.ParseEnvelope(data)
	if err != nil {
		return nil, err
	}
	decoder, ok := r.decoders[decoderKey{eventType: eventType, version: envelope.Version}]
	if !ok {
		return nil, fmt.Errorf("no decoder for %s v%d", eventType, envelope.Version)
	}
	payload, err := decoder(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("decode %s v%d: %w", eventType, envelope.Version, err)
	}
	return &Message{
		EventType: eventType,
		EventID:   eventID,
		Envelope:  envelope,
		Payload:   payload,
	}, nil
}

// JSONDecoder unmarshals envelope data into a fresh *T. Unknown fields are
// ignored so producers can add fields ahead of consumers.
func JSONDecoder[T any]() Decoder {
	return func(data json.RawMessage) (any, error) {
		out := new(T)
		if err := json.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	}
}
