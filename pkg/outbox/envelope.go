package outbox

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

const EnvelopeVersion = 1

var ErrMalformedEnvelope = errors.New("malformed outbox envelope")

// ActorRef names who caused the event. System actors carry no id.
type ActorRef struct {
	ID   *uuid.UUID      `json:"id,omitempty"`
	Role enums.ActorRole `json:"role"`
}

func NewActorRef(id uuid.UUID, role enums.ActorRole) *ActorRef {
	if id == uuid.Nil {
		return &ActorRef{Role: role}
	}
	return &ActorRef{ID: &id, Role: role}
}

// PayloadEnvelope is the JSON written to outbox_events.payload and published
// verbatim as the Pub/Sub message body.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// ParseEnvelope decodes raw and checks the fields every reader relies on:
// a version, a uuid event id and non-null data.
func ParseEnvelope(raw []byte) (PayloadEnvelope, uuid.UUID, error) {
	var env PayloadEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.Version <= 0 {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("%w: version %d", ErrMalformedEnvelope, env.Version)
	}
	id, err := uuid.Parse(env.EventID)
	if err != nil {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("%w: event id %q", ErrMalformedEnvelope, env.EventID)
	}
	if !env.HasData() {
		return PayloadEnvelope{}, uuid.Nil, fmt.Errorf("%w: empty data", ErrMalformedEnvelope)
	}
	return env, id, nil
}

func (e PayloadEnvelope) HasData() bool {
	trimmed := bytes.TrimSpace(e.Data)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Attributes are the envelope-level Pub/Sub message attributes. Callers add
// the row-level ones (event type, aggregate).
func (e PayloadEnvelope) Attributes() map[string]string {
	attrs := map[string]string{
		"event_id":    e.EventID,
		"version":     strconv.Itoa(e.Version),
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
	if e.Actor != nil {
		attrs["actor_role"] = string(e.Actor.Role)
	}
	return attrs
}
