package outbox

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/pkg/enums"
)

func TestNewActorRefSystemHasNoID(t *testing.T) {
	ref := NewActorRef(uuid.Nil, enums.ActorRoleSystem)
	assert.Nil(t, ref.ID)
	assert.Equal(t, enums.ActorRoleSystem, ref.Role)

	partnerID := uuid.New()
	ref = NewActorRef(partnerID, enums.ActorRolePartner)
	require.NotNil(t, ref.ID)
	assert.Equal(t, partnerID, *ref.ID)
}

func TestParseEnvelope(t *testing.T) {
	eventID := uuid.New()
	raw, err := json.Marshal(PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    eventID.String(),
		OccurredAt: time.Date(2026, 9, 3, 8, 30, 0, 0, time.UTC),
		Data:       json.RawMessage(`{"order_number":42}`),
	})
	require.NoError(t, err)

	env, id, err := ParseEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, eventID, id)
	assert.JSONEq(t, `{"order_number":42}`, string(env.Data))
}

func TestParseEnvelopeRejectsIncompleteEnvelopes(t *testing.T) {
	cases := map[string]string{
		"not json":     `{"version":`,
		"no version":   `{"eventId":"` + uuid.NewString() + `","data":{}}`,
		"bad event id": `{"version":1,"eventId":"evt-1","data":{}}`,
		"null data":    `{"version":1,"eventId":"` + uuid.NewString() + `","data":null}`,
		"missing data": `{"version":1,"eventId":"` + uuid.NewString() + `"}`,
	}
	for name, raw := range cases {
		_, _, err := ParseEnvelope([]byte(raw))
		assert.ErrorIs(t, err, ErrMalformedEnvelope, name)
	}
}

func TestEnvelopeAttributes(t *testing.T) {
	env := PayloadEnvelope{
		Version:    2,
		EventID:    "e-1",
		OccurredAt: time.Date(2026, 9, 3, 8, 30, 0, 0, time.FixedZone("IST", 19800)),
		Actor:      NewActorRef(uuid.New(), enums.ActorRoleAdmin),
	}
	attrs := env.Attributes()
	assert.Equal(t, "2", attrs["version"])
	assert.Equal(t, "e-1", attrs["event_id"])
	assert.Equal(t, "2026-09-03T03:00:00Z", attrs["occurred_at"])
	assert.Equal(t, string(enums.ActorRoleAdmin), attrs["actor_role"])

	env.Actor = nil
	_, ok := env.Attributes()["actor_role"]
	assert.False(t, ok)
}
