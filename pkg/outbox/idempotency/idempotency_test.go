package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/pkg/redis"
)

type memStore struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failSet error
	failNX  error
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if m.failSet != nil {
		return m.failSet
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if m.failNX != nil {
		return false, m.failNX
	}
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memStore) IdempotencyKey(scope, id string) string {
	return "lh:idempotency:" + scope + ":" + id
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func TestNewManagerValidation(t *testing.T) {
	_, err := NewManager(nil, time.Hour)
	assert.Error(t, err)

	_, err = NewManager(newMemStore(), 0)
	assert.Error(t, err)

	m, err := NewManager(newMemStore(), time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, m.lease)
}

func TestOnceRunsHandlerOnlyOnce(t *testing.T) {
	store := newMemStore()
	m, err := NewManager(store, 24*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	calls := 0
	handler := func(context.Context) error { calls++; return nil }

	ran, err := m.Once(context.Background(), "partner-stats", eventID, handler)
	require.NoError(t, err)
	assert.True(t, ran)

	ran, err = m.Once(context.Background(), "partner-stats", eventID, handler)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, calls)

	key := "lh:idempotency:evt:partner-stats:" + eventID.String()
	assert.Equal(t, markerDone, store.data[key])
	assert.Equal(t, 24*time.Hour, store.ttls[key])
}

func TestOnceKeysAreScopedPerConsumer(t *testing.T) {
	m, err := NewManager(newMemStore(), time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	for _, consumer := range []string{"partner-stats", "notifications"} {
		ran, err := m.Once(context.Background(), consumer, eventID, func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.True(t, ran, consumer)
	}
}

func TestOnceReleasesKeyWhenHandlerFails(t *testing.T) {
	store := newMemStore()
	m, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	boom := errors.New("db down")
	ran, err := m.Once(context.Background(), "partner-stats", eventID, func(context.Context) error { return boom })
	assert.True(t, ran)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.data)

	ran, err = m.Once(context.Background(), "partner-stats", eventID, func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestOnceReportsInFlightDelivery(t *testing.T) {
	store := newMemStore()
	m, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	store.data["lh:idempotency:evt:partner-stats:"+eventID.String()] = markerProcessing

	ran, err := m.Once(context.Background(), "partner-stats", eventID, func(context.Context) error {
		t.Fatal("handler must not run while another delivery holds the lease")
		return nil
	})
	assert.False(t, ran)
	assert.ErrorIs(t, err, ErrInFlight)
}

func TestOnceProcessingLeaseIsCapped(t *testing.T) {
	store := newMemStore()
	m, err := NewManager(store, 48*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	key := "lh:idempotency:evt:partner-stats:" + eventID.String()
	_, err = m.Once(context.Background(), "partner-stats", eventID, func(context.Context) error {
		assert.Equal(t, markerProcessing, store.data[key])
		assert.Equal(t, maxProcessingLease, store.ttls[key])
		return nil
	})
	require.NoError(t, err)
}

func TestOnceSurfacesStoreErrors(t *testing.T) {
	store := newMemStore()
	store.failNX = errors.New("redis unavailable")
	m, err := NewManager(store, time.Hour)
	require.NoError(t, err)

	ran, err := m.Once(context.Background(), "partner-stats", uuid.New(), func(context.Context) error { return nil })
	assert.False(t, ran)
	assert.ErrorContains(t, err, "redis unavailable")

	store.failNX = nil
	store.failSet = errors.New("write refused")
	ran, err = m.Once(context.Background(), "partner-stats", uuid.New(), func(context.Context) error { return nil })
	assert.True(t, ran)
	assert.ErrorContains(t, err, "write refused")
}

func TestOnceValidatesArguments(t *testing.T) {
	m, err := NewManager(newMemStore(), time.Hour)
	require.NoError(t, err)

	_, err = m.Once(context.Background(), "", uuid.New(), func(context.Context) error { return nil })
	assert.Error(t, err)
	_, err = m.Once(context.Background(), "partner-stats", uuid.Nil, func(context.Context) error { return nil })
	assert.Error(t, err)
}
