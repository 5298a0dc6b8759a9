package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/redis"
)

const (
	markerProcessing = "processing"
	markerDone       = "done"

	maxProcessingLease = 5 * time.Minute
)

// ErrInFlight means another delivery of the same event is still being
// handled. Callers should nack and let Pub/Sub redeliver later.
var ErrInFlight = errors.New("event is being processed by another delivery")

// Manager guards consumers against duplicate Pub/Sub deliveries. A key moves
// from "processing" (short lease) to "done" (full ttl); a failed handler
// releases the key.
//
// Keys: lh:idempotency:evt:<consumer>:<event_id>
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
	lease time.Duration
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	lease := maxProcessingLease
	if ttl < lease {
		lease = ttl
	}
	return &Manager{store: store, ttl: ttl, lease: lease}, nil
}

// Once runs fn unless eventID was already handled by consumer. The bool
// reports whether fn ran. ErrInFlight is returned while a concurrent
// delivery holds the lease.
func (m *Manager) Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error) {
	key, err := m.key(consumer, eventID)
	if err != nil {
		return false, err
	}

	acquired, err := m.store.SetNX(ctx, key, markerProcessing, m.lease)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !acquired {
		state, getErr := m.store.Get(ctx, key)
		switch {
		case errors.Is(getErr, redis.Nil):
			// lease expired between SETNX and GET; treat as in flight and retry later
			return false, ErrInFlight
		case getErr != nil:
			return false, fmt.Errorf("read %s: %w", key, getErr)
		case state == markerDone:
			return false, nil
		default:
			return false, ErrInFlight
		}
	}

	if err := fn(ctx); err != nil {
		if delErr := m.store.Del(ctx, key); delErr != nil {
			return true, errors.Join(err, fmt.Errorf("release %s: %w", key, delErr))
		}
		return true, err
	}
	if err := m.store.Set(ctx, key, markerDone, m.ttl); err != nil {
		// fn already committed; a redelivery after the lease expires would rerun it
		return true, fmt.Errorf("mark %s done: %w", key, err)
	}
	return true, nil
}

func (m *Manager) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
