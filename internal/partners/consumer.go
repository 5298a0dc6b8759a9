package partners

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/outbox/idempotency"
	"github.com/laundryhub/laundry-backend/pkg/outbox/payloads"
	"github.com/laundryhub/laundry-backend/pkg/outbox/registry"
)

const statsConsumerName = "partner-stats"

type onceRunner interface {
	Once(ctx context.Context, consumer string, eventID uuid.UUID, fn func(context.Context) error) (bool, error)
}

type deliveryRecorder interface {
	RecordDelivery(ctx context.Context, partnerID uuid.UUID, payout int64) (int64, error)
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// StatsConsumer keeps partner delivery counts and earnings in step with
// order_delivered events. Redelivered messages are skipped by event id.
type StatsConsumer struct {
	repo         deliveryRecorder
	subscription receiver
	once         onceRunner
	decoders     *registry.DecoderRegistry
	payout       int64
	logg         *logger.Logger
}

// StatsConsumerParams groups the consumer dependencies.
type StatsConsumerParams struct {
	Repository        deliveryRecorder
	Subscription      receiver
	Idempotency       onceRunner
	PayoutPerDelivery int64
	Logger            *logger.Logger
}

func NewStatsConsumer(params StatsConsumerParams) (*StatsConsumer, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("partners repository required")
	}
	if params.Subscription == nil {
		return nil, fmt.Errorf("partner stats subscription required")
	}
	if params.Idempotency == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if params.PayoutPerDelivery < 0 {
		return nil, fmt.Errorf("payout per delivery must not be negative")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderDelivered, 1, registry.JSONDecoder[payloads.OrderDeliveredEvent]())
	return &StatsConsumer{
		repo:         params.Repository,
		subscription: params.Subscription,
		once:         params.Idempotency,
		decoders:     decoders,
		payout:       params.PayoutPerDelivery,
		logg:         params.Logger,
	}, nil
}

// Run receives until the context is canceled.
func (c *StatsConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// handle reports whether the message should be redelivered. Malformed
// messages are acked and logged; they would never succeed.
func (c *StatsConsumer) handle(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": attrs["event_type"],
	})

	msg, err := c.decoders.DecodeMessage(attrs, data)
	if errors.Is(err, registry.ErrNotRegistered) {
		c.logg.Debug(logCtx, "skipping event not tracked by partner stats")
		return false
	}
	if err != nil {
		c.logg.Error(logCtx, "undecodable partner stats message", err)
		return false
	}
	event := msg.Payload.(*payloads.OrderDeliveredEvent)
	if event.PartnerID == uuid.Nil {
		c.logg.Warn(logCtx, "order_delivered without partner")
		return false
	}
	eventID := msg.EventID
	logCtx = c.logg.WithOrderID(logCtx, event.OrderID.String())
	logCtx = c.logg.WithField(logCtx, "partner_id", event.PartnerID.String())

	ran, err := c.once.Once(ctx, statsConsumerName, eventID, func(ctx context.Context) error {
		rows, err := c.repo.RecordDelivery(ctx, event.PartnerID, c.payout)
		if err != nil {
			return err
		}
		if rows == 0 {
			c.logg.Warn(logCtx, "partner not found for delivered order")
		}
		return nil
	})
	if errors.Is(err, idempotency.ErrInFlight) {
		c.logg.Debug(logCtx, "event in flight on another delivery")
		return true
	}
	if err != nil {
		c.logg.Error(logCtx, "failed to record partner delivery", err)
		return true
	}
	if !ran {
		c.logg.Info(logCtx, "event already processed")
		return false
	}
	c.logg.Info(logCtx, "partner delivery recorded")
	return false
}
