package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/laundryhub/laundry-backend/internal/bootstrap"
	"github.com/laundryhub/laundry-backend/internal/partners"
	"github.com/laundryhub/laundry-backend/pkg/outbox/idempotency"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "worker")
	if err != nil {
		bootstrap.Exit(nil, "worker.start_failed", err)
	}
	err = run(rt)
	rt.Close()
	if err != nil {
		bootstrap.Exit(rt.Logger, "worker.stopped", err)
	}
}

func run(rt *bootstrap.Runtime) error {
	ctx, stop := rt.SignalContext(context.Background())
	defer stop()

	cfg := rt.Config
	cache, err := rt.Redis(ctx)
	if err != nil {
		return err
	}
	bus, err := rt.PubSub(ctx, true)
	if err != nil {
		return err
	}

	guard, err := idempotency.NewManager(cache, cfg.Eventing.OutboxIdempotencyTTL)
	if err != nil {
		return fmt.Errorf("idempotency manager: %w", err)
	}

	subscription := bus.PartnerStatsSubscription()
	if subscription == nil {
		return errors.New("partner stats subscription is not configured")
	}
	statsConsumer, err := partners.NewStatsConsumer(partners.StatsConsumerParams{
		Repository:        partners.NewRepository(rt.DB.DB()),
		Subscription:      subscription,
		Idempotency:       guard,
		PayoutPerDelivery: cfg.Partners.PayoutPerDelivery,
		Logger:            rt.Logger,
	})
	if err != nil {
		return fmt.Errorf("partner stats consumer: %w", err)
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        rt.Logger,
		DB:            rt.DB,
		Redis:         cache,
		PubSub:        bus,
		StatsConsumer: statsConsumer,
	})
	if err != nil {
		return fmt.Errorf("worker service: %w", err)
	}

	rt.Logger.Info(ctx, "worker.started")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	rt.Logger.Info(ctx, "worker.stopped_cleanly")
	return nil
}
