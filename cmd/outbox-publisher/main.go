package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/laundryhub/laundry-backend/internal/bootstrap"
	"github.com/laundryhub/laundry-backend/pkg/metrics"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
	"github.com/laundryhub/laundry-backend/pkg/outbox/registry"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "outbox-publisher")
	if err != nil {
		bootstrap.Exit(nil, "outbox_publisher.start_failed", err)
	}
	err = run(rt)
	rt.Close()
	if err != nil {
		bootstrap.Exit(rt.Logger, "outbox_publisher.stopped", err)
	}
}

func run(rt *bootstrap.Runtime) error {
	ctx, stop := rt.SignalContext(context.Background())
	defer stop()

	bus, err := rt.PubSub(ctx, false)
	if err != nil {
		return err
	}
	events, err := registry.NewEventRegistry(rt.Config.PubSub)
	if err != nil {
		return fmt.Errorf("event registry: %w", err)
	}

	conn := rt.DB.DB()
	service, err := NewService(ServiceParams{
		Config:        rt.Config,
		Logger:        rt.Logger,
		DB:            rt.DB,
		PubSub:        bus,
		Repository:    outbox.NewRepository(conn),
		Registry:      events,
		DLQRepository: outbox.NewDLQRepository(conn),
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return fmt.Errorf("outbox publisher: %w", err)
	}

	metrics.Serve(ctx, rt.Config.Service.MetricsAddr, prometheus.DefaultGatherer, rt.Logger)
	rt.Logger.Info(ctx, "outbox_publisher.started")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	rt.Logger.Info(ctx, "outbox_publisher.stopped_cleanly")
	return nil
}
