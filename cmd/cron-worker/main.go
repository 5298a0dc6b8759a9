package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/laundryhub/laundry-backend/internal/bootstrap"
	"github.com/laundryhub/laundry-backend/internal/cron"
	"github.com/laundryhub/laundry-backend/internal/ledger"
	"github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/pkg/metrics"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "cron-worker")
	if err != nil {
		bootstrap.Exit(nil, "cron_worker.start_failed", err)
	}
	err = run(rt)
	rt.Close()
	if err != nil {
		bootstrap.Exit(rt.Logger, "cron_worker.stopped", err)
	}
}

func run(rt *bootstrap.Runtime) error {
	ctx, stop := rt.SignalContext(context.Background())
	defer stop()

	cfg, logg, conn := rt.Config, rt.Logger, rt.DB.DB()

	cache, err := rt.Redis(ctx)
	if err != nil {
		return err
	}
	lock, err := cron.NewRedisLock(cache, cache.LockKey(lockName(cfg.App.Env)), 0)
	if err != nil {
		return fmt.Errorf("cron lock: %w", err)
	}

	jobMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	maintenance, err := cron.NewOutboxMaintenanceJob(cron.OutboxMaintenanceJobParams{
		Logger:              logg,
		DB:                  rt.DB,
		Events:              outbox.NewRepository(conn),
		DeadLetters:         outbox.NewDLQRepository(conn),
		Metrics:             metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		Retention:           cfg.Cron.OutboxRetention,
		DeadLetterRetention: cfg.Cron.DLQRetention,
	})
	if err != nil {
		return fmt.Errorf("outbox maintenance job: %w", err)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return fmt.Errorf("ledger service: %w", err)
	}
	audit, err := cron.NewSettlementAuditJob(cron.SettlementAuditJobParams{
		Logger:     logg,
		Orders:     orders.NewRepository(conn),
		Ledger:     ledgerService,
		Metrics:    jobMetrics,
		StaleAfter: cfg.Cron.StaleSettlementAge,
	})
	if err != nil {
		return fmt.Errorf("settlement audit job: %w", err)
	}

	jobs := cron.NewRegistry()
	jobs.Register(maintenance, cfg.Cron.RetentionEvery)
	jobs.Register(audit, 0)
	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		return fmt.Errorf("cron service: %w", err)
	}

	metrics.Serve(ctx, cfg.Service.MetricsAddr, prometheus.DefaultGatherer, logg)
	logg.Info(ctx, "cron_worker.started")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logg.Info(ctx, "cron_worker.stopped_cleanly")
	return nil
}

// lockName scopes the scheduler lock per environment.
func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("cron-worker:%s", env)
}
