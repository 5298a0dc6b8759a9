package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/laundryhub/laundry-backend/api/routes"
	"github.com/laundryhub/laundry-backend/internal/bootstrap"
	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/internal/ledger"
	"github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/internal/partners"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/metrics"
	"github.com/laundryhub/laundry-backend/pkg/outbox"
)

func main() {
	rt, err := bootstrap.Start(context.Background(), "api")
	if err != nil {
		bootstrap.Exit(nil, "api.start_failed", err)
	}
	err = run(rt)
	rt.Close()
	if err != nil {
		bootstrap.Exit(rt.Logger, "api.stopped", err)
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

	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	feesService, err := fees.NewService(fees.NewRepository(conn), fees.SettingsFromConfig(cfg.Fees), logg)
	if err != nil {
		return fmt.Errorf("fees service: %w", err)
	}
	if _, err := feesService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed order charge settings: %w", err)
	}

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return fmt.Errorf("ledger service: %w", err)
	}

	walletService, err := wallet.NewService(wallet.ServiceParams{
		Repository: wallet.NewRepository(conn),
		Tx:         rt.DB,
		Ledger:     ledgerService,
		Outbox:     emitter,
		Metrics:    orderMetrics,
		Logger:     logg,
	})
	if err != nil {
		return fmt.Errorf("wallet service: %w", err)
	}

	partnerService, err := partners.NewService(partners.NewRepository(conn))
	if err != nil {
		return fmt.Errorf("partner service: %w", err)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repository:          orders.NewRepository(conn),
		Tx:                  rt.DB,
		Outbox:              emitter,
		Fees:                feesService,
		Wallet:              walletService,
		Partners:            partnerService,
		Metrics:             orderMetrics,
		Logger:              logg,
		MaxDeliveryAttempts: cfg.Lifecycle.MaxDeliveryAttempts,
	})
	if err != nil {
		return fmt.Errorf("orders service: %w", err)
	}

	// PORT is injected by the hosting platform and wins over config.
	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler: routes.NewRouter(
			cfg,
			logg,
			rt.DB,
			cache,
			prometheus.DefaultGatherer,
			ordersService,
			walletService,
			feesService,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "addr", server.Addr), "api.listening")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api.draining")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	logg.Info(ctx, "api.stopped_cleanly")
	return nil
}
