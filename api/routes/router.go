package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/laundryhub/laundry-backend/api/controllers"
	admincontrollers "github.com/laundryhub/laundry-backend/api/controllers/admin"
	ordercontrollers "github.com/laundryhub/laundry-backend/api/controllers/orders"
	walletcontrollers "github.com/laundryhub/laundry-backend/api/controllers/wallet"
	"github.com/laundryhub/laundry-backend/api/middleware"
	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/redis"
)

// CacheStore is the Redis surface the HTTP layer needs for idempotent
// replays, throttling and readiness.
type CacheStore interface {
	redis.IdempotencyStore
	redis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache CacheStore,
	gatherer prometheus.Gatherer,
	ordersSvc orders.Service,
	walletSvc wallet.Service,
	feesSvc fees.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		rateStore        middleware.RateLimitStore
	)
	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if cache != nil {
		idempotencyStore = cache
		rateStore = cache
		readiness["redis"] = cache
	}
	writePolicy := middleware.NewRateLimitPolicy("api", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RateLimit(writePolicy, rateStore, logg))
		r.Use(middleware.Idempotency(idempotencyStore, cfg.Eventing.HTTPIdempotencyTTL, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleCustomer))
			r.Route("/v1/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Book(ordersSvc, logg))
				r.Get("/", ordercontrollers.List(ordersSvc, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(ordersSvc, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.Cancel(ordersSvc, logg))
				r.Get("/{orderId}/cancellation-fee", ordercontrollers.CancellationFee(ordersSvc, logg))
			})
			r.Route("/v1/wallet", func(r chi.Router) {
				r.Get("/", walletcontrollers.Summary(walletSvc, logg))
				r.Get("/transactions", walletcontrollers.Transactions(walletSvc, logg))
			})
		})

		r.Route("/v1/partner/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRolePartner))
			r.Get("/", ordercontrollers.PartnerList(ordersSvc, logg))
			r.Get("/{orderId}", ordercontrollers.PartnerDetail(ordersSvc, logg))
			for slug, action := range ordercontrollers.PartnerActions {
				r.Post("/{orderId}/"+slug, ordercontrollers.PartnerAction(ordersSvc, action, logg))
			}
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", admincontrollers.ListOrders(ordersSvc, logg))
				r.Get("/{orderId}", admincontrollers.OrderDetail(ordersSvc, logg))
				r.Get("/{orderId}/history", admincontrollers.OrderHistory(ordersSvc, logg))
				r.Delete("/{orderId}", admincontrollers.DeleteOrder(ordersSvc, logg))
				r.Post("/{orderId}/refund", admincontrollers.RefundOrder(walletSvc, logg))
				for slug, action := range admincontrollers.OrderActions {
					r.Post("/{orderId}/"+slug, admincontrollers.OrderAction(ordersSvc, action, logg))
				}
			})
			r.Route("/order-charges", func(r chi.Router) {
				r.Get("/", admincontrollers.GetChargeSettings(feesSvc, logg))
				r.Put("/", admincontrollers.UpdateChargeSettings(feesSvc, logg))
				r.Post("/preview-failure-fee", admincontrollers.PreviewFailureFee(feesSvc, logg))
			})
			r.Route("/customers/{customerId}", func(r chi.Router) {
				r.Get("/wallet/transactions", walletcontrollers.CustomerTransactions(walletSvc, logg))
				r.Post("/wallet/adjust", walletcontrollers.Adjust(walletSvc, logg))
				r.Post("/dues/clear", walletcontrollers.ClearDues(walletSvc, logg))
			})
		})
	})

	return r
}
