package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	pkgAuth "github.com/laundryhub/laundry-backend/pkg/auth"
	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

// Embedded interfaces are nil; only the methods a test reaches are overridden.
type stubOrders struct {
	orders.Service
	listFn func(ctx context.Context, actor orders.Actor, filters orders.ListFilters, params pagination.Params) (*orders.OrderList, error)
}

func (s stubOrders) List(ctx context.Context, actor orders.Actor, filters orders.ListFilters, params pagination.Params) (*orders.OrderList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, filters, params)
	}
	return &orders.OrderList{Items: []orders.OrderView{}}, nil
}

type stubWallet struct {
	wallet.Service
}

func (stubWallet) Summary(ctx context.Context, customerID uuid.UUID) (*wallet.Summary, error) {
	return &wallet.Summary{CustomerID: customerID}, nil
}

type stubFees struct {
	fees.Service
}

func (stubFees) Current(ctx context.Context) (fees.Settings, error) {
	return fees.Settings{PerReason: map[enums.DeliveryFailureReason]int64{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
		HTTP: config.HTTPConfig{
			AllowedOrigins:  []string{"http://localhost:3000"},
			RateLimit:       60,
			RateLimitWindow: time.Minute,
		},
	}
}

func newTestRouter(cfg *config.Config, ordersSvc orders.Service) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	if ordersSvc == nil {
		ordersSvc = stubOrders{}
	}
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		prometheus.NewRegistry(),
		ordersSvc,
		stubWallet{},
		stubFees{},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthEndpointsArePublic(t *testing.T) {
	router := newTestRouter(testConfig(), nil)

	if resp := serve(router, http.MethodGet, "/health/live", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}
	resp := serve(router, http.MethodGet, "/health/ready", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Laundry-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestMetricsEndpointIsPublic(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	if resp := serve(router, http.MethodGet, "/metrics", ""); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}

func TestAPIRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), nil)
	for _, path := range []string{"/api/v1/orders", "/api/v1/partner/orders", "/api/admin/v1/orders", "/api/v1/wallet"} {
		if resp := serve(router, http.MethodGet, path, ""); resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, resp.Code)
		}
	}
}

func TestCustomerRoutesRequireCustomerRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	partner := buildToken(t, cfg, enums.ActorRolePartner, uuid.New())
	if resp := serve(router, http.MethodGet, "/api/v1/orders", partner); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for partner on customer orders got %d", resp.Code)
	}

	customer := buildToken(t, cfg, enums.ActorRoleCustomer, uuid.New())
	if resp := serve(router, http.MethodGet, "/api/v1/orders", customer); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for customer orders got %d", resp.Code)
	}
	resp := serve(router, http.MethodGet, "/api/v1/wallet", customer)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for wallet got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "wallet_balance") {
		t.Fatalf("expected wallet summary body got %s", resp.Body.String())
	}
}

func TestPartnerRoutesRequirePartnerRole(t *testing.T) {
	cfg := testConfig()
	partnerID := uuid.New()
	var (
		gotActor   orders.Actor
		gotFilters orders.ListFilters
	)
	router := newTestRouter(cfg, stubOrders{
		listFn: func(ctx context.Context, actor orders.Actor, filters orders.ListFilters, params pagination.Params) (*orders.OrderList, error) {
			gotActor = actor
			gotFilters = filters
			return &orders.OrderList{Items: []orders.OrderView{}}, nil
		},
	})

	customer := buildToken(t, cfg, enums.ActorRoleCustomer, uuid.New())
	if resp := serve(router, http.MethodGet, "/api/v1/partner/orders", customer); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on partner queue got %d", resp.Code)
	}

	partner := buildToken(t, cfg, enums.ActorRolePartner, partnerID)
	if resp := serve(router, http.MethodGet, "/api/v1/partner/orders", partner); resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for partner queue got %d", resp.Code)
	}
	if gotActor.ID != partnerID || gotActor.Role != enums.ActorRolePartner {
		t.Fatalf("expected partner actor got %+v", gotActor)
	}
	if !gotFilters.PartnerQueue {
		t.Fatalf("expected queue scope by default got %+v", gotFilters)
	}
}

func TestPartnerActionsRejectCustomers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	customer := buildToken(t, cfg, enums.ActorRoleCustomer, uuid.New())
	path := "/api/v1/partner/orders/" + uuid.NewString() + "/accept"
	if resp := serve(router, http.MethodPost, path, customer); resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customer on partner action got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	partner := buildToken(t, cfg, enums.ActorRolePartner, uuid.New())
	for _, path := range []string{"/api/admin/v1/orders", "/api/admin/v1/order-charges"} {
		if resp := serve(router, http.MethodGet, path, partner); resp.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for partner on %s got %d", path, resp.Code)
		}
	}

	admin := buildToken(t, cfg, enums.ActorRoleAdmin, uuid.New())
	for _, path := range []string{"/api/admin/v1/orders", "/api/admin/v1/order-charges"} {
		if resp := serve(router, http.MethodGet, path, admin); resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for admin on %s got %d", path, resp.Code)
		}
	}
}

func TestUnknownActionIsNotRouted(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, nil)

	admin := buildToken(t, cfg, enums.ActorRoleAdmin, uuid.New())
	path := "/api/admin/v1/orders/" + uuid.NewString() + "/teleport"
	resp := serve(router, http.MethodPost, path, admin)
	if resp.Code != http.StatusNotFound && resp.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected unrouted action to miss got %d", resp.Code)
	}
}
