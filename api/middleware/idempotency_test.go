package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	pkgredis "github.com/laundryhub/laundry-backend/pkg/redis"
)

type memoryKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", pkgredis.Nil
	}
	return v, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	return true, m.Set(ctx, key, value, ttl)
}

func (m *memoryKV) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func routedRequest(method, path, pattern, body, key string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return payload.Error.Code
}

func TestRouteTTL(t *testing.T) {
	fallback := 2 * time.Hour
	cases := []struct {
		method  string
		pattern string
		want    time.Duration
		ok      bool
	}{
		{http.MethodPost, "/api/v1/orders", fallback, true},
		{http.MethodPost, "/api/v1/orders/{orderId}/cancel", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/v1/partner/orders/{orderId}/deliver", fallback, true},
		{http.MethodPost, "/api/admin/v1/orders/{orderId}/refund", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/admin/v1/orders/{orderId}/approve-hub", fallback, true},
		{http.MethodPost, "/api/admin/v1/customers/{customerId}/wallet/adjust", criticalIdempotencyTTL, true},
		{http.MethodPost, "/api/admin/v1/customers/{customerId}/dues/clear", criticalIdempotencyTTL, true},
		{http.MethodPut, "/api/admin/v1/order-charges", fallback, true},
		{http.MethodPost, "/api/admin/v1/order-charges/preview-failure-fee", 0, false},
		{http.MethodGet, "/api/v1/orders", 0, false},
		{http.MethodPost, "", 0, false},
	}
	for _, tc := range cases {
		ttl, ok := routeTTL(tc.method, tc.pattern, fallback)
		if ok != tc.ok || (ok && ttl != tc.want) {
			t.Fatalf("%s %s: got (%v, %v), want (%v, %v)", tc.method, tc.pattern, ttl, ok, tc.want, tc.ok)
		}
	}
}

func TestRoutePatternFallsBackToPathOnMountedRouters(t *testing.T) {
	req := routedRequest(http.MethodPost, "/api/v1/orders/", "/api/v1/*", "", "")
	if got := routePattern(req); got != "/api/v1/orders" {
		t.Fatalf("expected trimmed raw path, got %q", got)
	}
}

func TestIdempotencyRejectsMissingOrOversizedKey(t *testing.T) {
	mw := Idempotency(newMemoryKV(), 0, nil)
	handler := mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, key := range []string{"", strings.Repeat("k", maxIdempotencyKeyLen+1)} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/orders", "/api/v1/orders", `{}`, key))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("key len %d: expected 400, got %d", len(key), rec.Code)
		}
	}
}

func TestIdempotencyPassesThroughUnguardedRoutes(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryKV(), 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	handler.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodGet, "/api/v1/orders", "/api/v1/orders", "", ""))
	if calls != 1 {
		t.Fatalf("expected handler to run without a key, ran %d times", calls)
	}
}

func TestIdempotencyReplaysCompletedResponse(t *testing.T) {
	store := newMemoryKV()
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"slot":"am"}` {
			t.Fatalf("handler saw body %q", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"order_number":7}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, routedRequest(http.MethodPost, "/api/v1/orders", "/api/v1/orders", `{"slot":"am"}`, "book-1"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}
	if first.Header().Get(IdempotentReplayHeader) != "" {
		t.Fatalf("first response must not be marked as a replay")
	}

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, routedRequest(http.MethodPost, "/api/v1/orders", "/api/v1/orders", `{"slot":"am"}`, "book-1"))
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != http.StatusCreated || second.Body.String() != `{"order_number":7}` {
		t.Fatalf("unexpected replay %d %s", second.Code, second.Body.String())
	}
	if second.Header().Get("Content-Type") != "application/json" || second.Header().Get(IdempotentReplayHeader) != "true" {
		t.Fatalf("unexpected replay headers %v", second.Header())
	}
	for k, ttl := range store.ttls {
		if ttl != time.Hour {
			t.Fatalf("%s stored with ttl %v", k, ttl)
		}
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	handler := Idempotency(newMemoryKV(), 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/v1/orders", "/api/v1/orders", `{"slot":"am"}`, "k"))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, routedRequest(http.MethodPost, "/api/v1/orders", "/api/v1/orders", `{"slot":"pm"}`, "k"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s, got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyRejectsDuplicateWhileInFlight(t *testing.T) {
	store := newMemoryKV()
	var inner *httptest.ResponseRecorder
	var handler http.Handler
	handler = Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if inner == nil {
			inner = httptest.NewRecorder()
			handler.ServeHTTP(inner, routedRequest(http.MethodPost, "/api/v1/orders/1/cancel", "/api/v1/orders/{orderId}/cancel", `{}`, "c1"))
		}
		w.WriteHeader(http.StatusOK)
	}))

	outer := httptest.NewRecorder()
	handler.ServeHTTP(outer, routedRequest(http.MethodPost, "/api/v1/orders/1/cancel", "/api/v1/orders/{orderId}/cancel", `{}`, "c1"))

	if outer.Code != http.StatusOK {
		t.Fatalf("expected first request to complete, got %d", outer.Code)
	}
	if inner.Code != http.StatusConflict || errorCode(t, inner) != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected in-flight duplicate to get 409, got %d %s", inner.Code, inner.Body.String())
	}
}

func TestIdempotencyReleasesKeyOnConflictAndServerError(t *testing.T) {
	store := newMemoryKV()
	statuses := []int{http.StatusConflict, http.StatusServiceUnavailable, http.StatusOK}
	calls := 0
	handler := Idempotency(store, 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(statuses[calls])
		calls++
	}))

	for range statuses {
		handler.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, "/api/v1/orders/1/cancel", "/api/v1/orders/{orderId}/cancel", `{}`, "retry"))
	}
	if calls != len(statuses) {
		t.Fatalf("expected every failed attempt to be retryable, handler ran %d times", calls)
	}
	if len(store.values) != 1 {
		t.Fatalf("expected only the successful response stored, got %d", len(store.values))
	}
}

func TestIdempotencyScopesKeysPerPath(t *testing.T) {
	calls := 0
	handler := Idempotency(newMemoryKV(), 0, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
	}))
	for _, id := range []string{"1", "2"} {
		path := "/api/v1/orders/" + id + "/cancel"
		handler.ServeHTTP(httptest.NewRecorder(), routedRequest(http.MethodPost, path, "/api/v1/orders/{orderId}/cancel", `{}`, "same"))
	}
	if calls != 2 {
		t.Fatalf("expected the same key on different orders to run twice, ran %d", calls)
	}
}
