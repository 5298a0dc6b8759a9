package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/api/middleware"
	"github.com/laundryhub/laundry-backend/internal/ledger"
	internalwallet "github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

type stubWalletService struct {
	summaryFn      func(ctx context.Context, customerID uuid.UUID) (*internalwallet.Summary, error)
	transactionsFn func(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ledger.EntryList, error)
	adjustFn       func(ctx context.Context, input internalwallet.AdjustInput) (*internalwallet.AdjustResult, error)
	clearFn        func(ctx context.Context, input internalwallet.ClearDuesInput) (*internalwallet.AdjustResult, error)
}

func (s stubWalletService) Summary(ctx context.Context, customerID uuid.UUID) (*internalwallet.Summary, error) {
	if s.summaryFn != nil {
		return s.summaryFn(ctx, customerID)
	}
	return &internalwallet.Summary{CustomerID: customerID}, nil
}

func (s stubWalletService) Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ledger.EntryList, error) {
	if s.transactionsFn != nil {
		return s.transactionsFn(ctx, customerID, params)
	}
	return &ledger.EntryList{}, nil
}

func (s stubWalletService) Adjust(ctx context.Context, input internalwallet.AdjustInput) (*internalwallet.AdjustResult, error) {
	if s.adjustFn != nil {
		return s.adjustFn(ctx, input)
	}
	return &internalwallet.AdjustResult{}, nil
}

func (s stubWalletService) ClearDues(ctx context.Context, input internalwallet.ClearDuesInput) (*internalwallet.AdjustResult, error) {
	if s.clearFn != nil {
		return s.clearFn(ctx, input)
	}
	return &internalwallet.AdjustResult{}, nil
}

func as(req *http.Request, id uuid.UUID, role enums.ActorRole) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{UserID: id, Role: role}))
}

func withCustomer(req *http.Request, customerID uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("customerId", customerID.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestSummaryUsesCaller(t *testing.T) {
	customerID := uuid.New()
	svc := stubWalletService{
		summaryFn: func(ctx context.Context, id uuid.UUID) (*internalwallet.Summary, error) {
			require.Equal(t, customerID, id)
			return &internalwallet.Summary{CustomerID: id, WalletBalance: 360, DueAmount: 0}, nil
		},
	}

	req := as(httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil), customerID, enums.ActorRoleCustomer)
	resp := httptest.NewRecorder()
	Summary(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data internalwallet.Summary `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, int64(360), envelope.Data.WalletBalance)
}

func TestTransactionsPaginates(t *testing.T) {
	customerID := uuid.New()
	svc := stubWalletService{
		transactionsFn: func(ctx context.Context, id uuid.UUID, params pagination.Params) (*ledger.EntryList, error) {
			require.Equal(t, customerID, id)
			require.Equal(t, 10, params.Limit)
			return &ledger.EntryList{Items: []models.WalletTransaction{{ID: uuid.New(), CustomerID: id}}}, nil
		},
	}

	req := as(httptest.NewRequest(http.MethodGet, "/api/v1/wallet/transactions?limit=10", nil), customerID, enums.ActorRoleCustomer)
	resp := httptest.NewRecorder()
	Transactions(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestCustomerTransactionsReadsPath(t *testing.T) {
	customerID := uuid.New()
	called := false
	svc := stubWalletService{
		transactionsFn: func(ctx context.Context, id uuid.UUID, params pagination.Params) (*ledger.EntryList, error) {
			called = true
			require.Equal(t, customerID, id)
			return &ledger.EntryList{}, nil
		},
	}

	req := withCustomer(as(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New(), enums.ActorRoleAdmin), customerID)
	resp := httptest.NewRecorder()
	CustomerTransactions(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, called)
}

func TestAdjustPassesIdempotencyKey(t *testing.T) {
	customerID := uuid.New()
	adminID := uuid.New()
	svc := stubWalletService{
		adjustFn: func(ctx context.Context, input internalwallet.AdjustInput) (*internalwallet.AdjustResult, error) {
			require.Equal(t, customerID, input.CustomerID)
			require.Equal(t, enums.WalletTransactionPoints, input.Type)
			require.Equal(t, enums.WalletActionIncrease, input.Action)
			require.Equal(t, int64(25), input.Amount)
			require.Equal(t, adminID, input.Actor.ID)
			require.Equal(t, "adj-1", input.IdempotencyKey)
			return &internalwallet.AdjustResult{Wallet: internalwallet.Summary{CustomerID: customerID, Points: 25}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"points","action":"increase","amount":25,"reason":"goodwill"}`))
	req.Header.Set("Idempotency-Key", "adj-1")
	req = withCustomer(as(req, adminID, enums.ActorRoleAdmin), customerID)
	resp := httptest.NewRecorder()
	Adjust(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestAdjustRejectsUnknownType(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"type":"cash","action":"increase","amount":25,"reason":"goodwill"}`))
	req = withCustomer(as(req, uuid.New(), enums.ActorRoleAdmin), uuid.New())
	resp := httptest.NewRecorder()
	Adjust(stubWalletService{}, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestClearDuesWithoutBodyClearsAll(t *testing.T) {
	customerID := uuid.New()
	svc := stubWalletService{
		clearFn: func(ctx context.Context, input internalwallet.ClearDuesInput) (*internalwallet.AdjustResult, error) {
			require.Equal(t, customerID, input.CustomerID)
			require.Nil(t, input.Amount)
			return &internalwallet.AdjustResult{Wallet: internalwallet.Summary{CustomerID: customerID}}, nil
		},
	}

	req := withCustomer(as(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New(), enums.ActorRoleAdmin), customerID)
	resp := httptest.NewRecorder()
	ClearDues(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}
