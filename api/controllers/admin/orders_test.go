package admin

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
	internalorders "github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

type stubOrderService struct {
	listFn       func(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error)
	historyFn    func(ctx context.Context, orderID uuid.UUID) ([]internalorders.HistoryEntry, error)
	transitionFn func(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error)
	approveFn    func(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error)
	redeliverFn  func(ctx context.Context, input internalorders.ScheduleRedeliveryInput) (*internalorders.OrderView, error)
	suspendFn    func(ctx context.Context, input internalorders.SuspendInput) (*internalorders.OrderView, error)
	deleteFn     func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) error
}

func (s stubOrderService) List(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, filters, params)
	}
	return &internalorders.OrderList{}, nil
}

func (s stubOrderService) Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*internalorders.OrderView, error) {
	return &internalorders.OrderView{ID: orderID}, nil
}

func (s stubOrderService) History(ctx context.Context, orderID uuid.UUID) ([]internalorders.HistoryEntry, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, orderID)
	}
	return nil, nil
}

func (s stubOrderService) Transition(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, input)
	}
	return &internalorders.OrderView{ID: input.OrderID}, nil
}

func (s stubOrderService) ApproveReturn(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error) {
	if s.approveFn != nil {
		return s.approveFn(ctx, input)
	}
	return &internalorders.OrderView{ID: input.OrderID}, nil
}

func (s stubOrderService) DeclineReturn(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error) {
	return &internalorders.OrderView{ID: input.OrderID, ReturnState: enums.ReturnStateDeclined}, nil
}

func (s stubOrderService) ScheduleRedelivery(ctx context.Context, input internalorders.ScheduleRedeliveryInput) (*internalorders.OrderView, error) {
	if s.redeliverFn != nil {
		return s.redeliverFn(ctx, input)
	}
	return &internalorders.OrderView{ID: input.OrderID}, nil
}

func (s stubOrderService) Suspend(ctx context.Context, input internalorders.SuspendInput) (*internalorders.OrderView, error) {
	if s.suspendFn != nil {
		return s.suspendFn(ctx, input)
	}
	return &internalorders.OrderView{ID: input.OrderID}, nil
}

func (s stubOrderService) Delete(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID, actor)
	}
	return nil
}

type stubSettler struct {
	settleFn func(ctx context.Context, input wallet.SettleRefundInput) (*wallet.SettlementResult, error)
}

func (s stubSettler) SettleRefund(ctx context.Context, input wallet.SettleRefundInput) (*wallet.SettlementResult, error) {
	return s.settleFn(ctx, input)
}

func asAdmin(req *http.Request, adminID uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{UserID: adminID, Role: enums.ActorRoleAdmin}))
}

func withParam(req *http.Request, key string, value uuid.UUID) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestListOrdersParsesFilters(t *testing.T) {
	customerID := uuid.New()
	svc := stubOrderService{
		listFn: func(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error) {
			require.Equal(t, enums.ActorRoleAdmin, actor.Role)
			require.NotNil(t, filters.CustomerID)
			require.Equal(t, customerID, *filters.CustomerID)
			require.Nil(t, filters.PartnerID)
			require.NotNil(t, filters.ReturnState)
			require.Equal(t, enums.ReturnStateRequested, *filters.ReturnState)
			return &internalorders.OrderList{}, nil
		},
	}

	req := asAdmin(httptest.NewRequest(http.MethodGet, "/?return_state=requested&customer_id="+customerID.String(), nil), uuid.New())
	resp := httptest.NewRecorder()
	ListOrders(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestListOrdersRejectsBadID(t *testing.T) {
	req := asAdmin(httptest.NewRequest(http.MethodGet, "/?partner_id=nope", nil), uuid.New())
	resp := httptest.NewRecorder()
	ListOrders(stubOrderService{}, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestOrderHistory(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		historyFn: func(ctx context.Context, id uuid.UUID) ([]internalorders.HistoryEntry, error) {
			require.Equal(t, orderID, id)
			return []internalorders.HistoryEntry{
				{Action: enums.OrderActionAcceptPickup, FromStatus: enums.OrderStatusPending, ToStatus: enums.OrderStatusPending},
			}, nil
		},
	}

	req := withParam(asAdmin(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New()), "orderId", orderID)
	resp := httptest.NewRecorder()
	OrderHistory(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data []internalorders.HistoryEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Len(t, envelope.Data, 1)
}

func TestOrderActionAdminCancel(t *testing.T) {
	orderID := uuid.New()
	adminID := uuid.New()
	svc := stubOrderService{
		transitionFn: func(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error) {
			require.Equal(t, enums.OrderActionAdminCancel, input.Action)
			require.Equal(t, adminID, input.Actor.ID)
			require.Equal(t, "duplicate booking", input.Payload.Reason)
			return &internalorders.OrderView{ID: orderID, Status: enums.OrderStatusCancelled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"duplicate booking"}`))
	req = withParam(asAdmin(req, adminID), "orderId", orderID)
	resp := httptest.NewRecorder()
	OrderAction(svc, OrderActions["cancel"], nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestOrderActionApproveReturnCarriesHub(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		approveFn: func(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error) {
			require.Equal(t, "HUB-7", input.HubCode)
			return &internalorders.OrderView{ID: orderID, ReturnState: enums.ReturnStateApproved}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"hub_code":"HUB-7"}`))
	req = withParam(asAdmin(req, uuid.New()), "orderId", orderID)
	resp := httptest.NewRecorder()
	OrderAction(svc, OrderActions["approve-return"], nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestOrderActionScheduleRedelivery(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		redeliverFn: func(ctx context.Context, input internalorders.ScheduleRedeliveryInput) (*internalorders.OrderView, error) {
			require.NotNil(t, input.NewSlot)
			require.Equal(t, "10-12", *input.NewSlot)
			require.Nil(t, input.NewAddress)
			return &internalorders.OrderView{ID: orderID, ReturnState: enums.ReturnStateRedeliveryScheduled}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"new_slot":"10-12"}`))
	req = withParam(asAdmin(req, uuid.New()), "orderId", orderID)
	resp := httptest.NewRecorder()
	OrderAction(svc, OrderActions["schedule-redelivery"], nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
}

func TestOrderActionSuspendValidation(t *testing.T) {
	svc := stubOrderService{
		suspendFn: func(ctx context.Context, input internalorders.SuspendInput) (*internalorders.OrderView, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "suspension reason is required")
		},
	}

	req := withParam(asAdmin(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New()), "orderId", uuid.New())
	resp := httptest.NewRecorder()
	OrderAction(svc, OrderActions["suspend"], nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestRefundOrder(t *testing.T) {
	orderID := uuid.New()
	adminID := uuid.New()
	settler := stubSettler{
		settleFn: func(ctx context.Context, input wallet.SettleRefundInput) (*wallet.SettlementResult, error) {
			require.Equal(t, orderID, input.OrderID)
			require.Equal(t, adminID, input.Actor.ID)
			require.Equal(t, enums.ActorRoleAdmin, input.Actor.Role)
			require.NotNil(t, input.RefundAmount)
			require.Equal(t, int64(500), *input.RefundAmount)
			return &wallet.SettlementResult{OrderID: orderID, WalletBefore: 0, WalletAfter: 360}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"refund_amount":500,"reason":"failed delivery"}`))
	req = withParam(asAdmin(req, adminID), "orderId", orderID)
	resp := httptest.NewRecorder()
	RefundOrder(settler, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var envelope struct {
		Data wallet.SettlementResult `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, int64(360), envelope.Data.WalletAfter)
}

func TestRefundOrderAlreadySettled(t *testing.T) {
	settler := stubSettler{
		settleFn: func(ctx context.Context, input wallet.SettleRefundInput) (*wallet.SettlementResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadySettled, "refund already processed")
		},
	}

	req := withParam(asAdmin(httptest.NewRequest(http.MethodPost, "/", nil), uuid.New()), "orderId", uuid.New())
	resp := httptest.NewRecorder()
	RefundOrder(settler, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestDeleteOrderBlocked(t *testing.T) {
	svc := stubOrderService{
		deleteFn: func(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) error {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has a pending refund")
		},
	}

	req := withParam(asAdmin(httptest.NewRequest(http.MethodDelete, "/", nil), uuid.New()), "orderId", uuid.New())
	resp := httptest.NewRecorder()
	DeleteOrder(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}

func TestOrderActionsCoverAdminCommands(t *testing.T) {
	require.Len(t, OrderActions, 9)
	for slug, action := range OrderActions {
		require.True(t, action.IsValid(), slug)
	}
}
