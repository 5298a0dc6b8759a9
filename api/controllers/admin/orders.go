package admin

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/api/middleware"
	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/api/validators"
	internalorders "github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

const maxNoteLength = 1000

// OrderService is the slice of the orders service the admin surface uses.
type OrderService interface {
	List(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*internalorders.OrderView, error)
	History(ctx context.Context, orderID uuid.UUID) ([]internalorders.HistoryEntry, error)
	Transition(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error)
	ApproveReturn(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error)
	DeclineReturn(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error)
	ScheduleRedelivery(ctx context.Context, input internalorders.ScheduleRedeliveryInput) (*internalorders.OrderView, error)
	Suspend(ctx context.Context, input internalorders.SuspendInput) (*internalorders.OrderView, error)
	Delete(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) error
}

// RefundSettler settles the one-time refund of an order.
type RefundSettler interface {
	SettleRefund(ctx context.Context, input wallet.SettleRefundInput) (*wallet.SettlementResult, error)
}

// OrderActions maps the admin route segment to the order action it issues.
// Refunds are settled by the wallet and have their own handler.
var OrderActions = map[string]enums.OrderAction{
	"approve-hub":         enums.OrderActionApproveHub,
	"start-processing":    enums.OrderActionStartProcessing,
	"start-ironing":       enums.OrderActionStartIroning,
	"complete-processing": enums.OrderActionCompleteProcessing,
	"cancel":              enums.OrderActionAdminCancel,
	"approve-return":      enums.OrderActionApproveReturn,
	"decline-return":      enums.OrderActionDeclineReturn,
	"schedule-redelivery": enums.OrderActionScheduleRedelivery,
	"suspend":             enums.OrderActionSuspend,
}

type actionRequest struct {
	Note       string  `json:"note" validate:"max=1000"`
	Reason     string  `json:"reason" validate:"max=1000"`
	HubCode    string  `json:"hub_code" validate:"max=64"`
	NewAddress *string `json:"new_address" validate:"omitempty,max=500"`
	NewSlot    *string `json:"new_slot" validate:"omitempty,max=100"`
}

func adminFrom(r *http.Request) (internalorders.Actor, error) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return internalorders.Actor{ID: caller.UserID, Role: caller.Role}, nil
}

func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}

// ListOrders returns every order, filterable by status, return state, customer
// and partner.
func ListOrders(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseAdminFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), actor, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseAdminFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := query.Get("return_state"); raw != "" {
		state, err := enums.ParseReturnState(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return_state filter")
		}
		filters.ReturnState = &state
	}
	for key, dest := range map[string]**uuid.UUID{
		"customer_id": &filters.CustomerID,
		"partner_id":  &filters.PartnerID,
	} {
		raw := query.Get(key)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id filter").WithDetails(map[string]any{"field": key})
		}
		*dest = &id
	}
	return filters, nil
}

func OrderDetail(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteVersioned(w, http.StatusOK, view.Version, view)
	}
}

// OrderHistory returns every applied transition, oldest first.
func OrderHistory(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entries, err := svc.History(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entries)
	}
}

// OrderAction issues one admin command against an order.
func OrderAction(svc OrderService, action enums.OrderAction, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expected, err := validators.ParseExpectedVersion(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req actionRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		note := validators.SanitizeString(req.Note, maxNoteLength)
		reason := validators.SanitizeString(req.Reason, maxNoteLength)
		hubCode := validators.SanitizeString(req.HubCode, 64)

		var view *internalorders.OrderView
		switch action {
		case enums.OrderActionApproveReturn:
			view, err = svc.ApproveReturn(r.Context(), internalorders.ReturnInput{OrderID: orderID, Actor: actor, Note: note, HubCode: hubCode})
		case enums.OrderActionDeclineReturn:
			view, err = svc.DeclineReturn(r.Context(), internalorders.ReturnInput{OrderID: orderID, Actor: actor, Note: note})
		case enums.OrderActionScheduleRedelivery:
			view, err = svc.ScheduleRedelivery(r.Context(), internalorders.ScheduleRedeliveryInput{
				OrderID:    orderID,
				Actor:      actor,
				NewAddress: req.NewAddress,
				NewSlot:    req.NewSlot,
			})
		case enums.OrderActionSuspend:
			view, err = svc.Suspend(r.Context(), internalorders.SuspendInput{OrderID: orderID, Actor: actor, Reason: reason})
		default:
			view, err = svc.Transition(r.Context(), internalorders.TransitionInput{
				OrderID: orderID,
				Actor:   actor,
				Action:  action,
				Payload: internalorders.TransitionPayload{
					Note:    note,
					Reason:  reason,
					HubCode: hubCode,
				},
				ExpectedVersion: expected,
			})
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteVersioned(w, http.StatusOK, view.Version, view)
	}
}

type refundRequest struct {
	RefundAmount *int64 `json:"refund_amount" validate:"omitempty,min=0"`
	Reason       string `json:"reason" validate:"max=1000"`
}

// RefundOrder settles the order's refund exactly once: dues are cleared
// first and the remainder credited to the wallet.
func RefundOrder(settler RefundSettler, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if settler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req refundRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := settler.SettleRefund(r.Context(), wallet.SettleRefundInput{
			OrderID:      orderID,
			RefundAmount: req.RefundAmount,
			Reason:       validators.SanitizeString(req.Reason, maxNoteLength),
			Actor:        wallet.Actor{ID: actor.ID, Role: actor.Role},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// DeleteOrder removes an order with no open refund or active partner.
func DeleteOrder(svc OrderService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), orderID, actor); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order_id": orderID, "deleted": true})
	}
}
