package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/api/validators"
	internalorders "github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// CustomerService is the slice of the orders service the customer surface uses.
type CustomerService interface {
	Book(ctx context.Context, input internalorders.BookInput) (*internalorders.OrderView, error)
	List(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*internalorders.OrderView, error)
	Transition(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error)
	CancellationQuote(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*internalorders.CancellationQuote, error)
}

type orderLister interface {
	List(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error)
}

type bookRequest struct {
	TotalAmount     int64  `json:"total_amount" validate:"required,min=1"`
	PickupAddress   string `json:"pickup_address" validate:"required,max=500"`
	PickupSlot      string `json:"pickup_slot" validate:"required,max=100"`
	DeliveryAddress string `json:"delivery_address" validate:"required,max=500"`
	DeliverySlot    string `json:"delivery_slot" validate:"required,max=100"`
}

// Book creates a pending order for the calling customer.
func Book(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req bookRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Book(r.Context(), internalorders.BookInput{
			CustomerID:      actor.ID,
			TotalAmount:     req.TotalAmount,
			PickupAddress:   validators.SanitizeString(req.PickupAddress, 500),
			PickupSlot:      validators.SanitizeString(req.PickupSlot, 100),
			DeliveryAddress: validators.SanitizeString(req.DeliveryAddress, 500),
			DeliverySlot:    validators.SanitizeString(req.DeliverySlot, 100),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteVersioned(w, http.StatusCreated, view.Version, view)
	}
}

// List returns the customer's orders, newest first.
func List(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return listOrders(svc, false, logg)
}

func listOrders(svc orderLister, queue bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters, err := parseListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters.PartnerQueue = queue

		list, err := svc.List(r.Context(), actor, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func Detail(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
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

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=1000"`
}

// Cancel cancels the customer's own order. A percentage fee applies once a
// partner has accepted the pickup.
func Cancel(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
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

		var req cancelRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Transition(r.Context(), internalorders.TransitionInput{
			OrderID:         orderID,
			Actor:           actor,
			Action:          enums.OrderActionCancel,
			Payload:         internalorders.TransitionPayload{Reason: validators.SanitizeString(req.Reason, maxNoteLength)},
			ExpectedVersion: expected,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteVersioned(w, http.StatusOK, view.Version, view)
	}
}

// CancellationFee previews what cancelling the order would cost right now.
func CancellationFee(svc CustomerService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actor, err := actorFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.CancellationQuote(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
