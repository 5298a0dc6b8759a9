package orders

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/api/validators"
	internalorders "github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// PartnerService is the slice of the orders service the partner surface uses.
type PartnerService interface {
	List(ctx context.Context, actor internalorders.Actor, filters internalorders.ListFilters, params pagination.Params) (*internalorders.OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID, actor internalorders.Actor) (*internalorders.OrderView, error)
	Transition(ctx context.Context, input internalorders.TransitionInput) (*internalorders.OrderView, error)
	RequestReturnToHub(ctx context.Context, input internalorders.ReturnInput) (*internalorders.OrderView, error)
}

// PartnerActions maps the partner route segment to the order action it issues.
var PartnerActions = map[string]enums.OrderAction{
	"accept":         enums.OrderActionAcceptPickup,
	"reached":        enums.OrderActionReachLocation,
	"picked-up":      enums.OrderActionPickUp,
	"hub-drop":       enums.OrderActionDropAtHub,
	"start-delivery": enums.OrderActionStartDelivery,
	"release":        enums.OrderActionReleaseDelivery,
	"deliver":        enums.OrderActionDeliver,
	"fail":           enums.OrderActionFailDelivery,
	"request-return": enums.OrderActionRequestReturn,
}

// PartnerList returns the partner's work. scope=assigned limits it to orders
// the partner holds; the default queue also shows unclaimed pickups and
// deliveries.
func PartnerList(svc PartnerService, logg *logger.Logger) http.HandlerFunc {
	queue := listOrders(svc, true, logg)
	assigned := listOrders(svc, false, logg)
	return func(w http.ResponseWriter, r *http.Request) {
		switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("scope"))) {
		case "", "queue":
			queue(w, r)
		case "assigned":
			assigned(w, r)
		default:
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "scope must be queue or assigned"))
		}
	}
}

func PartnerDetail(svc PartnerService, logg *logger.Logger) http.HandlerFunc {
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

// PartnerAction issues one partner command against an order.
func PartnerAction(svc PartnerService, action enums.OrderAction, logg *logger.Logger) http.HandlerFunc {
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

		var req actionRequest
		if err := decodeOptionalBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload, err := req.payload()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var view *internalorders.OrderView
		if action == enums.OrderActionRequestReturn {
			view, err = svc.RequestReturnToHub(r.Context(), internalorders.ReturnInput{
				OrderID: orderID,
				Actor:   actor,
				Note:    payload.Note,
			})
		} else {
			view, err = svc.Transition(r.Context(), internalorders.TransitionInput{
				OrderID:         orderID,
				Actor:           actor,
				Action:          action,
				Payload:         payload,
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
