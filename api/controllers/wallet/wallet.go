package wallet

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/laundryhub/laundry-backend/api/middleware"
	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/api/validators"
	"github.com/laundryhub/laundry-backend/internal/ledger"
	internalwallet "github.com/laundryhub/laundry-backend/internal/wallet"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/pagination"
)

// Service is the slice of the wallet service the HTTP surface uses.
type Service interface {
	Summary(ctx context.Context, customerID uuid.UUID) (*internalwallet.Summary, error)
	Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*ledger.EntryList, error)
	Adjust(ctx context.Context, input internalwallet.AdjustInput) (*internalwallet.AdjustResult, error)
	ClearDues(ctx context.Context, input internalwallet.ClearDuesInput) (*internalwallet.AdjustResult, error)
}

func callerFrom(r *http.Request) (internalwallet.Actor, error) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return internalwallet.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return internalwallet.Actor{ID: caller.UserID, Role: caller.Role}, nil
}

// Summary returns the calling customer's balance, points and dues.
func Summary(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		summary, err := svc.Summary(r.Context(), caller.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

// Transactions pages through the calling customer's wallet journal.
func Transactions(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransactions(w, r, svc, caller.ID, logg)
	}
}

// CustomerTransactions is the admin view of any customer's wallet journal.
func CustomerTransactions(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeTransactions(w, r, svc, customerID, logg)
	}
}

func writeTransactions(w http.ResponseWriter, r *http.Request, svc Service, customerID uuid.UUID, logg *logger.Logger) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
		return
	}
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	list, err := svc.Transactions(r.Context(), customerID, params)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, list)
}

type adjustRequest struct {
	Type   string `json:"type" validate:"required,oneof=balance points"`
	Action string `json:"action" validate:"required,oneof=increase decrease"`
	Amount int64  `json:"amount" validate:"required,min=1"`
	Reason string `json:"reason" validate:"required,max=1000"`
}

// Adjust applies an audited admin change to a customer's balance or points.
// Decreases floor at zero.
func Adjust(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req adjustRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Adjust(r.Context(), internalwallet.AdjustInput{
			CustomerID:     customerID,
			Type:           enums.WalletTransactionType(req.Type),
			Action:         enums.WalletAction(req.Action),
			Amount:         req.Amount,
			Reason:         validators.SanitizeString(req.Reason, 1000),
			Actor:          caller,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(middleware.IdempotencyKeyHeader)),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type clearDuesRequest struct {
	Amount *int64 `json:"amount" validate:"omitempty,min=1"`
	Reason string `json:"reason" validate:"max=1000"`
}

// ClearDues writes off all of a customer's due amount, or the given part of it.
func ClearDues(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallet service unavailable"))
			return
		}
		caller, err := callerFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customerID, err := validators.ParseUUIDParam(r, "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req clearDuesRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		result, err := svc.ClearDues(r.Context(), internalwallet.ClearDuesInput{
			CustomerID:     customerID,
			Amount:         req.Amount,
			Reason:         validators.SanitizeString(req.Reason, 1000),
			Actor:          caller,
			IdempotencyKey: strings.TrimSpace(r.Header.Get(middleware.IdempotencyKeyHeader)),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
