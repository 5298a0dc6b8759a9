package admin

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/api/validators"
	"github.com/laundryhub/laundry-backend/internal/fees"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

// ChargeSettings reads and edits the order charge configuration.
type ChargeSettings interface {
	Current(ctx context.Context) (fees.Settings, error)
	Update(ctx context.Context, input fees.UpdateSettingsInput) (fees.Settings, error)
	PreviewFailureFee(ctx context.Context, reasons []enums.DeliveryFailureReason) (int64, error)
}

type chargeSettingsRequest struct {
	CancellationPercentage decimal.Decimal `json:"cancellation_percentage"`
	CustomerUnavailable    *int64          `json:"customer_unavailable" validate:"required,min=0"`
	IncorrectAddress       *int64          `json:"incorrect_address" validate:"required,min=0"`
	RefusalToAccept        *int64          `json:"refusal_to_accept" validate:"required,min=0"`
	MinFailureFee          *int64          `json:"min_failure_fee" validate:"required,min=0"`
	MaxFailureFee          *int64          `json:"max_failure_fee" validate:"required,min=0"`
}

func (req chargeSettingsRequest) settings() fees.Settings {
	return fees.Settings{
		CancellationPercentage: req.CancellationPercentage,
		PerReason: map[enums.DeliveryFailureReason]int64{
			enums.FailureReasonCustomerUnavailable: *req.CustomerUnavailable,
			enums.FailureReasonIncorrectAddress:    *req.IncorrectAddress,
			enums.FailureReasonRefusalToAccept:     *req.RefusalToAccept,
		},
		MinFailureFee: *req.MinFailureFee,
		MaxFailureFee: *req.MaxFailureFee,
	}
}

func GetChargeSettings(svc ChargeSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}
		settings, err := svc.Current(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

// UpdateChargeSettings replaces the charge settings. Fees already assessed on
// orders are not recomputed.
func UpdateChargeSettings(svc ChargeSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}
		actor, err := adminFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req chargeSettingsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		settings, err := svc.Update(r.Context(), fees.UpdateSettingsInput{
			Settings: req.settings(),
			ActorID:  actor.ID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, settings)
	}
}

type previewRequest struct {
	Reasons []string `json:"reasons" validate:"required,min=1,max=10,dive,required,failure_reason"`
}

// PreviewFailureFee prices a delivery failure for the given reasons against
// the current settings.
func PreviewFailureFee(svc ChargeSettings, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fees service unavailable"))
			return
		}

		var req previewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		reasons, err := enums.ParseDeliveryFailureReasons(req.Reasons)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery failure reason"))
			return
		}

		fee, err := svc.PreviewFailureFee(r.Context(), reasons)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"reasons": reasons,
			"fee":     fee,
		})
	}
}
