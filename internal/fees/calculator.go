package fees

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db/models"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Settings is the fee configuration the calculator reads. Amounts are whole rupees.
type Settings struct {
	CancellationPercentage decimal.Decimal                       `json:"cancellation_percentage"`
	PerReason              map[enums.DeliveryFailureReason]int64 `json:"per_reason"`
	MinFailureFee          int64                                 `json:"min_failure_fee"`
	MaxFailureFee          int64                                 `json:"max_failure_fee"`
}

// Validate rejects settings the calculator cannot apply.
func (s Settings) Validate() error {
	if s.CancellationPercentage.IsNegative() || s.CancellationPercentage.GreaterThan(hundred) {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation percentage must be between 0 and 100")
	}
	if s.MinFailureFee < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min failure fee must not be negative")
	}
	if s.MaxFailureFee < s.MinFailureFee {
		return pkgerrors.New(pkgerrors.CodeValidation, "min failure fee must not exceed max failure fee")
	}
	for _, reason := range []enums.DeliveryFailureReason{
		enums.FailureReasonCustomerUnavailable,
		enums.FailureReasonIncorrectAddress,
		enums.FailureReasonRefusalToAccept,
	} {
		charge, ok := s.PerReason[reason]
		if !ok {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "charge for %s is required", reason)
		}
		if charge < 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "charge for %s must not be negative", reason)
		}
	}
	return nil
}

// CancellationFee is zero until a partner is assigned, then a rounded
// percentage of the order total. Halves round away from zero.
func CancellationFee(total int64, pct decimal.Decimal, partnerAssigned bool) int64 {
	if !partnerAssigned || total <= 0 {
		return 0
	}
	return decimal.NewFromInt(total).Mul(pct).Div(hundred).Round(0).IntPart()
}

// DeliveryFailureFee charges the single most expensive selected reason,
// clamped to the configured bounds. Reasons never stack.
func DeliveryFailureFee(reasons []enums.DeliveryFailureReason, settings Settings) (int64, error) {
	if len(reasons) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "at least one delivery failure reason is required")
	}

	var highest int64
	for _, reason := range reasons {
		if !reason.IsValid() {
			return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid delivery failure reason %q", reason)
		}
		charge, ok := settings.PerReason[reason]
		if !ok {
			return 0, pkgerrors.Newf(pkgerrors.CodeConfigMissing, "no charge configured for %s", reason)
		}
		if charge > highest {
			highest = charge
		}
	}

	return clamp(highest, settings.MinFailureFee, settings.MaxFailureFee), nil
}

// clamp bounds value to [lo, hi]. A zero hi leaves the upper side open.
func clamp(value, lo, hi int64) int64 {
	if hi > 0 && value > hi {
		return hi
	}
	if value < lo {
		return lo
	}
	return value
}

// SettingsFromModel converts the persisted row.
func SettingsFromModel(row models.OrderChargeSettings) Settings {
	return Settings{
		CancellationPercentage: row.CancellationPercentage,
		PerReason: map[enums.DeliveryFailureReason]int64{
			enums.FailureReasonCustomerUnavailable: row.CustomerUnavailable,
			enums.FailureReasonIncorrectAddress:    row.IncorrectAddress,
			enums.FailureReasonRefusalToAccept:     row.RefusalToAccept,
		},
		MinFailureFee: row.MinFailureFee,
		MaxFailureFee: row.MaxFailureFee,
	}
}

// SettingsFromConfig builds the seed settings from environment defaults.
func SettingsFromConfig(cfg config.FeesConfig) Settings {
	return Settings{
		CancellationPercentage: cfg.CancellationPercentage,
		PerReason: map[enums.DeliveryFailureReason]int64{
			enums.FailureReasonCustomerUnavailable: cfg.CustomerUnavailable,
			enums.FailureReasonIncorrectAddress:    cfg.IncorrectAddress,
			enums.FailureReasonRefusalToAccept:     cfg.RefusalToAccept,
		},
		MinFailureFee: cfg.MinFailureFee,
		MaxFailureFee: cfg.MaxFailureFee,
	}
}

func (s Settings) toModel() models.OrderChargeSettings {
	return models.OrderChargeSettings{
		ID:                     models.OrderChargeSettingsID,
		CancellationPercentage: s.CancellationPercentage,
		CustomerUnavailable:    s.PerReason[enums.FailureReasonCustomerUnavailable],
		IncorrectAddress:       s.PerReason[enums.FailureReasonIncorrectAddress],
		RefusalToAccept:        s.PerReason[enums.FailureReasonRefusalToAccept],
		MinFailureFee:          s.MinFailureFee,
		MaxFailureFee:          s.MaxFailureFee,
	}
}

func (s Settings) String() string {
	return fmt.Sprintf("pct=%s min=%d max=%d", s.CancellationPercentage.String(), s.MinFailureFee, s.MaxFailureFee)
}
