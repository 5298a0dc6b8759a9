package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
)

func defaultSettings() Settings {
	return Settings{
		CancellationPercentage: decimal.NewFromInt(20),
		PerReason: map[enums.DeliveryFailureReason]int64{
			enums.FailureReasonCustomerUnavailable: 150,
			enums.FailureReasonIncorrectAddress:    120,
			enums.FailureReasonRefusalToAccept:     180,
		},
		MinFailureFee: 100,
		MaxFailureFee: 250,
	}
}

func TestCancellationFee(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pct      string
		assigned bool
		want     int64
	}{
		{name: "no partner is free", total: 500, pct: "20", assigned: false, want: 0},
		{name: "partner assigned", total: 500, pct: "20", assigned: true, want: 100},
		{name: "rounds half away from zero", total: 330, pct: "15", assigned: true, want: 50},
		{name: "rounds down below half", total: 323, pct: "15", assigned: true, want: 48},
		{name: "fractional percentage", total: 999, pct: "12.5", assigned: true, want: 125},
		{name: "zero total", total: 0, pct: "20", assigned: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CancellationFee(tt.total, decimal.RequireFromString(tt.pct), tt.assigned)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeliveryFailureFeeTakesMaxNotSum(t *testing.T) {
	settings := defaultSettings()

	fee, err := DeliveryFailureFee([]enums.DeliveryFailureReason{
		enums.FailureReasonCustomerUnavailable,
		enums.FailureReasonRefusalToAccept,
	}, settings)
	require.NoError(t, err)
	require.Equal(t, int64(180), fee)

	single, err := DeliveryFailureFee([]enums.DeliveryFailureReason{enums.FailureReasonCustomerUnavailable}, settings)
	require.NoError(t, err)
	require.Equal(t, int64(150), single)
}

func TestDeliveryFailureFeeClampsToBounds(t *testing.T) {
	settings := defaultSettings()
	settings.PerReason[enums.FailureReasonIncorrectAddress] = 40
	settings.PerReason[enums.FailureReasonRefusalToAccept] = 900

	low, err := DeliveryFailureFee([]enums.DeliveryFailureReason{enums.FailureReasonIncorrectAddress}, settings)
	require.NoError(t, err)
	require.Equal(t, int64(100), low)

	high, err := DeliveryFailureFee([]enums.DeliveryFailureReason{enums.FailureReasonRefusalToAccept}, settings)
	require.NoError(t, err)
	require.Equal(t, int64(250), high)
}

func TestDeliveryFailureFeeErrors(t *testing.T) {
	settings := defaultSettings()

	_, err := DeliveryFailureFee(nil, settings)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = DeliveryFailureFee([]enums.DeliveryFailureReason{"weather"}, settings)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	delete(settings.PerReason, enums.FailureReasonIncorrectAddress)
	_, err = DeliveryFailureFee([]enums.DeliveryFailureReason{enums.FailureReasonIncorrectAddress}, settings)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConfigMissing))
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, defaultSettings().Validate())

	inverted := defaultSettings()
	inverted.MinFailureFee = 300
	require.Error(t, inverted.Validate())

	overHundred := defaultSettings()
	overHundred.CancellationPercentage = decimal.NewFromInt(101)
	require.Error(t, overHundred.Validate())

	missingReason := defaultSettings()
	delete(missingReason.PerReason, enums.FailureReasonRefusalToAccept)
	require.Error(t, missingReason.Validate())
}
