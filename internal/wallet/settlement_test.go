package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSettlement(t *testing.T) {
	cases := []struct {
		name                             string
		base, charge, due                int64
		wantCleared, wantDue, wantRefund int64
	}{
		{name: "dues cleared first", base: 500, charge: 100, due: 40, wantCleared: 40, wantDue: 0, wantRefund: 440},
		{name: "due larger than charge", base: 500, charge: 100, due: 250, wantCleared: 100, wantDue: 150, wantRefund: 500},
		{name: "no dues", base: 500, charge: 100, due: 0, wantCleared: 0, wantDue: 0, wantRefund: 500},
		{name: "no charge keeps dues", base: 300, charge: 0, due: 80, wantCleared: 0, wantDue: 80, wantRefund: 300},
		{name: "partial base floors at zero", base: 20, charge: 100, due: 10, wantCleared: 10, wantDue: 0, wantRefund: 0},
		{name: "zero base", base: 0, charge: 0, due: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeSettlement(tc.base, tc.charge, tc.due)
			assert.Equal(t, tc.wantCleared, got.DueCleared)
			assert.Equal(t, tc.wantDue, got.DueAfter)
			assert.Equal(t, tc.wantRefund, got.RefundToWallet)
			assert.Equal(t, tc.due, got.DueBefore)
		})
	}
}

func TestChargeSplit(t *testing.T) {
	fromWallet, toDue := chargeSplit(100, 250)
	assert.Equal(t, int64(100), fromWallet)
	assert.Zero(t, toDue)

	fromWallet, toDue = chargeSplit(100, 60)
	assert.Equal(t, int64(60), fromWallet)
	assert.Equal(t, int64(40), toDue)

	fromWallet, toDue = chargeSplit(100, 0)
	assert.Zero(t, fromWallet)
	assert.Equal(t, int64(100), toDue)

	fromWallet, toDue = chargeSplit(0, 50)
	assert.Zero(t, fromWallet)
	assert.Zero(t, toDue)
}
