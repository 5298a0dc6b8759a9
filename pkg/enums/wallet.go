package enums

import "fmt"

// WalletTransactionType selects which customer balance a transaction moves.
type WalletTransactionType string

const (
	WalletTransactionBalance WalletTransactionType = "balance"
	WalletTransactionPoints  WalletTransactionType = "points"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTransactionBalance,
	WalletTransactionPoints,
}

func (t WalletTransactionType) String() string {
	return string(t)
}

func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}

// WalletAction is the direction of a wallet movement.
type WalletAction string

const (
	WalletActionIncrease WalletAction = "increase"
	WalletActionDecrease WalletAction = "decrease"
)

var validWalletActions = []WalletAction{
	WalletActionIncrease,
	WalletActionDecrease,
}

func (a WalletAction) String() string {
	return string(a)
}

func (a WalletAction) IsValid() bool {
	for _, candidate := range validWalletActions {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseWalletAction(value string) (WalletAction, error) {
	for _, candidate := range validWalletActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet action %q", value)
}

// WalletEntrySource records why a wallet transaction was written.
type WalletEntrySource string

const (
	WalletSourceRefund             WalletEntrySource = "refund"
	WalletSourceCancellationFee    WalletEntrySource = "cancellation_fee"
	WalletSourceDeliveryFailureFee WalletEntrySource = "delivery_failure_fee"
	WalletSourceDueClearedRefund   WalletEntrySource = "due_cleared_from_refund"
	WalletSourceAdminAdjustment    WalletEntrySource = "admin_adjustment"
	WalletSourceDueAdjustment      WalletEntrySource = "due_adjustment"
)

var validWalletEntrySources = []WalletEntrySource{
	WalletSourceRefund,
	WalletSourceCancellationFee,
	WalletSourceDeliveryFailureFee,
	WalletSourceDueClearedRefund,
	WalletSourceAdminAdjustment,
	WalletSourceDueAdjustment,
}

// ChargeEntrySources are the sources written when a fee is collected.
func ChargeEntrySources() []WalletEntrySource {
	return []WalletEntrySource{WalletSourceCancellationFee, WalletSourceDeliveryFailureFee}
}

func (s WalletEntrySource) String() string {
	return string(s)
}

func (s WalletEntrySource) IsValid() bool {
	for _, candidate := range validWalletEntrySources {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseWalletEntrySource(value string) (WalletEntrySource, error) {
	for _, candidate := range validWalletEntrySources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet entry source %q", value)
}
