package enums

import "fmt"

// ChargeKind is the fee assessed against an order.
type ChargeKind string

const (
	ChargeKindNone            ChargeKind = "none"
	ChargeKindCancellation    ChargeKind = "cancellation"
	ChargeKindDeliveryFailure ChargeKind = "delivery_failure"
)

var validChargeKinds = []ChargeKind{
	ChargeKindNone,
	ChargeKindCancellation,
	ChargeKindDeliveryFailure,
}

func (k ChargeKind) String() string {
	return string(k)
}

func (k ChargeKind) IsValid() bool {
	for _, candidate := range validChargeKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// Label is the human-facing name used in ledger reasons.
func (k ChargeKind) Label() string {
	switch k {
	case ChargeKindCancellation:
		return "Cancellation"
	case ChargeKindDeliveryFailure:
		return "Delivery Failure"
	default:
		return "Order"
	}
}

func ParseChargeKind(value string) (ChargeKind, error) {
	for _, candidate := range validChargeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid charge kind %q", value)
}
