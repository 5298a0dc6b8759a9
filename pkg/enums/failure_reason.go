package enums

import "fmt"

// DeliveryFailureReason is a partner-reported cause for a failed delivery.
type DeliveryFailureReason string

const (
	FailureReasonCustomerUnavailable DeliveryFailureReason = "customer_unavailable"
	FailureReasonIncorrectAddress    DeliveryFailureReason = "incorrect_address"
	FailureReasonRefusalToAccept     DeliveryFailureReason = "refusal_to_accept"
)

var validDeliveryFailureReasons = []DeliveryFailureReason{
	FailureReasonCustomerUnavailable,
	FailureReasonIncorrectAddress,
	FailureReasonRefusalToAccept,
}

func (r DeliveryFailureReason) String() string {
	return string(r)
}

func (r DeliveryFailureReason) IsValid() bool {
	for _, candidate := range validDeliveryFailureReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseDeliveryFailureReason(value string) (DeliveryFailureReason, error) {
	for _, candidate := range validDeliveryFailureReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery failure reason %q", value)
}

// ParseDeliveryFailureReasons parses and de-duplicates a reason list, keeping input order.
func ParseDeliveryFailureReasons(values []string) ([]DeliveryFailureReason, error) {
	seen := make(map[DeliveryFailureReason]struct{}, len(values))
	out := make([]DeliveryFailureReason, 0, len(values))
	for _, value := range values {
		reason, err := ParseDeliveryFailureReason(value)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[reason]; dup {
			continue
		}
		seen[reason] = struct{}{}
		out = append(out, reason)
	}
	return out, nil
}
