package enums

import "fmt"

// ReturnState tracks the return-to-hub overlay on a failed delivery.
type ReturnState string

const (
	ReturnStateNone                ReturnState = "none"
	ReturnStateRequested           ReturnState = "requested"
	ReturnStateApproved            ReturnState = "approved"
	ReturnStateDeclined            ReturnState = "declined"
	ReturnStateRedeliveryScheduled ReturnState = "redelivery_scheduled"
	ReturnStateSuspended           ReturnState = "suspended"
)

var validReturnStates = []ReturnState{
	ReturnStateNone,
	ReturnStateRequested,
	ReturnStateApproved,
	ReturnStateDeclined,
	ReturnStateRedeliveryScheduled,
	ReturnStateSuspended,
}

func (s ReturnState) String() string {
	return string(s)
}

func (s ReturnState) IsValid() bool {
	for _, candidate := range validReturnStates {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseReturnState(value string) (ReturnState, error) {
	for _, candidate := range validReturnStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return state %q", value)
}
