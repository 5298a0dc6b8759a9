package orders

import (
	"net/http"

	"github.com/laundryhub/laundry-backend/api/middleware"
	"github.com/laundryhub/laundry-backend/api/validators"
	internalorders "github.com/laundryhub/laundry-backend/internal/orders"
	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
)

const maxNoteLength = 1000

type actionRequest struct {
	Reasons []string `json:"reasons" validate:"omitempty,max=10,dive,required,failure_reason"`
	Note    string   `json:"note" validate:"max=1000"`
	Reason  string   `json:"reason" validate:"max=1000"`
	HubCode string   `json:"hub_code" validate:"max=64"`
}

func (req actionRequest) payload() (internalorders.TransitionPayload, error) {
	payload := internalorders.TransitionPayload{
		Note:    validators.SanitizeString(req.Note, maxNoteLength),
		Reason:  validators.SanitizeString(req.Reason, maxNoteLength),
		HubCode: validators.SanitizeString(req.HubCode, 64),
	}
	if len(req.Reasons) > 0 {
		reasons, err := enums.ParseDeliveryFailureReasons(req.Reasons)
		if err != nil {
			return payload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid delivery failure reason")
		}
		payload.Reasons = reasons
	}
	return payload, nil
}

// decodeOptionalBody accepts an empty body for commands whose fields are all optional.
func decodeOptionalBody(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return validators.DecodeJSONBody(r, dest)
}

func actorFrom(r *http.Request) (internalorders.Actor, error) {
	caller, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return internalorders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return internalorders.Actor{ID: caller.UserID, Role: caller.Role}, nil
}

func parseListFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters
	query := r.URL.Query()
	if raw := query.Get("status"); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := query.Get("return_state"); raw != "" {
		state, err := enums.ParseReturnState(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid return_state filter")
		}
		filters.ReturnState = &state
	}
	return filters, nil
}
