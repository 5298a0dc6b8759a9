package partners

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/db/models"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
)

// Service answers partner eligibility questions for the order workflow.
type Service interface {
	Get(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error)
	EnsureAssignable(ctx context.Context, partnerID uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partners repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, partnerID uuid.UUID) (*models.Partner, error) {
	if partnerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "partner id required")
	}
	partner, err := s.repo.FindByID(ctx, partnerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	}
	return partner, nil
}

// EnsureAssignable rejects partners who may not take orders: unverified KYC
// or a deactivated account.
func (s *service) EnsureAssignable(ctx context.Context, partnerID uuid.UUID) error {
	partner, err := s.Get(ctx, partnerID)
	if err != nil {
		return err
	}
	if partner.Assignable() {
		return nil
	}
	if !partner.Active {
		return pkgerrors.New(pkgerrors.CodeForbidden, "partner account is inactive")
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "partner KYC is not verified").
		WithDetails(map[string]any{"kyc_status": partner.KYCStatus})
}
