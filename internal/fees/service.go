package fees

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/laundryhub/laundry-backend/pkg/enums"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

// Service reads and edits the order charge settings.
type Service interface {
	Current(ctx context.Context) (Settings, error)
	EnsureDefaults(ctx context.Context) (Settings, error)
	Update(ctx context.Context, input UpdateSettingsInput) (Settings, error)
	PreviewFailureFee(ctx context.Context, reasons []enums.DeliveryFailureReason) (int64, error)
}

type UpdateSettingsInput struct {
	Settings Settings
	ActorID  uuid.UUID
}

type service struct {
	repo     Repository
	defaults Settings
	logg     *logger.Logger
}

func NewService(repo Repository, defaults Settings, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fees repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := defaults.Validate(); err != nil {
		return nil, fmt.Errorf("default fee settings: %w", err)
	}
	return &service{repo: repo, defaults: defaults, logg: logg}, nil
}

// Current returns the stored settings. A missing row is ConfigMissing so
// fee-bearing transitions never run against invented numbers.
func (s *service) Current(ctx context.Context) (Settings, error) {
	row, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Settings{}, pkgerrors.New(pkgerrors.CodeConfigMissing, "order charge settings are not configured")
		}
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order charge settings")
	}
	return SettingsFromModel(*row), nil
}

func (s *service) EnsureDefaults(ctx context.Context) (Settings, error) {
	row := s.defaults.toModel()
	if err := s.repo.CreateIfMissing(ctx, &row); err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed order charge settings")
	}
	return s.Current(ctx)
}

func (s *service) Update(ctx context.Context, input UpdateSettingsInput) (Settings, error) {
	if err := input.Settings.Validate(); err != nil {
		return Settings{}, err
	}

	row := input.Settings.toModel()
	if input.ActorID != uuid.Nil {
		actor := input.ActorID
		row.UpdatedBy = &actor
	}
	if err := s.repo.Upsert(ctx, &row); err != nil {
		return Settings{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save order charge settings")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"actor_id": input.ActorID.String(),
		"settings": input.Settings.String(),
	})
	s.logg.Info(logCtx, "order charge settings updated")
	return input.Settings, nil
}

func (s *service) PreviewFailureFee(ctx context.Context, reasons []enums.DeliveryFailureReason) (int64, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	return DeliveryFailureFee(reasons, settings)
}
