package migrate

import (
	"context"
	"fmt"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

// Latest brings the connected database to the newest schema. SQLite gets the
// mirrored DDL; Postgres runs the embedded goose set.
func Latest(ctx context.Context, client *db.Client, sqlite bool, logg *logger.Logger) error {
	if sqlite {
		return ApplySQLiteSchema(ctx, client.DB())
	}
	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("migrate: sql handle: %w", err)
	}
	runner, err := NewRunner(pool, Migrations(), logg)
	if err != nil {
		return err
	}
	return runner.Up(ctx)
}

// MaybeRunDev runs Latest at boot, but only in dev and only when
// LAUNDRY_AUTO_MIGRATE is on. Staging and prod migrate from cmd/migrate.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver})
		logg.Info(ctx, "migrate.autorun.start")
	}
	if err := Latest(ctx, client, cfg.DB.IsSQLite(), logg); err != nil {
		return fmt.Errorf("migrate: autorun: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "migrate.autorun.done")
	}
	return nil
}
