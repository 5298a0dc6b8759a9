package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|validate|sqlite")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create")
	version := flag.String("version", "", "target YYYYMMDDHHMMSS version for -cmd=to")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx := logg.WithField(context.Background(), "cmd", *cmd)

	switch *cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, *name, time.Now())
		exitOn(ctx, logg, "create migration", err)
		logg.Info(logg.WithField(ctx, "file", path), "migration created")
		return
	case "validate":
		exitOn(ctx, logg, "validate migrations", migrate.ValidateFS(source(*dir)))
		logg.Info(ctx, "migrations valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Debug(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	exitOn(ctx, logg, "load config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(context.Background(), map[string]any{
		"cmd":    *cmd,
		"env":    cfg.App.Env,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(ctx, logg, "connect database", err)
	defer dbClient.Close()

	if *cmd == "sqlite" || cfg.DB.IsSQLite() {
		exitOn(ctx, logg, "apply sqlite schema", migrate.Latest(ctx, dbClient, true, logg))
		logg.Info(ctx, "sqlite schema applied")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	exitOn(ctx, logg, "sql database", err)
	runner, err := migrate.NewRunner(sqlDB, source(*dir), logg)
	exitOn(ctx, logg, "goose provider", err)

	switch *cmd {
	case "up":
		exitOn(ctx, logg, "migrate up", runner.Up(ctx))
	case "down":
		exitOn(ctx, logg, "migrate down", runner.Down(ctx))
	case "to":
		if *version == "" {
			exitOn(ctx, logg, "migrate to", fmt.Errorf("-version is required"))
		}
		exitOn(ctx, logg, "migrate to", runner.To(ctx, *version))
	case "status":
		statuses, err := runner.Status(ctx)
		exitOn(ctx, logg, "migrate status", err)
		for _, status := range statuses {
			fields := map[string]any{
				"version": status.Source.Version,
				"file":    status.Source.Path,
				"state":   string(status.State),
			}
			if !status.AppliedAt.IsZero() {
				fields["applied_at"] = status.AppliedAt.UTC().Format(time.RFC3339)
			}
			logg.Info(logg.WithFields(ctx, fields), "migration status")
		}
	default:
		exitOn(ctx, logg, "migrate", fmt.Errorf("unknown -cmd %q", *cmd))
	}
}

func source(dir string) fs.FS {
	if dir == "" {
		return migrate.Migrations()
	}
	return os.DirFS(dir)
}

func exitOn(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "step", step), "migrate failed", err)
	os.Exit(1)
}
