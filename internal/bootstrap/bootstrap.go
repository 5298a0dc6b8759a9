// Package bootstrap holds the process wiring shared by the binaries under
// cmd/: env loading, config, logger, database and the optional Redis and
// Pub/Sub clients, plus signal handling and ordered shutdown.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/laundryhub/laundry-backend/pkg/config"
	"github.com/laundryhub/laundry-backend/pkg/db"
	"github.com/laundryhub/laundry-backend/pkg/instance"
	"github.com/laundryhub/laundry-backend/pkg/logger"
	"github.com/laundryhub/laundry-backend/pkg/migrate"
	"github.com/laundryhub/laundry-backend/pkg/pubsub"
	"github.com/laundryhub/laundry-backend/pkg/redis"
)

type closer struct {
	name string
	fn   func() error
}

// Runtime is one running process. Close releases what it opened in reverse
// order.
type Runtime struct {
	Kind   string
	Config *config.Config
	Logger *logger.Logger
	DB     *db.Client

	closers []closer
}

// Start loads configuration for the given service kind, builds the logger,
// connects the database and applies dev migrations.
func Start(ctx context.Context, kind string) (*Runtime, error) {
	bootLog := logger.New(logger.Options{ServiceName: kind})
	if err := godotenv.Load(); err != nil {
		bootLog.Debug(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = kind

	rt := &Runtime{
		Kind:   kind,
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: kind,
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			Format:      cfg.App.LogFormat,
			WarnStack:   cfg.App.LogWarnStack,
		}),
	}

	rt.DB, err = db.New(ctx, cfg.DB, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	rt.onClose("database", rt.DB.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, rt.Logger, rt.DB); err != nil {
		rt.Close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return rt, nil
}

// Redis connects the shared Redis client.
func (rt *Runtime) Redis(ctx context.Context) (*redis.Client, error) {
	client, err := redis.New(ctx, rt.Config.Redis, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	rt.onClose("redis", client.Close)
	return client, nil
}

// PubSub connects Pub/Sub. Consumers pass withSubscriptions so missing
// subscriptions are created or reported at startup.
func (rt *Runtime) PubSub(ctx context.Context, withSubscriptions bool) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, rt.Config.GCP, rt.Config.PubSub, rt.Logger, withSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("connect pubsub: %w", err)
	}
	rt.onClose("pubsub", client.Close)
	return client, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM and carries the process
// identity fields every log line should have.
func (rt *Runtime) SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	ctx = rt.Logger.WithFields(ctx, map[string]any{
		"env":          rt.Config.App.Env,
		"service_kind": rt.Kind,
		"instance":     instance.GetID(),
	})
	return ctx, stop
}

// Close releases every opened dependency, newest first, and logs failures.
func (rt *Runtime) Close() {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		c := rt.closers[i]
		if cerr := c.fn(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("close %s: %w", c.name, cerr))
		}
	}
	rt.closers = nil
	if err != nil {
		rt.Logger.Error(context.Background(), "shutdown.close_failed", err)
	}
}

func (rt *Runtime) onClose(name string, fn func() error) {
	rt.closers = append(rt.closers, closer{name: name, fn: fn})
}

// Exit logs err and terminates the process. Deferred calls do not run, so
// callers close the runtime first.
func Exit(logg *logger.Logger, msg string, err error) {
	if logg == nil {
		logg = logger.New(logger.Options{})
	}
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
