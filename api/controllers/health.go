package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/laundryhub/laundry-backend/api/responses"
	"github.com/laundryhub/laundry-backend/pkg/config"
	pkgerrors "github.com/laundryhub/laundry-backend/pkg/errors"
	"github.com/laundryhub/laundry-backend/pkg/logger"
)

const readinessProbeTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Laundry-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency in parallel, each under its own
// deadline, and answers 503 listing the ones that failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Laundry-Env", cfg.App.Env)

		checks, failed := probe(r.Context(), deps)
		if failed {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "dependencies unavailable").
				WithDetails(map[string]any{"checks": checks}))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}

func probe(ctx context.Context, deps map[string]Pinger) (map[string]string, bool) {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		checks = make(map[string]string, len(deps))
		failed bool
	)
	for name, dep := range deps {
		if dep == nil {
			continue
		}
		g.Go(func() error {
			pingCtx, cancel := context.WithTimeout(ctx, readinessProbeTimeout)
			defer cancel()
			status := "ok"
			if err := dep.Ping(pingCtx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[name] = status
			failed = failed || status != "ok"
			return nil
		})
	}
	_ = g.Wait()
	return checks, failed
}
