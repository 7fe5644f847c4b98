package controllers

import (
	"context"
	"net/http"
	"sort"

	"go.uber.org/multierr"

	"github.com/quickshop/storefront-backend/api/responses"
	"github.com/quickshop/storefront-backend/pkg/config"
	pkgerrors "github.com/quickshop/storefront-backend/pkg/errors"
	"github.com/quickshop/storefront-backend/pkg/logger"
)

// Pinger is the dependency health surface checked by the ready endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every registered dependency responds.
// All failures are collected so one probe shows the full picture.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storefront-Env", cfg.App.Env)

		var errs error
		var failing []string
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				errs = multierr.Append(errs, err)
				failing = append(failing, name)
			}
		}
		if errs != nil {
			sort.Strings(failing)
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "dependency unavailable").
					WithDetails(map[string]any{"dependencies": failing}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
