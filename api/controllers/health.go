package controllers

import (
	"net/http"

	"github.com/zamyshop/reviews-backend/api/responses"
	pkgerrors "github.com/zamyshop/reviews-backend/pkg/errors"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	pkgredis "github.com/zamyshop/reviews-backend/pkg/redis"
	"github.com/zamyshop/reviews-backend/pkg/supabase"
)

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]bool{"ok": true})
	}
}

// HealthReady reports whether the store and the optional cache answer. A nil
// dependency is skipped, not failed: redis is optional by configuration.
func HealthReady(store supabase.Pinger, cache pkgredis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}

		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store unreachable"))
				return
			}
			checks["store"] = "ok"
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unreachable"))
				return
			}
			checks["cache"] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"ok": true, "checks": checks})
	}
}
