package controllers

import (
	"net/http"

	"go.uber.org/multierr"

	"github.com/jordanmarch/upkeep-backend/api/responses"
	"github.com/jordanmarch/upkeep-backend/pkg/config"
	"github.com/jordanmarch/upkeep-backend/pkg/db"
	pkgerrors "github.com/jordanmarch/upkeep-backend/pkg/errors"
	"github.com/jordanmarch/upkeep-backend/pkg/logger"
	"github.com/jordanmarch/upkeep-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upkeep-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and Redis respond.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Upkeep-Env", cfg.App.Env)

		var err error
		if dbP != nil {
			err = multierr.Append(err, dbP.Ping(r.Context()))
		}
		if redisP != nil {
			err = multierr.Append(err, redisP.Ping(r.Context()))
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "dependency not ready"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
