// Package api exposes dispatch runs, audit logs and predictions over HTTP.
package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	dispatchapi "github.com/kilianp07/wildfire/api/dispatch"
	"github.com/kilianp07/wildfire/api/p1"
	"github.com/kilianp07/wildfire/api/predict"
	"github.com/kilianp07/wildfire/core/dispatch/logging"
	"github.com/kilianp07/wildfire/core/logger"
	"github.com/kilianp07/wildfire/core/prediction"
	"github.com/kilianp07/wildfire/core/runner"
	"github.com/kilianp07/wildfire/infra/runstore"
)

// Deps are the collaborators behind the HTTP API.
type Deps struct {
	Log       logger.Logger
	Runner    *runner.Runner
	Runs      runstore.Store
	Audit     logging.AuditStore
	Predictor prediction.Predictor
	Threshold float64
	// Token enables bearer authentication on every route when set.
	Token string
	// MaxBody limits request bodies in bytes.
	MaxBody int64
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = logger.Nop{}
	}
	if d.Runner == nil {
		panic("api: runner is required")
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(BearerAuth(d.Token))
	if d.MaxBody > 0 {
		r.Use(middleware.RequestSize(d.MaxBody))
	}

	p1.New(d.Log, d.Runner, d.Runs).RegisterRoutes(r)
	predict.New(d.Log, d.Predictor, d.Threshold).RegisterRoutes(r)
	if d.Audit != nil {
		r.Method(http.MethodGet, "/api/dispatch/logs", dispatchapi.NewLogHandler(d.Audit))
	}
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// BearerAuth rejects requests without "Authorization: Bearer <token>". An
// empty token disables the check. /healthz is always open.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
