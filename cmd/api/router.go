package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/FACorreiaa/income-tracker/internal/api"
	"github.com/FACorreiaa/income-tracker/internal/auth"
)

// NewRouter builds the full HTTP surface: public routes, authenticated
// routes, and operational endpoints, wrapped in the shared middleware stack.
func NewRouter(deps *Dependencies) http.Handler {
	mux := http.NewServeMux()
	authed := auth.Middleware([]byte(deps.Config.Auth.JWTSecret))

	protected := func(h http.HandlerFunc) http.Handler {
		return authed(h)
	}

	// Upload ingestion
	mux.Handle("POST /api/csv/preview", protected(deps.IngestHandler.Preview))
	mux.Handle("POST /api/csv/import", protected(deps.IngestHandler.Import))
	mux.HandleFunc("GET /api/csv/platforms", deps.IngestHandler.Platforms)

	// Income records
	mux.Handle("POST /api/income", protected(deps.IncomeHandler.Create))
	mux.Handle("GET /api/income", protected(deps.IncomeHandler.List))
	mux.Handle("GET /api/income/summary", protected(deps.IncomeHandler.Summary))
	mux.Handle("GET /api/income/sources", protected(deps.IncomeHandler.Sources))
	mux.Handle("GET /api/income/export", protected(deps.IncomeHandler.Export))
	mux.Handle("GET /api/income/{id}", protected(deps.IncomeHandler.Get))
	mux.Handle("PUT /api/income/{id}", protected(deps.IncomeHandler.Update))
	mux.Handle("DELETE /api/income/{id}", protected(deps.IncomeHandler.Delete))

	// Insights
	mux.Handle("GET /api/insights", protected(deps.InsightsHandler.Report))

	// Waitlist
	mux.HandleFunc("POST /api/waitlist", deps.WaitlistHandler.Join)
	mux.HandleFunc("POST /api/waitlist/activate", deps.WaitlistHandler.Activate)
	mux.Handle("POST /api/waitlist/{id}/invite", protected(deps.WaitlistHandler.Invite))
	mux.Handle("GET /api/waitlist/stats", protected(deps.WaitlistHandler.Stats))

	// Operational
	mux.HandleFunc("GET /health", healthHandler(deps))
	if deps.Config.Observability.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	limiter := api.NewRateLimiter(
		float64(deps.Config.Server.RateLimitPerSecond),
		deps.Config.Server.RateLimitBurst,
	)

	return api.Chain(
		corsHandler.Handler(mux),
		api.RequestLogger(deps.Logger),
		api.Recover(deps.Logger),
		api.Metrics(),
		limiter.Middleware(),
	)
}

// healthHandler reports liveness and database reachability.
func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Pool.Ping(r.Context()); err != nil {
			deps.Logger.Error("health check failed", "error", err)
			api.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
