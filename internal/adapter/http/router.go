package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/bazaarworks/marketledger/internal/adapter/http/handler"
	"github.com/bazaarworks/marketledger/internal/adapter/http/middleware"
	"github.com/bazaarworks/marketledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler     *handler.LedgerHandler
	SettlementHandler *handler.SettlementHandler
	HealthHandler     *handler.HealthHandler
	IdempotencyStore  usecase.IdempotencyStore
	Logger            zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Get("/", cfg.LedgerHandler.History)
			r.Post("/revenue", cfg.LedgerHandler.RecordRevenue)
			r.Post("/adjustments", cfg.LedgerHandler.RecordAdjustment)
			r.Post("/clawbacks", cfg.LedgerHandler.RecordClawback)
			r.Post("/release", cfg.LedgerHandler.ReleaseHolds)
		})

		// Retailers
		r.Route("/retailers/{retailerID}", func(r chi.Router) {
			r.Get("/balance", cfg.LedgerHandler.GetBalance)
			r.Post("/unfreeze", cfg.SettlementHandler.Unfreeze)
		})

		// Settlements
		r.Route("/settlements", func(r chi.Router) {
			r.Post("/", cfg.SettlementHandler.Execute)
			r.Get("/", cfg.SettlementHandler.List)
			r.Get("/{id}", cfg.SettlementHandler.Get)
		})
	})

	return r
}
